// Package camera provides the viewer camera and orbit controls.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// State is a perspective camera looking at a target point.
type State struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	FOV    float32 // Vertical field of view, degrees
	Aspect float32
	Near   float32
	Far    float32

	// Orbit distance bounds, enforced by OrbitControls
	MinDistance float32
	MaxDistance float32
}

// NewState creates a camera at position looking at target.
func NewState(position, target mgl32.Vec3, fov, near, far float32) *State {
	return &State{
		Position: position,
		Target:   target,
		Up:       mgl32.Vec3{0, 1, 0},
		FOV:      fov,
		Aspect:   1,
		Near:     near,
		Far:      far,
	}
}

// View returns the view matrix.
func (s *State) View() mgl32.Mat4 {
	return mgl32.LookAtV(s.Position, s.Target, s.Up)
}

// Projection returns the perspective projection matrix.
func (s *State) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(s.FOV), s.Aspect, s.Near, s.Far)
}

// ViewProjection returns Projection * View.
func (s *State) ViewProjection() mgl32.Mat4 {
	return s.Projection().Mul4(s.View())
}

// SetAspect recomputes the aspect ratio from a viewport size.
// Zero or negative sizes are ignored.
func (s *State) SetAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.Aspect = float32(width) / float32(height)
}

// Distance returns the distance from the camera to its target.
func (s *State) Distance() float32 {
	return s.Position.Sub(s.Target).Len()
}

// OrbitControls rotates and zooms a camera around its target.
type OrbitControls struct {
	// Constraints
	MinPitch float32
	MaxPitch float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitControls creates orbit controls with default settings.
func NewOrbitControls() *OrbitControls {
	return &OrbitControls{
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// spherical returns distance, pitch and yaw of the camera relative to its target.
func spherical(s *State) (dist, pitch, yaw float32) {
	off := s.Position.Sub(s.Target)
	dist = off.Len()
	if dist == 0 {
		return 0, 0, 0
	}
	pitch = float32(gomath.Asin(float64(off.Y() / dist)))
	yaw = float32(gomath.Atan2(float64(off.X()), float64(off.Z())))
	return dist, pitch, yaw
}

func place(s *State, dist, pitch, yaw float32) {
	cp := float32(gomath.Cos(float64(pitch)))
	s.Position = s.Target.Add(mgl32.Vec3{
		dist * cp * float32(gomath.Sin(float64(yaw))),
		dist * float32(gomath.Sin(float64(pitch))),
		dist * cp * float32(gomath.Cos(float64(yaw))),
	})
}

// HandleDrag orbits the camera based on mouse drag delta.
func (c *OrbitControls) HandleDrag(s *State, deltaX, deltaY float32) {
	dist, pitch, yaw := spherical(s)
	if dist == 0 {
		return
	}
	yaw -= deltaX * c.DragSensitivity
	pitch += deltaY * c.DragSensitivity

	// Clamp pitch
	if pitch < c.MinPitch {
		pitch = c.MinPitch
	}
	if pitch > c.MaxPitch {
		pitch = c.MaxPitch
	}
	place(s, dist, pitch, yaw)
}

// HandleZoom moves the camera along its view direction based on wheel delta,
// keeping the distance within the camera's bounds.
func (c *OrbitControls) HandleZoom(s *State, delta float32) {
	dist, pitch, yaw := spherical(s)
	if dist == 0 {
		return
	}
	dist -= delta * dist * c.ZoomSensitivity
	if s.MinDistance > 0 && dist < s.MinDistance {
		dist = s.MinDistance
	}
	if s.MaxDistance > 0 && dist > s.MaxDistance {
		dist = s.MaxDistance
	}
	place(s, dist, pitch, yaw)
}
