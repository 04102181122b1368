package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func newTestState() *State {
	s := NewState(mgl32.Vec3{0, 0.15, 3}, mgl32.Vec3{0, 0.15, 0}, 35, 1, 15)
	s.MinDistance = 3
	s.MaxDistance = 5
	return s
}

func TestStateMatrices(t *testing.T) {
	s := newTestState()

	// Target projects to the view center
	p := s.View().Mul4x1(s.Target.Vec4(1))
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, 0, p.Y(), 1e-5)
	assert.InDelta(t, -3, p.Z(), 1e-5)

	s.SetAspect(1280, 720)
	assert.InDelta(t, 1280.0/720.0, s.Aspect, 1e-6)
	assert.Equal(t, s.Projection().Mul4(s.View()), s.ViewProjection())
}

func TestSetAspectIgnoresEmptyViewport(t *testing.T) {
	s := newTestState()
	s.SetAspect(800, 400)
	s.SetAspect(0, 400)
	s.SetAspect(800, -1)
	assert.Equal(t, float32(2), s.Aspect)
}

func TestOrbitDragKeepsDistance(t *testing.T) {
	s := newTestState()
	c := NewOrbitControls()

	c.HandleDrag(s, 100, 40)

	assert.InDelta(t, 3, s.Distance(), 1e-4)
	assert.NotEqual(t, mgl32.Vec3{0, 0.15, 3}, s.Position)
	assert.Equal(t, mgl32.Vec3{0, 0.15, 0}, s.Target)
}

func TestOrbitDragClampsPitch(t *testing.T) {
	s := newTestState()
	c := NewOrbitControls()

	c.HandleDrag(s, 0, 10000)

	dy := s.Position.Y() - s.Target.Y()
	assert.InDelta(t, 3*math.Sin(1.5), float64(dy), 1e-4)
}

func TestOrbitZoomClamps(t *testing.T) {
	tests := []struct {
		name  string
		delta float32
		want  float32
	}{
		{"zoom in past min", 10, 3},
		{"zoom out past max", -10, 5},
		{"small zoom out", -1, 3.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState()
			NewOrbitControls().HandleZoom(s, tt.delta)
			assert.InDelta(t, tt.want, s.Distance(), 1e-4)
		})
	}
}

func TestOrbitDegenerate(t *testing.T) {
	s := newTestState()
	s.Position = s.Target
	c := NewOrbitControls()

	c.HandleDrag(s, 10, 10)
	c.HandleZoom(s, 1)

	assert.Equal(t, s.Target, s.Position)
}
