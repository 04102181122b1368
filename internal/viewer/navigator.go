package viewer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/archview/internal/engine/camera"
)

// Preset is a named camera position.
type Preset struct {
	Name     string
	Position mgl32.Vec3
}

// DefaultPresets returns the left, center and right presets.
func DefaultPresets() []Preset {
	return []Preset{
		{Name: "left", Position: mgl32.Vec3{-4, 0.15, 3}},
		{Name: "center", Position: mgl32.Vec3{0, 0.15, 3}},
		{Name: "right", Position: mgl32.Vec3{4, 0.15, 3}},
	}
}

// DefaultTarget is the look-at point shared by all presets.
var DefaultTarget = mgl32.Vec3{0, 0.15, 0}

// Navigator is the only writer of the camera pose.
type Navigator struct {
	camera     *camera.State
	target     mgl32.Vec3
	presets    []Preset
	visibility *Visibility
	log        *zap.Logger
}

// NewNavigator creates a navigator that moves cam and resets visibility on every move.
func NewNavigator(cam *camera.State, target mgl32.Vec3, presets []Preset, visibility *Visibility, log *zap.Logger) *Navigator {
	return &Navigator{
		camera:     cam,
		target:     target,
		presets:    append([]Preset(nil), presets...),
		visibility: visibility,
		log:        log,
	}
}

// MoveTo places the camera at pos looking at the fixed target.
// Selecting a camera position clears manual hide state: both arches become visible.
func (n *Navigator) MoveTo(pos mgl32.Vec3) {
	n.camera.Position = pos
	n.camera.Target = n.target
	n.visibility.ShowAll()

	n.log.Debug("camera moved",
		zap.Float32("x", pos.X()),
		zap.Float32("y", pos.Y()),
		zap.Float32("z", pos.Z()))
}

// MoveToPreset moves the camera to a named preset.
func (n *Navigator) MoveToPreset(name string) error {
	for _, p := range n.presets {
		if p.Name == name {
			n.MoveTo(p.Position)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Presets returns the configured presets.
func (n *Navigator) Presets() []Preset {
	return append([]Preset(nil), n.presets...)
}
