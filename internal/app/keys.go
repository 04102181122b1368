package app

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/archview/internal/viewer"
)

// keyBindings maps keys to viewer commands.
var keyBindings = map[sdl.Scancode]viewer.Command{
	sdl.SCANCODE_U:     viewer.ToggleUpper,
	sdl.SCANCODE_L:     viewer.ToggleLower,
	sdl.SCANCODE_LEFT:  viewer.CameraLeft,
	sdl.SCANCODE_DOWN:  viewer.CameraCenter,
	sdl.SCANCODE_RIGHT: viewer.CameraRight,
	sdl.SCANCODE_1:     viewer.SelectWeek(1),
	sdl.SCANCODE_2:     viewer.SelectWeek(2),
	sdl.SCANCODE_3:     viewer.SelectWeek(3),
	sdl.SCANCODE_4:     viewer.SelectWeek(4),
	sdl.SCANCODE_5:     viewer.SelectWeek(5),
	sdl.SCANCODE_P:     viewer.PlayAll,
}

// Application keys handled outside the viewer.
const (
	keyQuit       = sdl.SCANCODE_ESCAPE
	keyScreenshot = sdl.SCANCODE_F12
	keyFullscreen = sdl.SCANCODE_F11
)

// CommandForKey returns the viewer command bound to a key.
func CommandForKey(key sdl.Scancode) (viewer.Command, bool) {
	cmd, ok := keyBindings[key]
	return cmd, ok
}
