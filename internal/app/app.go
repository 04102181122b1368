// Package app runs the interactive viewer: window, input, renderer and frame loop.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/archview/internal/assets"
	"github.com/Faultbox/archview/internal/config"
	"github.com/Faultbox/archview/internal/engine/camera"
	"github.com/Faultbox/archview/internal/engine/debug"
	"github.com/Faultbox/archview/internal/engine/input"
	"github.com/Faultbox/archview/internal/engine/renderer"
	"github.com/Faultbox/archview/internal/engine/window"
	"github.com/Faultbox/archview/internal/logger"
	"github.com/Faultbox/archview/internal/viewer"
)

// App owns the window and everything drawn into it.
type App struct {
	cfg      *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	assets   *assets.Manager
	viewer   *viewer.Viewer
	orbit    *camera.OrbitControls
	shots    *debug.ScreenshotCapture
	title    string
	log      *zap.Logger
}

// New opens the window, initializes OpenGL and binds the initial step.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:   cfg,
		input: input.New(),
		orbit: camera.NewOrbitControls(),
		shots: debug.NewScreenshotCapture(cfg.Screenshots.Dir, "archview"),
		log:   logger.Named("app"),
	}
	format, err := debug.ParseFormat(cfg.Screenshots.Format)
	if err != nil {
		return nil, err
	}
	a.shots.SetFormat(format)

	a.log.Info("initializing viewer",
		zap.String("models", cfg.Models.Root),
		zap.Int("steps", len(cfg.Models.Steps)))

	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// the GL context must exist before the renderer
	width, height := a.window.DrawableSize()
	a.renderer, err = renderer.New(renderer.Config{Width: width, Height: height})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.assets = assets.NewManager(cfg.Models.Root)
	a.viewer, err = viewer.NewFromConfig(cfg, a.assets)
	if err != nil {
		a.renderer.Close()
		a.window.Close()
		return nil, fmt.Errorf("failed to create viewer: %w", err)
	}
	a.viewer.SetRenderer(a.renderer)
	a.viewer.Resize(width, height)

	a.log.Info("viewer initialized")
	return a, nil
}

// Run drives the frame loop until the window closes or Esc is pressed.
func (a *App) Run() error {
	a.running = true
	frames := 0
	fpsTimer := time.Now()

	a.log.Info("starting frame loop")
	for a.running {
		if a.input.Update() {
			a.running = false
			break
		}
		capture := a.handleEvents()

		a.viewer.Pump()
		a.updateTitle()
		a.viewer.Frame()

		if capture {
			a.screenshot()
		}
		a.window.SwapBuffers()

		frames++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frames))
			frames = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// handleEvents applies this frame's input. It reports whether a screenshot was requested.
func (a *App) handleEvents() bool {
	capture := false
	for _, e := range a.input.Events() {
		switch e.Type {
		case input.EventWindowResize:
			a.viewer.Resize(a.window.DrawableSize())

		case input.EventKeyDown:
			if e.Repeat {
				continue
			}
			switch e.Key {
			case keyQuit:
				a.running = false
			case keyScreenshot:
				capture = true
			case keyFullscreen:
				if err := a.window.ToggleFullscreen(); err != nil {
					a.log.Warn("fullscreen toggle failed", zap.Error(err))
				}
			default:
				if cmd, ok := CommandForKey(e.Key); ok {
					a.handle(cmd)
				}
			}

		case input.EventMouseMove:
			if a.input.ButtonDown(sdl.BUTTON_LEFT) {
				a.orbit.HandleDrag(a.viewer.Camera, float32(e.DeltaX), float32(e.DeltaY))
			}

		case input.EventMouseWheel:
			a.orbit.HandleZoom(a.viewer.Camera, e.Wheel)
		}
	}
	return capture
}

func (a *App) handle(cmd viewer.Command) {
	err := a.viewer.Handle(cmd)
	switch {
	case err == nil:
	case errors.Is(err, viewer.ErrInvalidStep):
		a.log.Warn("no such week", zap.Stringer("command", cmd))
	default:
		a.log.Error("command failed", zap.Stringer("command", cmd), zap.Error(err))
	}
}

func (a *App) updateTitle() {
	title := a.cfg.Window.Title
	if step := a.viewer.Playback().Current(); step >= 0 {
		title = fmt.Sprintf("%s - week %d", title, step+1)
	}
	if a.viewer.Playback().Running() {
		title += " (playing)"
	}
	for _, slot := range []viewer.Slot{viewer.Mandibular, viewer.Maxillary} {
		var lerr *viewer.LoadError
		if errors.As(a.viewer.LastFailure(slot), &lerr) {
			title += fmt.Sprintf(" [failed to load %s]", lerr.Path)
		}
	}
	if title != a.title {
		a.title = title
		a.window.SetTitle(title)
	}
}

func (a *App) screenshot() {
	pixels, w, h := a.renderer.ReadPixels()
	name, err := a.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("file", name))
}

// Close tears down in reverse order of creation. No playback step or load
// completion runs after the viewer is closed.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.viewer != nil {
		a.viewer.Close()
	}
	if a.assets != nil {
		a.assets.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
