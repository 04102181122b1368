package viewer

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/archview/internal/config"
	"github.com/Faultbox/archview/internal/engine/camera"
	"github.com/Faultbox/archview/internal/engine/scene"
	"github.com/Faultbox/archview/internal/logger"
)

// NoInitialStep disables the startup binding.
const NoInitialStep = -1

// FrameRenderer draws a scene from a camera.
type FrameRenderer interface {
	Render(g *scene.Graph, cam *camera.State)
	Resize(width, height int)
}

// Options configures a Viewer. Zero fields get the deployed defaults,
// except Loader which is required.
type Options struct {
	Loader      Loader
	Sequence    *Sequence
	Scale       float32
	StepDelay   time.Duration
	Camera      *camera.State
	Scene       *scene.Graph
	Target      *mgl32.Vec3
	Presets     []Preset
	Policy      VisibilityPolicy
	InitialStep int // step bound at startup, or NoInitialStep
	Scheduler   Scheduler
	Logger      *zap.Logger
}

// Viewer is the viewport context: scene graph, camera and the components
// that are allowed to mutate them. It is driven from a single frame loop.
type Viewer struct {
	Scene  *scene.Graph
	Camera *camera.State

	dispatch   *Dispatcher
	slots      *SlotManager
	visibility *Visibility
	nav        *Navigator
	playback   *Sequencer
	renderer   FrameRenderer
	closed     bool
	log        *zap.Logger
}

// New creates a viewer and issues the initial step's loads.
func New(opts Options) (*Viewer, error) {
	if opts.Loader == nil {
		return nil, errors.New("viewer: loader is required")
	}
	if opts.Sequence == nil {
		opts.Sequence = DefaultSequence()
	}
	if opts.Scale == 0 {
		opts.Scale = 0.02
	}
	if opts.StepDelay <= 0 {
		opts.StepDelay = 300 * time.Millisecond
	}
	if opts.Scene == nil {
		opts.Scene = scene.New(scene.DefaultConfig())
	}
	if opts.Camera == nil {
		opts.Camera = camera.NewState(mgl32.Vec3{0, 0.15, 3}, DefaultTarget, 35, 1, 15)
		opts.Camera.MinDistance = 3
		opts.Camera.MaxDistance = 5
	}
	target := DefaultTarget
	if opts.Target != nil {
		target = *opts.Target
	}
	if opts.Presets == nil {
		opts.Presets = DefaultPresets()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = SystemScheduler
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("viewer")
	}
	if opts.InitialStep != NoInitialStep && (opts.InitialStep < 0 || opts.InitialStep >= opts.Sequence.Len()) {
		return nil, &StepError{Index: opts.InitialStep, Len: opts.Sequence.Len()}
	}

	log := opts.Logger
	v := &Viewer{
		Scene:    opts.Scene,
		Camera:   opts.Camera,
		dispatch: NewDispatcher(),
		log:      log,
	}
	v.slots = NewSlotManager(v.Scene, opts.Loader, v.dispatch, opts.Scale, log.Named("slots"))
	v.visibility = NewVisibility(v.slots, opts.Policy, log.Named("visibility"))
	v.nav = NewNavigator(v.Camera, target, opts.Presets, v.visibility, log.Named("camera"))
	v.playback = NewSequencer(opts.Sequence, v.slots, v.dispatch, opts.Scheduler, opts.StepDelay, log.Named("playback"))

	v.Camera.Target = target
	if opts.InitialStep != NoInitialStep {
		if _, err := v.playback.SelectStep(opts.InitialStep); err != nil {
			return nil, err
		}
	}

	log.Info("viewer ready",
		zap.Int("steps", opts.Sequence.Len()),
		zap.Stringer("policy", opts.Policy),
		zap.Duration("step_delay", opts.StepDelay))
	return v, nil
}

// NewFromConfig creates a viewer from application configuration.
func NewFromConfig(cfg *config.Config, loader Loader) (*Viewer, error) {
	seq, err := SequenceFromConfig(cfg.Models.Steps)
	if err != nil {
		return nil, err
	}

	policy, err := ParseVisibilityPolicy(cfg.Visibility.Policy)
	if err != nil {
		return nil, err
	}

	presets := make([]Preset, len(cfg.Camera.Presets))
	for i, p := range cfg.Camera.Presets {
		presets[i] = Preset{Name: p.Name, Position: mgl32.Vec3(p.Position)}
	}

	cam := camera.NewState(mgl32.Vec3(cfg.Camera.Initial), mgl32.Vec3(cfg.Camera.Target),
		cfg.Camera.FOV, cfg.Camera.Near, cfg.Camera.Far)
	cam.MinDistance = cfg.Camera.MinDistance
	cam.MaxDistance = cfg.Camera.MaxDistance
	cam.SetAspect(cfg.Window.Width, cfg.Window.Height)

	graph := scene.New(scene.Config{
		Background:       cfg.Scene.Background,
		GroundY:          cfg.Scene.GroundY,
		GroundSize:       cfg.Scene.GroundSize,
		ShadowResolution: cfg.Scene.ShadowResolution,
		ShadowBias:       cfg.Scene.ShadowBias,
	})

	target := mgl32.Vec3(cfg.Camera.Target)
	return New(Options{
		Loader:      loader,
		Sequence:    seq,
		Scale:       cfg.Models.Scale,
		StepDelay:   cfg.Playback.StepDelay,
		Camera:      cam,
		Scene:       graph,
		Target:      &target,
		Presets:     presets,
		Policy:      policy,
		InitialStep: cfg.Models.InitialStep,
	})
}

// Handle applies a user command.
func (v *Viewer) Handle(cmd Command) error {
	if v.closed {
		return ErrClosed
	}
	v.log.Debug("command", zap.Stringer("command", cmd))

	switch cmd.Kind {
	case KindToggleUpper:
		return v.visibility.Toggle(Maxillary)
	case KindToggleLower:
		return v.visibility.Toggle(Mandibular)
	case KindCameraLeft:
		return v.nav.MoveToPreset("left")
	case KindCameraCenter:
		return v.nav.MoveToPreset("center")
	case KindCameraRight:
		return v.nav.MoveToPreset("right")
	case KindSelectWeek:
		_, err := v.playback.SelectStep(cmd.Week - 1)
		return err
	case KindPlayAll:
		_, err := v.playback.PlayAll()
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnknownCommand, cmd)
	}
}

// BindAsset loads path into slot.
func (v *Viewer) BindAsset(slot Slot, path string) (*LoadRequest, error) {
	return v.slots.BindAsset(slot, path)
}

// CurrentBinding returns the mesh bound to slot, or nil.
func (v *Viewer) CurrentBinding(slot Slot) *MeshBinding {
	return v.slots.CurrentBinding(slot)
}

// LastFailure returns the slot's most recent load failure, cleared by the next commit.
func (v *Viewer) LastFailure(slot Slot) error {
	return v.slots.LastFailure(slot)
}

// ToggleSlot toggles a slot's visibility.
func (v *Viewer) ToggleSlot(slot Slot) error {
	if v.closed {
		return ErrClosed
	}
	return v.visibility.Toggle(slot)
}

// Visible reports a slot's visibility setting.
func (v *Viewer) Visible(slot Slot) bool {
	return v.slots.Visible(slot)
}

// MoveTo places the camera and shows both arches.
func (v *Viewer) MoveTo(pos mgl32.Vec3) error {
	if v.closed {
		return ErrClosed
	}
	v.nav.MoveTo(pos)
	return nil
}

// SelectStep binds step i to both slots.
func (v *Viewer) SelectStep(i int) (*StepRequest, error) {
	return v.playback.SelectStep(i)
}

// PlayAll starts (or returns the active) play-all run.
func (v *Viewer) PlayAll() (*Run, error) {
	return v.playback.PlayAll()
}

// Playback returns the sequencer.
func (v *Viewer) Playback() *Sequencer {
	return v.playback
}

// Navigator returns the camera navigator.
func (v *Viewer) Navigator() *Navigator {
	return v.nav
}

// Visibility returns the visibility controller.
func (v *Viewer) Visibility() *Visibility {
	return v.visibility
}

// Ready is signalled when async work is waiting for Pump.
func (v *Viewer) Ready() <-chan struct{} {
	return v.dispatch.Ready()
}

// Pump applies completed loads and due playback steps. Call it once per frame.
func (v *Viewer) Pump() int {
	return v.dispatch.Pump()
}

// SetRenderer attaches the renderer used by Frame.
func (v *Viewer) SetRenderer(r FrameRenderer) {
	v.renderer = r
}

// Resize updates the camera aspect ratio and the renderer output size.
func (v *Viewer) Resize(width, height int) {
	if v.Camera != nil {
		v.Camera.SetAspect(width, height)
	}
	if v.renderer != nil {
		v.renderer.Resize(width, height)
	}
}

// Frame draws one frame. It does nothing until a renderer, scene and camera exist.
func (v *Viewer) Frame() {
	if v.closed || v.renderer == nil || v.Scene == nil || v.Camera == nil {
		return
	}
	v.renderer.Render(v.Scene, v.Camera)
}

// Close cancels playback, drops pending async work and settles outstanding loads.
// No step or load callback runs afterwards.
func (v *Viewer) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.playback.Close()
	v.dispatch.Close()
	v.slots.Close()
	v.log.Info("viewer closed")
}
