package viewer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visState struct{ lower, upper bool }

func visOf(v *Viewer) visState {
	return visState{lower: v.Visible(Mandibular), upper: v.Visible(Maxillary)}
}

// loadBoth binds step 0 and waits for both commits.
func loadBoth(t *testing.T, v *Viewer) {
	t.Helper()
	req, err := v.SelectStep(0)
	require.NoError(t, err)
	settleStep(t, v, req)
}

func TestToggleHidesOnlyTheToggledArch(t *testing.T) {
	v, _ := newTestViewer(t, newInstantLoader())
	loadBoth(t, v)

	require.NoError(t, v.Handle(ToggleLower))
	assert.Equal(t, visState{lower: false, upper: true}, visOf(v))

	// the scene graph reflects the change without a Pump
	assert.False(t, v.Scene.Node(Mandibular).Visible)
	assert.True(t, v.Scene.Node(Maxillary).Visible)
	assert.False(t, v.CurrentBinding(Mandibular).Visible())
}

func TestToggleThenCameraMoveShowsBoth(t *testing.T) {
	v, _ := newTestViewer(t, newInstantLoader())
	loadBoth(t, v)

	require.NoError(t, v.ToggleSlot(Mandibular))
	assert.Equal(t, visState{lower: false, upper: true}, visOf(v))

	require.NoError(t, v.MoveTo(mgl32.Vec3{-4, 0.15, 3}))
	assert.Equal(t, visState{lower: true, upper: true}, visOf(v))
	assert.Equal(t, mgl32.Vec3{-4, 0.15, 3}, v.Camera.Position)
	assert.Equal(t, mgl32.Vec3{0, 0.15, 0}, v.Camera.Target)
	assert.Len(t, v.Scene.Meshes(), 2)
}

func TestToggleNeverHidesBoth(t *testing.T) {
	v, _ := newTestViewer(t, newInstantLoader())

	require.NoError(t, v.ToggleSlot(Mandibular))
	assert.Equal(t, visState{lower: false, upper: true}, visOf(v))

	// hiding the remaining arch brings the other one back
	require.NoError(t, v.ToggleSlot(Maxillary))
	assert.Equal(t, visState{lower: true, upper: false}, visOf(v))

	sequence := []Slot{Mandibular, Mandibular, Maxillary, Mandibular, Maxillary, Maxillary, Mandibular}
	for i, s := range sequence {
		require.NoError(t, v.ToggleSlot(s))
		st := visOf(v)
		assert.True(t, st.lower || st.upper, "toggle %d left both hidden", i)
	}
}

func TestToggleRoundTrip(t *testing.T) {
	// every state reachable from "both visible" by toggles or camera moves
	setups := map[string][]Slot{
		"both":       nil,
		"lower only": {Maxillary},
		"upper only": {Mandibular},
		"swapped":    {Mandibular, Maxillary},
	}

	for name, setup := range setups {
		for _, slot := range []Slot{Mandibular, Maxillary} {
			t.Run(name+"/"+slot.String(), func(t *testing.T) {
				v, _ := newTestViewer(t, newInstantLoader())
				for _, s := range setup {
					require.NoError(t, v.ToggleSlot(s))
				}
				before := visOf(v)

				require.NoError(t, v.ToggleSlot(slot))
				require.NoError(t, v.ToggleSlot(slot))
				assert.Equal(t, before, visOf(v))
			})
		}
	}
}

func TestCameraMoveAlwaysShowsBoth(t *testing.T) {
	setups := [][]Slot{
		nil,
		{Mandibular},
		{Maxillary},
		{Mandibular, Maxillary},
	}
	for _, setup := range setups {
		v, _ := newTestViewer(t, newInstantLoader())
		for _, s := range setup {
			require.NoError(t, v.ToggleSlot(s))
		}
		require.NoError(t, v.Handle(CameraRight))
		assert.Equal(t, visState{lower: true, upper: true}, visOf(v), "setup %v", setup)

		// toggles after a move start from a clean state
		require.NoError(t, v.ToggleSlot(Maxillary))
		assert.Equal(t, visState{lower: true, upper: false}, visOf(v), "setup %v", setup)
	}
}

func TestExclusivePolicy(t *testing.T) {
	v, _ := newTestViewer(t, newInstantLoader(), func(o *Options) {
		o.Policy = PolicyExclusive
	})
	assert.Equal(t, PolicyExclusive, v.Visibility().Policy())

	require.NoError(t, v.ToggleSlot(Mandibular))
	assert.Equal(t, visState{lower: false, upper: false}, visOf(v))

	require.NoError(t, v.ToggleSlot(Mandibular))
	assert.Equal(t, visState{lower: true, upper: false}, visOf(v))

	require.NoError(t, v.ToggleSlot(Maxillary))
	assert.Equal(t, visState{lower: false, upper: true}, visOf(v))

	require.NoError(t, v.MoveTo(mgl32.Vec3{0, 0.15, 3}))
	assert.Equal(t, visState{lower: true, upper: true}, visOf(v))
}

func TestToggleInvalidSlot(t *testing.T) {
	v, _ := newTestViewer(t, newInstantLoader())
	assert.ErrorIs(t, v.ToggleSlot(Slot(-1)), ErrInvalidSlot)
	assert.Equal(t, visState{lower: true, upper: true}, visOf(v))
}

func TestParseVisibilityPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    VisibilityPolicy
		wantErr bool
	}{
		{"", PolicyKeepOneVisible, false},
		{"keep-one", PolicyKeepOneVisible, false},
		{"exclusive", PolicyExclusive, false},
		{"both", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseVisibilityPolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		if tt.in != "" {
			assert.Equal(t, tt.in, got.String())
		}
	}
}

func TestMoveToPreset(t *testing.T) {
	v, _ := newTestViewer(t, newInstantLoader())
	nav := v.Navigator()

	require.Len(t, nav.Presets(), 3)
	for _, p := range DefaultPresets() {
		require.NoError(t, nav.MoveToPreset(p.Name))
		assert.Equal(t, p.Position, v.Camera.Position, p.Name)
		assert.Equal(t, DefaultTarget, v.Camera.Target, p.Name)
	}

	before := v.Camera.Position
	require.NoError(t, v.ToggleSlot(Maxillary))
	err := nav.MoveToPreset("overhead")
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Equal(t, before, v.Camera.Position)
	assert.False(t, v.Visible(Maxillary), "failed move leaves visibility alone")
}

func TestCameraCommands(t *testing.T) {
	v, _ := newTestViewer(t, newInstantLoader())

	tests := []struct {
		cmd  Command
		want mgl32.Vec3
	}{
		{CameraLeft, mgl32.Vec3{-4, 0.15, 3}},
		{CameraRight, mgl32.Vec3{4, 0.15, 3}},
		{CameraCenter, mgl32.Vec3{0, 0.15, 3}},
	}
	for _, tt := range tests {
		require.NoError(t, v.Handle(tt.cmd))
		assert.Equal(t, tt.want, v.Camera.Position, tt.cmd.String())
	}
}
