package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/archview/internal/engine/model"
)

func TestSlot(t *testing.T) {
	assert.Equal(t, "mandibular", Mandibular.String())
	assert.Equal(t, "maxillary", Maxillary.String())
	assert.Equal(t, "Slot(7)", Slot(7).String())
	assert.Equal(t, Maxillary, Mandibular.Other())
	assert.Equal(t, Mandibular, Maxillary.Other())
	assert.True(t, Mandibular.Valid())
	assert.False(t, Slot(-1).Valid())
}

func TestHex(t *testing.T) {
	assert.Equal(t, Color{1, 0, 0}, Hex(0xff0000))
	assert.InDelta(t, 0x28/255.0, Hex(0x282828)[1], 1e-6)
	assert.Equal(t, Color{0, 0, 0}, Hex(0x000))
}

func TestNewLightRig(t *testing.T) {
	g := New(DefaultConfig())

	assert.Equal(t, Hex(0x282828), g.Background)
	assert.Equal(t, float32(-0.5), g.Ground.Y)
	assert.Equal(t, Hex(0x443333), g.Hemisphere.Sky)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, g.Sun.Position)
	assert.True(t, g.Sun.CastShadow)
	assert.Equal(t, 1024, g.Sun.Shadow.Resolution)
	assert.Equal(t, float32(-0.001), g.Sun.Shadow.Bias)
	assert.Equal(t, float32(1), g.Sun.Shadow.Near)
	assert.Equal(t, float32(4), g.Sun.Shadow.Far)

	d := g.Sun.Direction()
	assert.InDelta(t, -0.57735, d.X(), 1e-4)
	assert.Empty(t, g.Nodes())
}

func TestGroundTransform(t *testing.T) {
	g := Ground{Y: -0.5, Size: 2}
	// Unit quad corner (1,1,0) lands on the horizontal plane
	p := mgl32.TransformCoordinate(mgl32.Vec3{1, 1, 0}, g.Transform())
	assert.InDelta(t, 2, p.X(), 1e-5)
	assert.InDelta(t, -0.5, p.Y(), 1e-5)
	assert.InDelta(t, -2, p.Z(), 1e-5)
}

func TestReplaceKeepsOneNodePerSlot(t *testing.T) {
	g := New(DefaultConfig())
	m1 := &model.Mesh{Source: "a"}
	m2 := &model.Mesh{Source: "b"}

	prev := g.Replace(Mandibular, &Node{Mesh: m1, Visible: true, Scale: 0.02})
	assert.Nil(t, prev)

	prev = g.Replace(Mandibular, &Node{Mesh: m2, Visible: true, Scale: 0.02})
	require.NotNil(t, prev)
	assert.Same(t, m1, prev.Mesh)
	assert.Same(t, m2, g.Node(Mandibular).Mesh)
	assert.Len(t, g.Nodes(), 1)

	assert.Equal(t, []*model.Mesh{m1}, g.TakeReleased())
	assert.Nil(t, g.TakeReleased())
}

func TestTakeReleasedSkipsSharedMeshes(t *testing.T) {
	g := New(DefaultConfig())
	shared := &model.Mesh{}

	g.Replace(Mandibular, &Node{Mesh: shared})
	g.Replace(Maxillary, &Node{Mesh: shared})
	g.Replace(Mandibular, &Node{Mesh: &model.Mesh{}})

	// Still bound to the maxillary slot
	assert.Empty(t, g.TakeReleased())

	g.Detach(Maxillary)
	assert.Equal(t, []*model.Mesh{shared}, g.TakeReleased())
}

func TestReplaceSameMeshIsNotReleased(t *testing.T) {
	g := New(DefaultConfig())
	m := &model.Mesh{}

	g.Replace(Maxillary, &Node{Mesh: m})
	g.Replace(Maxillary, &Node{Mesh: m, Visible: true})
	assert.Empty(t, g.TakeReleased())
}

func TestMeshesFiltersHidden(t *testing.T) {
	g := New(DefaultConfig())
	lower := &Node{Mesh: &model.Mesh{}, Visible: false}
	upper := &Node{Mesh: &model.Mesh{}, Visible: true}
	g.Replace(Maxillary, upper)
	g.Replace(Mandibular, lower)

	assert.Equal(t, []*Node{lower, upper}, g.Nodes())
	assert.Equal(t, []*Node{upper}, g.Meshes())

	lower.Visible = true
	assert.Equal(t, []*Node{lower, upper}, g.Meshes())
}

func TestInvalidSlot(t *testing.T) {
	g := New(DefaultConfig())
	assert.Nil(t, g.Replace(Slot(5), &Node{}))
	assert.Nil(t, g.Node(Slot(5)))
	assert.Empty(t, g.Nodes())
}

func TestNodeTransform(t *testing.T) {
	n := &Node{Scale: 0.02}
	p := mgl32.TransformCoordinate(mgl32.Vec3{100, -50, 10}, n.Transform())
	assert.InDelta(t, 2, p.X(), 1e-5)
	assert.InDelta(t, -1, p.Y(), 1e-5)
	assert.InDelta(t, 0.2, p.Z(), 1e-5)
}
