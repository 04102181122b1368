// Package scene holds the renderable state consumed by the renderer each frame:
// background, ground, light rig and one optional mesh per anatomical slot.
package scene

import (
	"fmt"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/archview/internal/engine/model"
)

// Slot identifies one of the two fixed anatomical display positions.
type Slot int

// Slots.
const (
	Mandibular Slot = iota // lower arch
	Maxillary              // upper arch
)

// SlotCount is the number of slots.
const SlotCount = 2

// Slots lists all slots in render order.
var Slots = [SlotCount]Slot{Mandibular, Maxillary}

// String returns the slot name.
func (s Slot) String() string {
	switch s {
	case Mandibular:
		return "mandibular"
	case Maxillary:
		return "maxillary"
	default:
		return fmt.Sprintf("Slot(%d)", int(s))
	}
}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	return s == Mandibular || s == Maxillary
}

// Other returns the opposite slot.
func (s Slot) Other() Slot {
	if s == Mandibular {
		return Maxillary
	}
	return Mandibular
}

// Color is a linear RGB color.
type Color [3]float32

// Hex converts a 0xRRGGBB value to a Color.
func Hex(v uint32) Color {
	return Color{
		float32((v>>16)&0xFF) / 255,
		float32((v>>8)&0xFF) / 255,
		float32(v&0xFF) / 255,
	}
}

// Node is a mesh placed in the scene.
type Node struct {
	Mesh    *model.Mesh
	Source  string
	Scale   float32
	Visible bool
}

// Transform returns the node's model matrix.
func (n *Node) Transform() mgl32.Mat4 {
	return mgl32.Scale3D(n.Scale, n.Scale, n.Scale)
}

// Ground is a square plane lying at height Y.
type Ground struct {
	Y     float32
	Size  float32
	Color Color
}

// Transform maps the unit XY quad onto the horizontal ground plane.
func (g Ground) Transform() mgl32.Mat4 {
	return mgl32.Translate3D(0, g.Y, 0).
		Mul4(mgl32.HomogRotate3DX(-gomath.Pi / 2)).
		Mul4(mgl32.Scale3D(g.Size, g.Size, 1))
}

// HemisphereLight blends between a sky and a ground color by surface normal.
type HemisphereLight struct {
	Sky       Color
	Ground    Color
	Intensity float32
}

// ShadowCamera is the orthographic frustum used for a light's shadow map.
type ShadowCamera struct {
	Left, Right, Bottom, Top float32
	Near, Far                float32
	Resolution               int
	Bias                     float32
}

// DirectionalLight shines from Position towards the origin.
type DirectionalLight struct {
	Position   mgl32.Vec3
	Color      Color
	Intensity  float32
	CastShadow bool
	Shadow     ShadowCamera
}

// Direction returns the normalized direction from the light towards the origin.
func (l DirectionalLight) Direction() mgl32.Vec3 {
	return l.Position.Mul(-1).Normalize()
}

// Config contains scene configuration options.
type Config struct {
	Background       uint32
	GroundY          float32
	GroundSize       float32
	ShadowResolution int
	ShadowBias       float32
}

// DefaultConfig returns the deployed scene configuration.
func DefaultConfig() Config {
	return Config{
		Background:       0x282828,
		GroundY:          -0.5,
		GroundSize:       0.00001,
		ShadowResolution: 1024,
		ShadowBias:       -0.001,
	}
}

// Graph is the full set of objects handed to the renderer each frame.
// It is not safe for concurrent use; all mutation happens on the frame loop.
type Graph struct {
	Background Color
	Ground     Ground
	Hemisphere HemisphereLight
	Sun        DirectionalLight

	slots    [SlotCount]*Node
	released []*model.Mesh
}

// New creates a graph with the fixed light rig and no meshes.
func New(cfg Config) *Graph {
	return &Graph{
		Background: Hex(cfg.Background),
		Ground: Ground{
			Y:     cfg.GroundY,
			Size:  cfg.GroundSize,
			Color: Hex(0x0f0f0f),
		},
		Hemisphere: HemisphereLight{
			Sky:       Hex(0x443333),
			Ground:    Hex(0x000000),
			Intensity: 1,
		},
		Sun: DirectionalLight{
			Position:   mgl32.Vec3{1, 1, 1},
			Color:      Hex(0xffffff),
			Intensity:  1,
			CastShadow: true,
			Shadow: ShadowCamera{
				Left: -1, Right: 1, Bottom: -1, Top: 1,
				Near: 1, Far: 4,
				Resolution: cfg.ShadowResolution,
				Bias:       cfg.ShadowBias,
			},
		},
	}
}

// Replace binds node to slot in one step and returns the node it displaced.
// A nil node detaches the slot.
func (g *Graph) Replace(slot Slot, node *Node) *Node {
	if !slot.Valid() {
		return nil
	}
	prev := g.slots[slot]
	g.slots[slot] = node
	if prev != nil && prev.Mesh != nil && (node == nil || node.Mesh != prev.Mesh) {
		g.released = append(g.released, prev.Mesh)
	}
	return prev
}

// Detach removes the slot's node, if any, and returns it.
func (g *Graph) Detach(slot Slot) *Node {
	return g.Replace(slot, nil)
}

// Node returns the node bound to slot, or nil.
func (g *Graph) Node(slot Slot) *Node {
	if !slot.Valid() {
		return nil
	}
	return g.slots[slot]
}

// Nodes returns the bound nodes in slot order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, SlotCount)
	for _, n := range g.slots {
		if n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Meshes returns the visible nodes that have a mesh, in slot order.
func (g *Graph) Meshes() []*Node {
	nodes := make([]*Node, 0, SlotCount)
	for _, n := range g.slots {
		if n != nil && n.Visible && n.Mesh != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// TakeReleased returns meshes detached since the last call that are no longer
// bound to any slot, so their GPU buffers can be freed.
func (g *Graph) TakeReleased() []*model.Mesh {
	if len(g.released) == 0 {
		return nil
	}
	out := make([]*model.Mesh, 0, len(g.released))
	seen := make(map[*model.Mesh]bool, len(g.released))
	for _, m := range g.released {
		if seen[m] || g.bound(m) {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	g.released = g.released[:0]
	return out
}

func (g *Graph) bound(m *model.Mesh) bool {
	for _, n := range g.slots {
		if n != nil && n.Mesh == m {
			return true
		}
	}
	return false
}
