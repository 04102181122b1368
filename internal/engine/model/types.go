// Package model provides surface mesh building from decoded PLY data.
package model

// Vertex represents a mesh vertex with position, normal, and RGBA color (0..1).
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [4]float32
}

// VertexStride is the size in bytes of one Vertex in a GPU buffer.
const VertexStride = 4 * (3 + 3 + 4)

// Mesh holds the complete mesh data ready for GPU upload.
// A Mesh is immutable once built; it may be shared between slots.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
	Source   string
}

// TriangleCount returns the number of indexed triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the midpoint of the box.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the box extent along each axis.
func (b Bounds) Size() [3]float32 {
	return [3]float32{
		b.Max[0] - b.Min[0],
		b.Max[1] - b.Min[1],
		b.Max[2] - b.Min[2],
	}
}

// BuildOptions contains options for mesh building.
type BuildOptions struct {
	// RecomputeNormals ignores normals stored in the file.
	RecomputeNormals bool
	// DefaultColor is used when the file has no vertex colors.
	DefaultColor [4]float32
}

// DefaultBuildOptions returns white vertices and file normals when present.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{DefaultColor: [4]float32{1, 1, 1, 1}}
}
