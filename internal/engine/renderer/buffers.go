package renderer

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/archview/internal/engine/model"
)

// attribute describes one float vertex attribute inside model.Vertex.
type attribute struct {
	location uint32
	size     int32
	offset   uintptr
}

var vertexLayout = []attribute{
	{location: 0, size: 3, offset: unsafe.Offsetof(model.Vertex{}.Position)},
	{location: 1, size: 3, offset: unsafe.Offsetof(model.Vertex{}.Normal)},
	{location: 2, size: 4, offset: unsafe.Offsetof(model.Vertex{}.Color)},
}

// gpuMesh is a mesh uploaded to GPU buffers.
type gpuMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

func uploadMesh(m *model.Mesh) *gpuMesh {
	if m == nil || len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return nil
	}
	g := &gpuMesh{indexCount: int32(len(m.Indices))}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*model.VertexStride,
		unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4,
		unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	for _, a := range vertexLayout {
		gl.VertexAttribPointerWithOffset(a.location, a.size, gl.FLOAT, false, model.VertexStride, a.offset)
		gl.EnableVertexAttribArray(a.location)
	}

	gl.BindVertexArray(0)
	return g
}

func (g *gpuMesh) draw() {
	gl.BindVertexArray(g.vao)
	gl.DrawElements(gl.TRIANGLES, g.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (g *gpuMesh) destroy() {
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
	}
	if g.vbo != 0 {
		gl.DeleteBuffers(1, &g.vbo)
	}
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
	}
	*g = gpuMesh{}
}

// groundMesh returns a white unit quad in the XY plane facing +Z.
// scene.Ground.Transform lays it flat.
func groundMesh() *model.Mesh {
	white := [4]float32{1, 1, 1, 1}
	normal := [3]float32{0, 0, 1}
	return &model.Mesh{
		Vertices: []model.Vertex{
			{Position: [3]float32{-0.5, -0.5, 0}, Normal: normal, Color: white},
			{Position: [3]float32{0.5, -0.5, 0}, Normal: normal, Color: white},
			{Position: [3]float32{0.5, 0.5, 0}, Normal: normal, Color: white},
			{Position: [3]float32{-0.5, 0.5, 0}, Normal: normal, Color: white},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
		Bounds: model.Bounds{
			Min: [3]float32{-0.5, -0.5, 0},
			Max: [3]float32{0.5, 0.5, 0},
		},
		Source: "ground",
	}
}
