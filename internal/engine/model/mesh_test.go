package model

import (
	"math"
	"testing"

	"github.com/Faultbox/archview/pkg/formats"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func approxVec(a, b [3]float32) bool {
	return approx(a[0], b[0]) && approx(a[1], b[1]) && approx(a[2], b[2])
}

func TestFromPLY(t *testing.T) {
	ply := &formats.PLY{
		Vertices: []formats.PLYVertex{
			{Position: [3]float32{0, 0, 0}, Color: [4]uint8{255, 0, 0, 255}},
			{Position: [3]float32{1, 0, 0}, Color: [4]uint8{0, 255, 0, 255}},
			{Position: [3]float32{0, 1, 0}, Color: [4]uint8{0, 0, 255, 255}},
		},
		Faces:     [][3]uint32{{0, 1, 2}},
		HasColors: true,
	}

	mesh := FromPLY(ply, DefaultBuildOptions())
	if mesh == nil {
		t.Fatal("FromPLY returned nil")
	}
	if len(mesh.Vertices) != 3 {
		t.Errorf("vertex count = %d, want 3", len(mesh.Vertices))
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("triangle count = %d, want 1", mesh.TriangleCount())
	}
	if mesh.Vertices[1].Color != [4]float32{0, 1, 0, 1} {
		t.Errorf("vertex 1 color = %v", mesh.Vertices[1].Color)
	}
	// CCW triangle in XY faces +Z
	for i, v := range mesh.Vertices {
		if !approxVec(v.Normal, [3]float32{0, 0, 1}) {
			t.Errorf("vertex %d normal = %v, want +Z", i, v.Normal)
		}
	}
	if mesh.Bounds.Max != [3]float32{1, 1, 0} {
		t.Errorf("bounds max = %v", mesh.Bounds.Max)
	}
}

func TestFromPLY_Defaults(t *testing.T) {
	ply := &formats.PLY{
		Vertices: []formats.PLYVertex{
			{Position: [3]float32{0, 0, 0}, Normal: [3]float32{1, 0, 0}},
			{Position: [3]float32{1, 0, 0}, Normal: [3]float32{1, 0, 0}},
			{Position: [3]float32{0, 1, 0}, Normal: [3]float32{1, 0, 0}},
		},
		Faces:      [][3]uint32{{0, 1, 2}},
		HasNormals: true,
	}

	tests := []struct {
		name       string
		opts       BuildOptions
		wantNormal [3]float32
	}{
		{"file normals", DefaultBuildOptions(), [3]float32{1, 0, 0}},
		{"recomputed", BuildOptions{RecomputeNormals: true, DefaultColor: [4]float32{1, 1, 1, 1}}, [3]float32{0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh := FromPLY(ply, tt.opts)
			if !approxVec(mesh.Vertices[0].Normal, tt.wantNormal) {
				t.Errorf("normal = %v, want %v", mesh.Vertices[0].Normal, tt.wantNormal)
			}
			if mesh.Vertices[0].Color != [4]float32{1, 1, 1, 1} {
				t.Errorf("color = %v, want white", mesh.Vertices[0].Color)
			}
		})
	}
}

func TestFromPLY_Empty(t *testing.T) {
	if mesh := FromPLY(&formats.PLY{}, DefaultBuildOptions()); mesh != nil {
		t.Errorf("expected nil mesh for empty PLY, got %+v", mesh)
	}
}

func TestComputeVertexNormals_AreaWeighted(t *testing.T) {
	// Vertex 0 is shared by a large +Z triangle and a small +X triangle.
	vertices := []Vertex{
		{Position: [3]float32{0, 0, 0}},
		{Position: [3]float32{4, 0, 0}},
		{Position: [3]float32{0, 4, 0}},
		{Position: [3]float32{0, 0.1, 0}},
		{Position: [3]float32{0, 0, 0.1}},
		{Position: [3]float32{9, 9, 9}}, // unreferenced
	}
	indices := []uint32{0, 1, 2, 0, 3, 4}

	ComputeVertexNormals(vertices, indices)

	n := vertices[0].Normal
	if n[2] <= n[0] {
		t.Errorf("shared normal %v should lean towards the larger face (+Z)", n)
	}
	if !approxVec(vertices[1].Normal, [3]float32{0, 0, 1}) {
		t.Errorf("vertex 1 normal = %v, want +Z", vertices[1].Normal)
	}
	if !approxVec(vertices[5].Normal, [3]float32{0, 1, 0}) {
		t.Errorf("unreferenced vertex normal = %v, want +Y", vertices[5].Normal)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds{Min: [3]float32{-1, 0, 2}, Max: [3]float32{3, 2, 4}}
	if got := b.Center(); got != [3]float32{1, 1, 3} {
		t.Errorf("Center() = %v", got)
	}
	if got := b.Size(); got != [3]float32{4, 2, 2} {
		t.Errorf("Size() = %v", got)
	}
}

func TestCrossAndNormalize(t *testing.T) {
	if got := Cross([3]float32{1, 0, 0}, [3]float32{0, 1, 0}); got != [3]float32{0, 0, 1} {
		t.Errorf("Cross(X, Y) = %v, want Z", got)
	}
	if got := Normalize([3]float32{0, 0, 0}); got != [3]float32{0, 1, 0} {
		t.Errorf("Normalize(0) = %v, want +Y", got)
	}
	if got := Normalize([3]float32{3, 0, 4}); !approxVec(got, [3]float32{0.6, 0, 0.8}) {
		t.Errorf("Normalize(3,0,4) = %v", got)
	}
}
