package model

import (
	"github.com/Faultbox/archview/pkg/formats"
)

// FromPLY creates a mesh from decoded PLY data.
// Returns nil if the file has no vertices.
func FromPLY(ply *formats.PLY, opts BuildOptions) *Mesh {
	if len(ply.Vertices) == 0 {
		return nil
	}

	vertices := make([]Vertex, len(ply.Vertices))
	for i, pv := range ply.Vertices {
		v := Vertex{
			Position: pv.Position,
			Color:    opts.DefaultColor,
		}
		if ply.HasNormals && !opts.RecomputeNormals {
			v.Normal = pv.Normal
		}
		if ply.HasColors {
			v.Color = [4]float32{
				float32(pv.Color[0]) / 255,
				float32(pv.Color[1]) / 255,
				float32(pv.Color[2]) / 255,
				float32(pv.Color[3]) / 255,
			}
		}
		vertices[i] = v
	}

	indices := make([]uint32, 0, len(ply.Faces)*3)
	for _, f := range ply.Faces {
		indices = append(indices, f[0], f[1], f[2])
	}

	if !ply.HasNormals || opts.RecomputeNormals {
		ComputeVertexNormals(vertices, indices)
	}

	lo, hi := ply.Bounds()
	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Bounds:   Bounds{Min: lo, Max: hi},
	}
}

// ComputeVertexNormals sets each vertex normal to the normalized sum of the
// unnormalized normals of its adjacent triangles, so larger faces weigh more.
// Vertices not referenced by any triangle get +Y.
func ComputeVertexNormals(vertices []Vertex, indices []uint32) {
	sums := make([][3]float32, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= len(vertices) || int(b) >= len(vertices) || int(c) >= len(vertices) {
			continue
		}
		p0 := vertices[a].Position
		p1 := vertices[b].Position
		p2 := vertices[c].Position
		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
		n := Cross(e1, e2)
		for _, idx := range [3]uint32{a, b, c} {
			sums[idx][0] += n[0]
			sums[idx][1] += n[1]
			sums[idx][2] += n[2]
		}
	}

	for i := range vertices {
		vertices[i].Normal = Normalize(sums[i])
	}
}
