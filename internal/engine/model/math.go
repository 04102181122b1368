package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Cross computes the cross product of two 3D vectors.
func Cross(a, b [3]float32) [3]float32 {
	return [3]float32(mgl32.Vec3(a).Cross(mgl32.Vec3(b)))
}

// Normalize returns a unit vector in the same direction as v.
// Degenerate vectors normalize to +Y.
func Normalize(v [3]float32) [3]float32 {
	vec := mgl32.Vec3(v)
	if vec.Len() < 0.0001 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32(vec.Normalize())
}

// TransformPoint applies a 4x4 matrix transformation to a 3D point.
func TransformPoint(m mgl32.Mat4, p [3]float32) [3]float32 {
	return [3]float32(mgl32.TransformCoordinate(mgl32.Vec3(p), m))
}
