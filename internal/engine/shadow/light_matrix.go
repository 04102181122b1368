package shadow

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/archview/internal/engine/scene"
)

// LightMatrix returns the light-space view-projection for a directional light.
// The light looks from its position toward target through its fixed
// orthographic shadow frustum.
func LightMatrix(light scene.DirectionalLight, target mgl32.Vec3) mgl32.Mat4 {
	sc := light.Shadow
	view := mgl32.LookAtV(light.Position, target, upFor(light.Position.Sub(target)))
	proj := mgl32.Ortho(sc.Left, sc.Right, sc.Bottom, sc.Top, sc.Near, sc.Far)
	return proj.Mul4(view)
}

// BiasMatrix maps clip space [-1,1] to texture space [0,1].
func BiasMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(0.5, 0.5, 0.5).Mul4(mgl32.Scale3D(0.5, 0.5, 0.5))
}

// upFor picks an up vector that is not parallel to dir.
func upFor(dir mgl32.Vec3) mgl32.Vec3 {
	if dir.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	if abs32(dir.Normalize().Y()) > 0.99 {
		return mgl32.Vec3{0, 0, 1}
	}
	return mgl32.Vec3{0, 1, 0}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
