// Package renderer draws a scene graph with OpenGL 4.1 core:
// a depth pass into the directional light's shadow map, then a lit color pass.
package renderer

import (
	"fmt"
	"math"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/archview/internal/engine/camera"
	"github.com/Faultbox/archview/internal/engine/model"
	"github.com/Faultbox/archview/internal/engine/scene"
	"github.com/Faultbox/archview/internal/engine/shader"
	"github.com/Faultbox/archview/internal/engine/shadow"
	"github.com/Faultbox/archview/internal/logger"
)

// shadowUnit is the texture unit the shadow map is bound to.
const shadowUnit = 0

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer draws scene graphs. All methods must be called on the GL thread.
type Renderer struct {
	config Config
	log    *zap.Logger

	meshProgram  *shader.Program
	depthProgram *shader.Program
	shadowMap    *shadow.Map

	meshes map[*model.Mesh]*gpuMesh
	ground *gpuMesh
}

// New initializes OpenGL and compiles the programs.
// It must be called after the GL context is current.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
		meshes: make(map[*model.Mesh]*gpuMesh),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.FRAMEBUFFER_SRGB)

	var err error
	r.meshProgram, err = shader.New(meshVertexShader, meshFragmentShader, meshUniforms...)
	if err != nil {
		return nil, fmt.Errorf("mesh program: %w", err)
	}
	r.depthProgram, err = shader.New(depthVertexShader, depthFragmentShader, depthUniforms...)
	if err != nil {
		r.meshProgram.Delete()
		return nil, fmt.Errorf("depth program: %w", err)
	}
	r.ground = uploadMesh(groundMesh())

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Render draws one frame of g as seen from cam. Nil arguments draw nothing.
func (r *Renderer) Render(g *scene.Graph, cam *camera.State) {
	if g == nil || cam == nil {
		return
	}
	r.release(g.TakeReleased())

	nodes := g.Meshes()
	lightSpace := shadow.LightMatrix(g.Sun, mgl32.Vec3{})
	shadows := g.Sun.CastShadow && r.ensureShadowMap(g.Sun.Shadow.Resolution)

	if shadows {
		r.depthPass(nodes, lightSpace)
	}

	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))
	bg := toLinear(g.Background)
	gl.ClearColor(bg[0], bg[1], bg[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	p := r.meshProgram
	p.Use()
	p.SetMat4("uView", cam.View())
	p.SetMat4("uProjection", cam.Projection())
	p.SetMat4("uLightSpace", lightSpace)
	p.SetVec3("uCameraPos", cam.Position)
	p.SetVec3("uSkyColor", scaled(toLinear(g.Hemisphere.Sky), g.Hemisphere.Intensity))
	p.SetVec3("uGroundColor", scaled(toLinear(g.Hemisphere.Ground), g.Hemisphere.Intensity))
	p.SetVec3("uLightDir", g.Sun.Direction())
	p.SetVec3("uLightColor", scaled(toLinear(g.Sun.Color), g.Sun.Intensity))
	p.SetFloat("uShadowBias", g.Sun.Shadow.Bias)
	p.SetInt("uShadowMap", shadowUnit)
	if shadows {
		p.SetInt("uShadowEnabled", 1)
		r.shadowMap.BindTexture(gl.TEXTURE0 + shadowUnit)
	} else {
		p.SetInt("uShadowEnabled", 0)
	}

	p.SetVec3("uTint", [3]float32{1, 1, 1})
	for _, n := range nodes {
		if gm := r.upload(n.Mesh); gm != nil {
			r.setModel(p, n.Transform())
			gm.draw()
		}
	}

	if r.ground != nil {
		p.SetVec3("uTint", toLinear(g.Ground.Color))
		r.setModel(p, g.Ground.Transform())
		r.ground.draw()
	}
}

func (r *Renderer) depthPass(nodes []*scene.Node, lightSpace mgl32.Mat4) {
	r.shadowMap.Begin()
	d := r.depthProgram
	d.Use()
	d.SetMat4("uLightSpace", lightSpace)
	for _, n := range nodes {
		if gm := r.upload(n.Mesh); gm != nil {
			d.SetMat4("uModel", n.Transform())
			gm.draw()
		}
	}
	r.shadowMap.End()
}

func (r *Renderer) setModel(p *shader.Program, m mgl32.Mat4) {
	p.SetMat4("uModel", m)
	p.SetMat3("uNormalMatrix", normalMatrix(m))
}

// upload returns the GPU buffers for m, creating them on first use.
func (r *Renderer) upload(m *model.Mesh) *gpuMesh {
	if gm, ok := r.meshes[m]; ok {
		return gm
	}
	gm := uploadMesh(m)
	if gm == nil {
		r.log.Warn("mesh has no triangles", zap.String("source", m.Source))
	}
	r.meshes[m] = gm
	r.log.Debug("mesh uploaded",
		zap.String("source", m.Source),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("triangles", m.TriangleCount()))
	return gm
}

func (r *Renderer) release(meshes []*model.Mesh) {
	for _, m := range meshes {
		gm, ok := r.meshes[m]
		if !ok {
			continue
		}
		if gm != nil {
			gm.destroy()
		}
		delete(r.meshes, m)
		r.log.Debug("mesh released", zap.String("source", m.Source))
	}
}

func (r *Renderer) ensureShadowMap(resolution int) bool {
	if r.shadowMap.IsValid() && int(r.shadowMap.Resolution) == resolution {
		return true
	}
	if r.shadowMap != nil {
		r.shadowMap.Destroy()
		r.shadowMap = nil
	}
	sm, err := shadow.NewMap(int32(resolution))
	if err != nil {
		r.log.Error("shadow map disabled", zap.Error(err))
		return false
	}
	r.shadowMap = sm
	return true
}

// Resize updates the output viewport.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Size returns the output size in pixels.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// ReadPixels returns the current back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

// Close frees all GPU resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer", zap.Int("meshes", len(r.meshes)))
	for m, gm := range r.meshes {
		if gm != nil {
			gm.destroy()
		}
		delete(r.meshes, m)
	}
	if r.ground != nil {
		r.ground.destroy()
		r.ground = nil
	}
	if r.shadowMap != nil {
		r.shadowMap.Destroy()
		r.shadowMap = nil
	}
	if r.meshProgram != nil {
		r.meshProgram.Delete()
	}
	if r.depthProgram != nil {
		r.depthProgram.Delete()
	}
}

// normalMatrix returns the inverse transpose of m's upper 3x3.
func normalMatrix(m mgl32.Mat4) mgl32.Mat3 {
	return m.Mat3().Inv().Transpose()
}

// toLinear converts an sRGB color to linear space.
func toLinear(c scene.Color) [3]float32 {
	var out [3]float32
	for i, v := range c {
		if v <= 0.04045 {
			out[i] = v / 12.92
		} else {
			out[i] = float32(math.Pow((float64(v)+0.055)/1.055, 2.4))
		}
	}
	return out
}

func scaled(c [3]float32, k float32) [3]float32 {
	return [3]float32{c[0] * k, c[1] * k, c[2] * k}
}
