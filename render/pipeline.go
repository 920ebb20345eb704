package render

import (
	_ "embed"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tiledmap/tiled"
	"github.com/milk9111/tiledmap/tmx"
)

//go:embed tile_map.kage
var tileMapShaderSrc []byte

// maxQuadsPerDraw keeps a batch's vertex indices inside uint16.
const maxQuadsPerDraw = 16383

// Pipeline draws chunk meshes with the tile shader.
type Pipeline struct {
	shader *ebiten.Shader
	Linear bool
}

func NewPipeline() (*Pipeline, error) {
	sh, err := ebiten.NewShader(tileMapShaderSrc)
	if err != nil {
		return nil, fmt.Errorf("render: compile tile shader: %w", err)
	}
	return &Pipeline{shader: sh}, nil
}

// DrawParams is one mesh draw.
type DrawParams struct {
	Mesh     *tiled.Mesh
	Image    *ebiten.Image
	Uniforms tiled.ChunkUniforms
	Variant  tiled.Variant
	Opacity  float32
	// Tint multiplies the sampled colour. The zero value means white.
	Tint [4]float32
}

// Draw renders p.Mesh onto dst, splitting large meshes into several calls.
func (pl *Pipeline) Draw(dst *ebiten.Image, p DrawParams) {
	if pl == nil || dst == nil || p.Image == nil || p.Mesh.QuadCount() == 0 {
		return
	}
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	iw, ih := p.Image.Bounds().Dx(), p.Image.Bounds().Dy()
	verts := ScreenVertices(p.Mesh, p.Uniforms, p.Variant, w, h, iw, ih)

	tint := p.Tint
	if tint == ([4]float32{}) {
		tint = [4]float32{1, 1, 1, 1}
	}
	linear := float32(0)
	if pl.Linear {
		linear = 1
	}
	opts := &ebiten.DrawTrianglesShaderOptions{
		Uniforms: map[string]any{
			"Opacity": p.Opacity,
			"Tint":    tint[:],
			"Linear":  linear,
		},
	}
	opts.Images[0] = p.Image

	for _, b := range Batches(p.Mesh) {
		dst.DrawTrianglesShader(verts[b.FirstVertex:b.FirstVertex+b.VertexCount], b.Indices, pl.shader, opts)
	}
}

// ClipToScreen maps clip space to pixels with y pointing down.
func ClipToScreen(c mgl32.Vec4, w, h int) (float32, float32) {
	x, y := c.X(), c.Y()
	if c.W() != 0 && c.W() != 1 {
		x, y = x/c.W(), y/c.W()
	}
	return (x + 1) / 2 * float32(w), (1 - y) / 2 * float32(h)
}

// ScreenVertices transforms mesh positions through the chunk uniforms into
// destination pixels. UVs become source pixels of a srcW x srcH image.
func ScreenVertices(m *tiled.Mesh, u tiled.ChunkUniforms, v tiled.Variant, w, h, srcW, srcH int) []ebiten.Vertex {
	if m == nil {
		return nil
	}
	out := make([]ebiten.Vertex, len(m.Positions))
	for i, p := range m.Positions {
		sx, sy := ClipToScreen(u.ClipFor(v, p[0], p[1]), w, h)
		uv := m.UVs[i]
		out[i] = ebiten.Vertex{
			DstX:   sx,
			DstY:   sy,
			SrcX:   uv[0] * float32(srcW),
			SrcY:   uv[1] * float32(srcH),
			ColorR: 1,
			ColorG: 1,
			ColorB: 1,
			ColorA: 1,
		}
	}
	return out
}

// Batch is a run of whole quads with indices rebased to FirstVertex.
type Batch struct {
	FirstVertex int
	VertexCount int
	Indices     []uint16
}

func Batches(m *tiled.Mesh) []Batch {
	quads := m.QuadCount()
	if quads == 0 {
		return nil
	}
	var out []Batch
	for q := 0; q < quads; q += maxQuadsPerDraw {
		n := min(maxQuadsPerDraw, quads-q)
		base := uint32(q * 4)
		idx := make([]uint16, 0, n*6)
		for _, i := range m.Indices[q*6 : (q+n)*6] {
			idx = append(idx, uint16(i-base))
		}
		out = append(out, Batch{FirstVertex: int(base), VertexCount: n * 4, Indices: idx})
	}
	return out
}

// CameraViewProj is an orthographic projection of a w x h view centred on
// (x, y). Zoom <= 0 is treated as 1.
func CameraViewProj(x, y, zoom float32, w, h int) mgl32.Mat4 {
	if zoom <= 0 {
		zoom = 1
	}
	hw := float32(w) / 2 / zoom
	hh := float32(h) / 2 / zoom
	return mgl32.Ortho(x-hw, x+hw, y-hh, y+hh, -1000, 1000)
}

// SpriteMesh is a single quad of size w x h centred on the origin, sampling
// uv with flips applied.
func SpriteMesh(w, h float32, uv [4]float32, flip tmx.Flip) *tiled.Mesh {
	m := &tiled.Mesh{}
	m.AddQuad([4]float32{-w / 2, -h / 2, w / 2, h / 2}, tiled.CornerUVs(uv, flip))
	return m
}
