package tiled

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/tiledmap/tmx"
)

// Variant selects the vertex z source. Orthographic maps draw every chunk at
// z = 0; layered variants push the chunk's layer id into z.
type Variant int

const (
	VariantOrthographic Variant = iota
	VariantLayered
)

func VariantFor(o tmx.Orientation) Variant {
	if o == tmx.Isometric {
		return VariantLayered
	}
	return VariantOrthographic
}

// ChunkUniforms is everything the tile pipeline binds for one chunk draw.
type ChunkUniforms struct {
	ViewProj mgl32.Mat4
	Model    mgl32.Mat4
	LayerID  float32
}

// Clip returns ViewProj × Model × [x, y, LayerID, 1].
func (u ChunkUniforms) Clip(x, y float32) mgl32.Vec4 {
	return u.ViewProj.Mul4(u.Model).Mul4x1(mgl32.Vec4{x, y, u.LayerID, 1})
}

// ClipNoLayer returns ViewProj × Model × [x, y, 0, 1].
func (u ChunkUniforms) ClipNoLayer(x, y float32) mgl32.Vec4 {
	return u.ViewProj.Mul4(u.Model).Mul4x1(mgl32.Vec4{x, y, 0, 1})
}

func (u ChunkUniforms) ClipFor(v Variant, x, y float32) mgl32.Vec4 {
	if v == VariantLayered {
		return u.Clip(x, y)
	}
	return u.ClipNoLayer(x, y)
}

const (
	CameraBlockSize    = 64
	TransformBlockSize = 64
	ChunkBlockSize     = 16
)

// Binding is a desktop descriptor slot.
type Binding struct {
	Name    string
	Set     uint32
	Binding uint32
	Size    int
}

var Bindings = []Binding{
	{Name: "Camera", Set: 0, Binding: 0, Size: CameraBlockSize},
	{Name: "Transform", Set: 2, Binding: 0, Size: TransformBlockSize},
	{Name: "TileMapChunk", Set: 2, Binding: 1, Size: ChunkBlockSize},
}

// ESBlockNames are the uniform block names of the ES variants, whose binding
// indices are assigned by the driver.
var ESBlockNames = []string{"Camera", "Transform", "TileMapChunk"}

// Std140 packs the camera, transform and chunk blocks back to back, each in
// std140 layout. Matrices are column-major.
func (u ChunkUniforms) Std140() []byte {
	buf := make([]byte, 0, CameraBlockSize+TransformBlockSize+ChunkBlockSize)
	buf = appendMat4(buf, u.ViewProj)
	buf = appendMat4(buf, u.Model)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(u.LayerID))
	buf = append(buf, make([]byte, ChunkBlockSize-4)...)
	return buf
}

// Blocks splits Std140 output per binding.
func (u ChunkUniforms) Blocks() [][]byte {
	all := u.Std140()
	out := make([][]byte, 0, len(Bindings))
	off := 0
	for _, b := range Bindings {
		out = append(out, all[off:off+b.Size])
		off += b.Size
	}
	return out
}

func appendMat4(buf []byte, m mgl32.Mat4) []byte {
	for _, f := range m {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}
