package tiled

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/tiledmap/tmx"
)

// Mesh is an indexed triangle list. Each tile is one quad of four vertices in
// the order bottom-left, top-left, top-right, bottom-right.
type Mesh struct {
	Positions [][3]float32
	UVs       [][2]float32
	Indices   []uint32
}

// AddQuad appends a quad covering rect [x0, y0, x1, y1].
func (m *Mesh) AddQuad(rect [4]float32, uv [4][2]float32) {
	i := uint32(len(m.Positions))
	x0, y0, x1, y1 := rect[0], rect[1], rect[2], rect[3]
	m.Positions = append(m.Positions,
		[3]float32{x0, y0, 0},
		[3]float32{x0, y1, 0},
		[3]float32{x1, y1, 0},
		[3]float32{x1, y0, 0},
	)
	m.UVs = append(m.UVs, uv[0], uv[1], uv[2], uv[3])
	m.Indices = append(m.Indices, i, i+2, i+1, i, i+3, i+2)
}

func (m *Mesh) QuadCount() int {
	if m == nil {
		return 0
	}
	return len(m.Positions) / 4
}

// SetQuadUVs rewrites the texture coordinates of quad q.
func (m *Mesh) SetQuadUVs(q int, uv [4][2]float32) bool {
	if m == nil || q < 0 || q >= m.QuadCount() {
		return false
	}
	copy(m.UVs[q*4:q*4+4], uv[:])
	return true
}

func (m *Mesh) Clone() *Mesh {
	if m == nil {
		return nil
	}
	return &Mesh{
		Positions: slices.Clone(m.Positions),
		UVs:       slices.Clone(m.UVs),
		Indices:   slices.Clone(m.Indices),
	}
}

// Bounds returns the min and max vertex positions.
func (m *Mesh) Bounds() (mgl32.Vec2, mgl32.Vec2) {
	if m == nil || len(m.Positions) == 0 {
		return mgl32.Vec2{}, mgl32.Vec2{}
	}
	lo := mgl32.Vec2{m.Positions[0][0], m.Positions[0][1]}
	hi := lo
	for _, p := range m.Positions[1:] {
		lo[0] = min(lo[0], p[0])
		lo[1] = min(lo[1], p[1])
		hi[0] = max(hi[0], p[0])
		hi[1] = max(hi[1], p[1])
	}
	return lo, hi
}

// CornerUVs maps a UV rect [u0, v0, u1, v1] (v0 at the top of the image) onto
// the four quad corners, applying Tiled flips. Tiled flips the tile
// diagonally first, then horizontally, then vertically; sampling inverts that
// order.
func CornerUVs(uv [4]float32, flip tmx.Flip) [4][2]float32 {
	corners := [4][2]float32{
		{0, 1}, // bottom-left
		{0, 0}, // top-left
		{1, 0}, // top-right
		{1, 1}, // bottom-right
	}
	var out [4][2]float32
	for i, c := range corners {
		x, y := c[0], c[1]
		if flip.Vertical {
			y = 1 - y
		}
		if flip.Horizontal {
			x = 1 - x
		}
		if flip.Diagonal {
			x, y = y, x
		}
		out[i] = [2]float32{
			uv[0] + x*(uv[2]-uv[0]),
			uv[1] + y*(uv[3]-uv[1]),
		}
	}
	return out
}
