package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/tiledmap/tiled"
	"github.com/milk9111/tiledmap/tmx"
)

func TestScreenVertices(t *testing.T) {
	m := &tiled.Mesh{}
	m.AddQuad([4]float32{-1, -1, 1, 1}, tiled.CornerUVs([4]float32{0, 0, 0.5, 0.5}, tmx.Flip{}))
	u := tiled.ChunkUniforms{ViewProj: mgl32.Ident4(), Model: mgl32.Ident4()}

	verts := ScreenVertices(m, u, tiled.VariantOrthographic, 200, 100, 64, 32)
	want := []struct{ dx, dy, sx, sy float32 }{
		{0, 100, 0, 16},
		{0, 0, 0, 0},
		{200, 0, 32, 0},
		{200, 100, 32, 16},
	}
	for i, w := range want {
		v := verts[i]
		if v.DstX != w.dx || v.DstY != w.dy || v.SrcX != w.sx || v.SrcY != w.sy {
			t.Fatalf("vertex %d: got (%v,%v)/(%v,%v) want %+v", i, v.DstX, v.DstY, v.SrcX, v.SrcY, w)
		}
		if v.ColorA != 1 {
			t.Fatalf("vertex colour should be opaque white")
		}
	}
}

func TestCameraViewProj(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float32
		zoom   float32
		world  mgl32.Vec2
		screen [2]float32
	}{
		{name: "centre", x: 50, y: 20, zoom: 1, world: mgl32.Vec2{50, 20}, screen: [2]float32{160, 120}},
		{name: "top_left", x: 0, y: 0, zoom: 1, world: mgl32.Vec2{-160, 120}, screen: [2]float32{0, 0}},
		{name: "zoomed", x: 0, y: 0, zoom: 2, world: mgl32.Vec2{80, -60}, screen: [2]float32{320, 240}},
		{name: "zero_zoom", x: 0, y: 0, zoom: 0, world: mgl32.Vec2{160, 0}, screen: [2]float32{320, 120}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vp := CameraViewProj(tc.x, tc.y, tc.zoom, 320, 240)
			sx, sy := ClipToScreen(vp.Mul4x1(mgl32.Vec4{tc.world.X(), tc.world.Y(), 0, 1}), 320, 240)
			if d := sx - tc.screen[0]; d > 1e-3 || d < -1e-3 {
				t.Fatalf("x: got %v want %v", sx, tc.screen[0])
			}
			if d := sy - tc.screen[1]; d > 1e-3 || d < -1e-3 {
				t.Fatalf("y: got %v want %v", sy, tc.screen[1])
			}
		})
	}
}

func TestBatchesSplitLargeMeshes(t *testing.T) {
	m := &tiled.Mesh{}
	total := maxQuadsPerDraw + 2
	for i := 0; i < total; i++ {
		m.AddQuad([4]float32{0, 0, 1, 1}, [4][2]float32{})
	}

	batches := Batches(m)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	first, second := batches[0], batches[1]
	if first.FirstVertex != 0 || first.VertexCount != maxQuadsPerDraw*4 || len(first.Indices) != maxQuadsPerDraw*6 {
		t.Fatalf("unexpected first batch %d %d %d", first.FirstVertex, first.VertexCount, len(first.Indices))
	}
	if second.FirstVertex != maxQuadsPerDraw*4 || second.VertexCount != 8 {
		t.Fatalf("unexpected second batch %d %d", second.FirstVertex, second.VertexCount)
	}
	want := []uint16{0, 2, 1, 0, 3, 2, 4, 6, 5, 4, 7, 6}
	for i, v := range want {
		if second.Indices[i] != v {
			t.Fatalf("second batch indices %v, want %v", second.Indices, want)
		}
	}
	for _, b := range batches {
		for _, i := range b.Indices {
			if int(i) >= b.VertexCount {
				t.Fatalf("index %d out of batch range %d", i, b.VertexCount)
			}
		}
	}
	if Batches(&tiled.Mesh{}) != nil {
		t.Fatalf("empty mesh should produce no batches")
	}
}

func TestSpriteMeshFlip(t *testing.T) {
	m := SpriteMesh(16, 8, [4]float32{0, 0, 1, 1}, tmx.Flip{Horizontal: true})
	if m.Positions[0] != [3]float32{-8, -4, 0} || m.Positions[2] != [3]float32{8, 4, 0} {
		t.Fatalf("unexpected positions %v", m.Positions)
	}
	if m.UVs[0] != [2]float32{1, 1} {
		t.Fatalf("expected flipped bottom-left uv, got %v", m.UVs[0])
	}
}
