package tiled

import (
	"encoding/binary"
	"math"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/tiledmap/tmx"
)

func TestChunkUniformsClip(t *testing.T) {
	u := ChunkUniforms{
		ViewProj: mgl32.Ident4(),
		Model:    mgl32.Translate3D(10, 0, 0),
		LayerID:  3,
	}
	if got := u.Clip(1, 2); got != (mgl32.Vec4{11, 2, 3, 1}) {
		t.Fatalf("Clip = %v", got)
	}
	if got := u.ClipNoLayer(1, 2); got != (mgl32.Vec4{11, 2, 0, 1}) {
		t.Fatalf("ClipNoLayer = %v", got)
	}
	if u.ClipFor(VariantFor(tmx.Orthogonal), 1, 2).Z() != 0 {
		t.Fatalf("orthographic variant should ignore the layer id")
	}
	if u.ClipFor(VariantFor(tmx.Isometric), 1, 2).Z() != 3 {
		t.Fatalf("layered variant should use the layer id")
	}
}

func TestChunkUniformsStd140(t *testing.T) {
	u := ChunkUniforms{
		ViewProj: mgl32.Ident4(),
		Model:    mgl32.Translate3D(10, 20, 0),
		LayerID:  3,
	}
	b := u.Std140()
	if len(b) != 144 {
		t.Fatalf("expected 144 bytes, got %d", len(b))
	}

	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
	}
	tests := []struct {
		name string
		off  int
		want float32
	}{
		{"view_proj_m00", 0, 1},
		{"view_proj_m10", 4, 0},
		{"model_tx", 64 + 48, 10},
		{"model_ty", 64 + 52, 20},
		{"layer_id", 128, 3},
		{"padding", 140, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f(tc.off); got != tc.want {
				t.Fatalf("offset %d: got %v want %v", tc.off, got, tc.want)
			}
		})
	}

	blocks := u.Blocks()
	if len(blocks) != 3 || len(blocks[0]) != 64 || len(blocks[1]) != 64 || len(blocks[2]) != 16 {
		t.Fatalf("unexpected block split")
	}
}

func TestBindings(t *testing.T) {
	want := []Binding{
		{Name: "Camera", Set: 0, Binding: 0, Size: 64},
		{Name: "Transform", Set: 2, Binding: 0, Size: 64},
		{Name: "TileMapChunk", Set: 2, Binding: 1, Size: 16},
	}
	if !slices.Equal(Bindings, want) {
		t.Fatalf("Bindings = %+v, want %+v", Bindings, want)
	}
	if !slices.Equal(ESBlockNames, []string{"Camera", "Transform", "TileMapChunk"}) {
		t.Fatalf("ESBlockNames = %v", ESBlockNames)
	}
	for i, b := range Bindings {
		if ESBlockNames[i] != b.Name {
			t.Fatalf("ES block %d is %q, desktop binding is %q", i, ESBlockNames[i], b.Name)
		}
	}
}
