package tiled

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/tiledmap/tmx"
)

func TestProjectionRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		iso  bool
		pos  mgl32.Vec2
		want mgl32.Vec2
	}{
		{name: "ortho_origin", pos: mgl32.Vec2{0, 0}, want: mgl32.Vec2{0, 0}},
		{name: "ortho", pos: mgl32.Vec2{3, 5}, want: mgl32.Vec2{96, -80}},
		{name: "iso_origin", iso: true, pos: mgl32.Vec2{0, 0}, want: mgl32.Vec2{0, 0}},
		{name: "iso", iso: true, pos: mgl32.Vec2{3, 5}, want: mgl32.Vec2{-32, -64}},
		{name: "iso_negative", iso: true, pos: mgl32.Vec2{-2, 1}, want: mgl32.Vec2{-48, 8}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got, back mgl32.Vec2
			if tc.iso {
				got = ProjectIso(tc.pos, 32, 16)
				back = UnprojectIso(got, 32, 16)
			} else {
				got = ProjectOrtho(tc.pos, 32, 16)
				back = UnprojectOrtho(got, 32, 16)
			}
			if got != tc.want {
				t.Fatalf("project %v: got %v want %v", tc.pos, got, tc.want)
			}
			if back != tc.pos {
				t.Fatalf("round trip %v: got %v", tc.pos, back)
			}
		})
	}
}

func TestUnprojectIsoRounds(t *testing.T) {
	p := ProjectIso(mgl32.Vec2{4, 2}, 32, 16).Add(mgl32.Vec2{3, -2})
	if got := UnprojectIso(p, 32, 16); got != (mgl32.Vec2{4, 2}) {
		t.Fatalf("expected nearest tile (4,2), got %v", got)
	}
}

func TestCornerUVs(t *testing.T) {
	unit := [4]float32{0, 0, 1, 1}
	tests := []struct {
		name string
		flip tmx.Flip
		want [4][2]float32
	}{
		{name: "none", want: [4][2]float32{{0, 1}, {0, 0}, {1, 0}, {1, 1}}},
		{name: "horizontal", flip: tmx.Flip{Horizontal: true}, want: [4][2]float32{{1, 1}, {1, 0}, {0, 0}, {0, 1}}},
		{name: "vertical", flip: tmx.Flip{Vertical: true}, want: [4][2]float32{{0, 0}, {0, 1}, {1, 1}, {1, 0}}},
		{name: "diagonal", flip: tmx.Flip{Diagonal: true}, want: [4][2]float32{{1, 0}, {0, 0}, {0, 1}, {1, 1}}},
		{name: "all", flip: tmx.Flip{Horizontal: true, Vertical: true, Diagonal: true}, want: [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CornerUVs(unit, tc.flip); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestAtlasMarginAndSpacing(t *testing.T) {
	a, ok := NewAtlas(&tmx.Tileset{
		FirstGID:   10,
		TileWidth:  16,
		TileHeight: 16,
		Margin:     2,
		Spacing:    1,
		Image:      &tmx.Image{Source: "set.png", Width: 70, Height: 70},
	})
	if !ok {
		t.Fatalf("expected atlas")
	}
	if a.Columns != 3 || a.TileCount != 9 {
		t.Fatalf("expected 3 columns and 9 tiles, got %d and %d", a.Columns, a.TileCount)
	}
	if x, y := a.SourceRect(4); x != 19 || y != 19 {
		t.Fatalf("expected source (19,19), got (%d,%d)", x, y)
	}
	uv := a.UVRect(4)
	want := [4]float32{19.0 / 70, 19.0 / 70, 35.0 / 70, 35.0 / 70}
	for i := range uv {
		if !near(uv[i], want[i]) {
			t.Fatalf("uv %v want %v", uv, want)
		}
	}
	if !a.Contains(18) || a.Contains(19) || a.Contains(9) {
		t.Fatalf("unexpected gid range for atlas starting at 10")
	}
	if !a.Contains(tmx.FlagFlipVertical | 10) {
		t.Fatalf("flip flags should be ignored")
	}
}

func TestAtlasRejectsCollections(t *testing.T) {
	if _, ok := NewAtlas(&tmx.Tileset{TileWidth: 16, TileHeight: 16}); ok {
		t.Fatalf("collection tileset should not produce an atlas")
	}
	if _, ok := NewAtlas(&tmx.Tileset{TileWidth: 16, TileHeight: 16, Image: &tmx.Image{Source: "a.png"}}); ok {
		t.Fatalf("tileset without image size should not produce an atlas")
	}
}

func TestMeshQuads(t *testing.T) {
	var m Mesh
	m.AddQuad([4]float32{0, 0, 1, 1}, CornerUVs([4]float32{0, 0, 1, 1}, tmx.Flip{}))
	m.AddQuad([4]float32{2, -1, 3, 4}, CornerUVs([4]float32{0, 0, 1, 1}, tmx.Flip{}))

	if m.QuadCount() != 2 {
		t.Fatalf("expected 2 quads, got %d", m.QuadCount())
	}
	if got := m.Indices[6:]; got[0] != 4 || got[1] != 6 || got[2] != 5 || got[3] != 4 || got[4] != 7 || got[5] != 6 {
		t.Fatalf("unexpected second quad indices %v", got)
	}
	lo, hi := m.Bounds()
	if lo != (mgl32.Vec2{0, -1}) || hi != (mgl32.Vec2{3, 4}) {
		t.Fatalf("unexpected bounds %v %v", lo, hi)
	}

	c := m.Clone()
	if !c.SetQuadUVs(1, [4][2]float32{}) {
		t.Fatalf("SetQuadUVs failed")
	}
	if m.UVs[4] == c.UVs[4] {
		t.Fatalf("clone should not share UVs")
	}
	if c.SetQuadUVs(2, [4][2]float32{}) {
		t.Fatalf("out of range quad should be rejected")
	}
}

func TestAnimationAdvance(t *testing.T) {
	a := NewAnimation([]tmx.Frame{{TileID: 3, Duration: 100}, {TileID: 4, Duration: 150}})

	steps := []struct {
		dt      time.Duration
		changed bool
		tile    uint32
		elapsed time.Duration
	}{
		{50 * time.Millisecond, false, 3, 50 * time.Millisecond},
		{60 * time.Millisecond, true, 4, 10 * time.Millisecond},
		{140 * time.Millisecond, true, 3, 0},
		{250 * time.Millisecond, false, 3, 0},
		{0, false, 3, 0},
	}
	for i, s := range steps {
		if got := a.Advance(s.dt); got != s.changed {
			t.Fatalf("step %d: changed = %v, want %v", i, got, s.changed)
		}
		if a.Frame().TileID != s.tile || a.Elapsed != s.elapsed {
			t.Fatalf("step %d: tile %d elapsed %v, want %d %v", i, a.Frame().TileID, a.Elapsed, s.tile, s.elapsed)
		}
	}
}

func TestAnimationZeroDurationHolds(t *testing.T) {
	a := NewAnimation([]tmx.Frame{{TileID: 1, Duration: 0}, {TileID: 2, Duration: 10}})
	if a.Advance(time.Second) || a.Current != 0 {
		t.Fatalf("zero length frame should hold")
	}
}
