package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/tiledmap/tiled"
	"github.com/milk9111/tiledmap/tmx"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ChunkSize != 32 || cfg.AssetRoot != "assets" || cfg.Filter != FilterNearest {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ObjectZOffset != 15 || cfg.ObjectDepthSpan != 2000 {
		t.Fatalf("unexpected object depth defaults %v %v", cfg.ObjectZOffset, cfg.ObjectDepthSpan)
	}
	if cfg.Watch || cfg.Center || cfg.DebugObjects {
		t.Fatalf("flags should default to false")
	}
}

func TestParseOverrides(t *testing.T) {
	data := `
chunk_size: 16
asset_root: data
watch: true
center: true
debug_objects: true
debug_color: "#00ff0080"
object_z_offset: 20
collision_types: [wall, spike]
scripts:
  door: scripts/door.tengo
filter: linear
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ChunkSize != 16 || cfg.AssetRoot != "data" || !cfg.Watch || !cfg.Center || !cfg.DebugObjects {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.DebugColor.RGBA != (color.RGBA{R: 0, G: 128, B: 0, A: 128}) {
		t.Fatalf("unexpected color %+v", cfg.DebugColor.RGBA)
	}
	if !cfg.IsCollisionType("spike") || cfg.IsCollisionType("door") || cfg.IsCollisionType("") {
		t.Fatalf("unexpected collision types %v", cfg.CollisionTypes)
	}
	if cfg.Scripts["door"] != "scripts/door.tengo" {
		t.Fatalf("unexpected scripts %v", cfg.Scripts)
	}
	opts := cfg.MapOptions()
	if opts.ChunkSize != 16 || opts.ZOffset != 20 || opts.DepthSpan != 2000 {
		t.Fatalf("unexpected map options %+v", opts)
	}
}

func TestZeroObjectZOffsetIsKept(t *testing.T) {
	cfg, err := Parse([]byte("object_z_offset: 0\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m, err := tiled.Build(&tmx.Map{
		Orientation: tmx.Orthogonal, Width: 1, Height: 1, TileWidth: 16, TileHeight: 16,
		Layers: []*tmx.Layer{{Kind: tmx.ObjectLayer, Name: "objects", Visible: true, Opacity: 1, Objects: []*tmx.Object{
			{X: 0, Y: 0, Shape: tmx.ShapePoint},
		}}},
	}, cfg.MapOptions())
	if err != nil {
		t.Fatal(err)
	}
	o := m.ObjectGroups[0].Objects[0]
	if z := o.TransformFromMap(m, mgl32.Ident4(), nil).At(2, 3); z > 0.01 || z < -0.01 {
		t.Fatalf("expected z near 0, got %v", z)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		invalid bool
	}{
		{name: "zero_chunk", data: "chunk_size: 0", invalid: true},
		{name: "negative_chunk", data: "chunk_size: -4", invalid: true},
		{name: "bad_filter", data: "filter: bilinear", invalid: true},
		{name: "bad_depth", data: "object_depth_span: 0", invalid: true},
		{name: "empty_script", data: "scripts: {door: \"\"}", invalid: true},
		{name: "bad_color", data: "debug_color: \"#12\""},
		{name: "bad_yaml", data: "chunk_size: [1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := errors.Is(err, ErrInvalidConfig); got != tc.invalid {
				t.Fatalf("errors.Is(ErrInvalidConfig) = %v, want %v: %v", got, tc.invalid, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tiledmap.yaml")
	if err := os.WriteFile(p, []byte("chunk_size: 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChunkSize != 8 {
		t.Fatalf("expected chunk size 8, got %d", cfg.ChunkSize)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
