package scripting

import (
	"errors"
	"io/fs"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/tiledmap/tiled"
	"github.com/milk9111/tiledmap/tmx"
)

type memFiles map[string]string

func (m memFiles) read(p string) ([]byte, error) {
	s, ok := m[p]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(s), nil
}

func door() tiled.Object {
	return tiled.Object{
		ID:       7,
		Name:     "front",
		Type:     "door",
		Shape:    tmx.ShapeRect,
		Position: mgl32.Vec2{32, 48},
		Size:     mgl32.Vec2{16, 32},
		Properties: tmx.Properties{
			{Name: "locked", Type: tmx.PropBool, Value: "true"},
			{Name: "key", Value: "red"},
		},
	}
}

func TestRunHook(t *testing.T) {
	files := memFiles{
		"scripts/door.tengo": `
if object.properties.locked {
	collider = "wall"
	tags = append(tags, "locked", object.properties.key)
}
z = object.y / 10
visible = object.name != "front"
`,
	}
	h := New(files.read, map[string]string{"door": "scripts/door.tengo"})

	out, ok, err := h.Run(door(), Result{Visible: true, Z: 15, Tags: []string{"spawned"}})
	if err != nil || !ok {
		t.Fatalf("Run: ok=%v err=%v", ok, err)
	}
	if out.Visible || out.Z != 4.8 || out.Collider != "wall" {
		t.Fatalf("unexpected result %+v", out)
	}
	if !slices.Equal(out.Tags, []string{"spawned", "locked", "red"}) {
		t.Fatalf("unexpected tags %v", out.Tags)
	}
}

func TestRunWithoutHook(t *testing.T) {
	h := New(memFiles{}.read, nil)
	in := Result{Visible: true, Z: 3}
	out, ok, err := h.Run(door(), in)
	if ok || err != nil || out.Z != 3 || !out.Visible {
		t.Fatalf("expected passthrough, got %+v ok=%v err=%v", out, ok, err)
	}
	if h.Has("door") {
		t.Fatalf("no hook should be registered")
	}
}

func TestRunErrorsKeepInput(t *testing.T) {
	tests := []struct {
		name  string
		files memFiles
	}{
		{name: "missing", files: memFiles{}},
		{name: "compile", files: memFiles{"door.tengo": "z = ("}},
		{name: "runtime", files: memFiles{"door.tengo": "d := 0\nz = 1 / d"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := New(tc.files.read, map[string]string{"door": "door.tengo"})
			in := Result{Visible: true, Z: 2}
			out, ok, err := h.Run(door(), in)
			if err == nil || !ok {
				t.Fatalf("expected error, got ok=%v err=%v", ok, err)
			}
			if out.Z != 2 || !out.Visible {
				t.Fatalf("input should be returned on error, got %+v", out)
			}
		})
	}
}

func TestInvalidateRecompiles(t *testing.T) {
	files := memFiles{"door.tengo": `collider = "one"`}
	h := New(files.read, map[string]string{"door": "./door.tengo"})

	out, _, err := h.Run(door(), Result{})
	if err != nil || out.Collider != "one" {
		t.Fatalf("first run: %+v %v", out, err)
	}

	files["door.tengo"] = `collider = "two"`
	out, _, _ = h.Run(door(), Result{})
	if out.Collider != "one" {
		t.Fatalf("script should stay cached until invalidated, got %q", out.Collider)
	}

	if n := h.Invalidate([]string{"door.tengo", "other.tengo"}); n != 1 {
		t.Fatalf("expected one invalidated script, got %d", n)
	}
	out, _, _ = h.Run(door(), Result{})
	if out.Collider != "two" {
		t.Fatalf("expected recompiled script, got %q", out.Collider)
	}

	delete(files, "door.tengo")
	h.Invalidate([]string{"door.tengo"})
	if _, _, err := h.Run(door(), Result{}); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestInvalidateAfterCompileError(t *testing.T) {
	files := memFiles{"door.tengo": "z = ("}
	h := New(files.read, map[string]string{"door": "door.tengo", "gate": "door.tengo"})

	if _, _, err := h.Run(door(), Result{}); err == nil {
		t.Fatalf("expected a compile error")
	}

	files["door.tengo"] = `collider = "fixed"`
	if n := h.Invalidate([]string{"./door.tengo", "door.tengo"}); n != 1 {
		t.Fatalf("a fixed script should count as changed once, got %d", n)
	}
	out, _, err := h.Run(door(), Result{})
	if err != nil || out.Collider != "fixed" {
		t.Fatalf("expected the fixed script to run, got %+v %v", out, err)
	}
	if n := h.Invalidate([]string{"unbound.tengo"}); n != 0 {
		t.Fatalf("unbound paths should not count, got %d", n)
	}
}
