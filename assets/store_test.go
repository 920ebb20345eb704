package assets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

// textLoader reads "include:<rel>" lines through the context so tests can
// exercise dependency tracking.
type textLoader struct{}

func (textLoader) Extensions() []string { return []string{"txt"} }

func (textLoader) Load(ctx *LoadContext, data []byte) (string, error) {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if rel, ok := strings.CutPrefix(line, "include:"); ok {
			b, err := ctx.ReadFile(rel)
			if err != nil {
				return "", err
			}
			out = append(out, strings.TrimSpace(string(b)))
			continue
		}
		if line == "fail" {
			return "", errors.New("asked to fail")
		}
		out = append(out, line)
	}
	return strings.Join(out, "+"), nil
}

func newTestStore(fsys fstest.MapFS) *Store[string] {
	return NewStore[string](NewServerFS(fsys), textLoader{})
}

func settle[T any](s *Store[T]) []Event[T] {
	s.Wait()
	return s.Update()
}

func TestStoreLoadCreatesOnce(t *testing.T) {
	s := newTestStore(fstest.MapFS{"maps/a.txt": {Data: []byte("hello")}})

	h := s.Load("maps/a.txt")
	if !h.Valid() {
		t.Fatalf("expected valid handle")
	}
	if again := s.Load("./maps/a.txt"); again != h {
		t.Fatalf("Load should be idempotent per path, got %v and %v", h, again)
	}
	if _, ok := s.Get(h); ok {
		t.Fatalf("asset should not be visible before Update")
	}

	events := settle(s)
	if len(events) != 1 || events[0].Kind != Created || events[0].Handle != h {
		t.Fatalf("expected one Created event, got %v", events)
	}
	if v, ok := s.Get(h); !ok || v != "hello" {
		t.Fatalf("expected hello, got %q ok=%v", v, ok)
	}
	if got := s.Events(); len(got) != 1 {
		t.Fatalf("Events should mirror last Update, got %v", got)
	}
	if got := s.Update(); len(got) != 0 {
		t.Fatalf("expected no events on idle Update, got %v", got)
	}
}

func TestStoreReloadOnDependency(t *testing.T) {
	fsys := fstest.MapFS{
		"maps/a.txt":       {Data: []byte("top\ninclude:tiles/b.txt")},
		"maps/tiles/b.txt": {Data: []byte("one")},
	}
	s := newTestStore(fsys)
	h := s.Load("maps/a.txt")
	settle(s)

	deps := s.Dependencies(h)
	if len(deps) != 1 || deps[0] != "maps/tiles/b.txt" {
		t.Fatalf("expected dependency on maps/tiles/b.txt, got %v", deps)
	}

	fsys["maps/tiles/b.txt"] = &fstest.MapFile{Data: []byte("two")}
	if n := s.Reload([]string{"unrelated.png"}); n != 0 {
		t.Fatalf("unrelated change should not reload, started %d", n)
	}
	if n := s.Reload([]string{"maps/tiles/b.txt"}); n != 1 {
		t.Fatalf("expected 1 reload, got %d", n)
	}

	events := settle(s)
	if len(events) != 1 || events[0].Kind != Modified {
		t.Fatalf("expected Modified, got %v", events)
	}
	if v, _ := s.Get(h); v != "top+two" {
		t.Fatalf("expected reloaded value, got %q", v)
	}
}

func TestStoreLoadFailureKeepsPreviousValue(t *testing.T) {
	fsys := fstest.MapFS{"a.txt": {Data: []byte("ok")}}
	s := newTestStore(fsys)
	h := s.Load("a.txt")
	settle(s)

	fsys["a.txt"] = &fstest.MapFile{Data: []byte("fail")}
	s.Reload([]string{"a.txt"})
	if events := settle(s); len(events) != 0 {
		t.Fatalf("failed reload should not emit events, got %v", events)
	}
	if v, _ := s.Get(h); v != "ok" {
		t.Fatalf("expected previous value to survive, got %q", v)
	}
}

func TestStoreRejectsUnknownExtension(t *testing.T) {
	s := newTestStore(fstest.MapFS{"a.bin": {Data: []byte("x")}})
	h := s.Load("a.bin")
	if events := settle(s); len(events) != 0 {
		t.Fatalf("expected no events, got %v", events)
	}
	if _, ok := s.Get(h); ok {
		t.Fatalf("asset with unknown extension should not load")
	}
}

func TestStoreRemove(t *testing.T) {
	s := newTestStore(fstest.MapFS{"a.txt": {Data: []byte("x")}})
	h := s.Load("a.txt")
	settle(s)

	if !s.Remove(h) {
		t.Fatalf("Remove should succeed")
	}
	if s.Remove(h) {
		t.Fatalf("second Remove should fail")
	}
	events := s.Update()
	if len(events) != 1 || events[0].Kind != Removed || events[0].Handle != h {
		t.Fatalf("expected Removed event, got %v", events)
	}
	if _, ok := s.Get(h); ok {
		t.Fatalf("removed asset still visible")
	}
	if s.Path(h) != "" || s.Len() != 0 {
		t.Fatalf("removed asset still tracked")
	}
}

func TestStoreInsert(t *testing.T) {
	s := newTestStore(fstest.MapFS{})
	h := s.Insert("mem.txt", "a")
	h2 := s.Insert("mem.txt", "b")
	if h != h2 {
		t.Fatalf("Insert should reuse the handle for a path")
	}
	events := s.Update()
	if len(events) != 2 || events[0].Kind != Created || events[1].Kind != Modified {
		t.Fatalf("expected Created then Modified, got %v", events)
	}
	if v, _ := s.Get(h); v != "b" {
		t.Fatalf("expected latest value, got %q", v)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestServerDecodeImages(t *testing.T) {
	fsys := fstest.MapFS{
		"a.png":   {Data: pngBytes(t, 4, 2)},
		"b/c.png": {Data: pngBytes(t, 8, 8)},
		"bad.png": {Data: []byte("nope")},
	}
	srv := NewServerFS(fsys)

	imgs, err := srv.DecodeImages([]string{"a.png", "b/c.png"})
	if err != nil {
		t.Fatalf("DecodeImages: %v", err)
	}
	if b := imgs["a.png"].Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("unexpected bounds %v", b)
	}
	if _, ok := imgs["b/c.png"]; !ok {
		t.Fatalf("missing b/c.png in %v", imgs)
	}

	imgs, err = srv.DecodeImages([]string{"a.png", "bad.png", "missing.png"})
	var failed ImageErrors
	if !errors.As(err, &failed) {
		t.Fatalf("expected ImageErrors, got %v", err)
	}
	if len(failed) != 2 || failed["bad.png"] == nil || !errors.Is(failed["missing.png"], fs.ErrNotExist) {
		t.Fatalf("unexpected failures %v", failed)
	}
	if _, ok := imgs["a.png"]; !ok || len(imgs) != 1 {
		t.Fatalf("a good image should survive a bad one, got %v", imgs)
	}
}

func TestServerLoadImagesCaches(t *testing.T) {
	srv := NewServerFS(fstest.MapFS{
		"a.png":   {Data: pngBytes(t, 4, 2)},
		"bad.png": {Data: []byte("nope")},
	})

	first, err := srv.LoadImages([]string{"a.png", "./a.png", "bad.png"})
	var failed ImageErrors
	if !errors.As(err, &failed) || len(failed) != 1 || failed["bad.png"] == nil {
		t.Fatalf("expected bad.png to fail alone, got %v", err)
	}
	if b := first["a.png"].Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("unexpected bounds %v", b)
	}

	again, err := srv.LoadImages([]string{"a.png"})
	if err != nil || again["a.png"] != first["a.png"] {
		t.Fatalf("expected the cached image, got %v %v", again, err)
	}

	srv.Forget("a.png")
	fresh, err := srv.LoadImages([]string{"a.png"})
	if err != nil || fresh["a.png"] == first["a.png"] {
		t.Fatalf("Forget should force a new decode")
	}
}

func TestServerPollWithoutWatcher(t *testing.T) {
	srv := NewServerFS(fstest.MapFS{})
	if _, err := srv.Poll(); !errors.Is(err, ErrNotWatching) {
		t.Fatalf("expected ErrNotWatching, got %v", err)
	}
	if err := srv.WatchForChanges(); err == nil {
		t.Fatalf("expected error watching a server without a root")
	}
}

func TestServerWatchForChanges(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "maps"), 0o755); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(dir)
	if err := srv.WatchForChanges("tmx"); err != nil {
		t.Fatalf("WatchForChanges: %v", err)
	}
	defer srv.Close()

	if err := os.WriteFile(filepath.Join(dir, "maps", "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "maps", "level.tmx"), []byte("<map/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	var got []string
	for time.Now().Before(deadline) {
		changed, err := srv.Poll()
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		got = append(got, changed...)
		if len(got) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(got) == 0 || got[0] != "maps/level.tmx" {
		t.Fatalf("expected maps/level.tmx, got %v", got)
	}
	for _, p := range got {
		if strings.HasSuffix(p, ".txt") {
			t.Fatalf("extension filter let %s through", p)
		}
	}
}
