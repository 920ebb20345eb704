package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

var ErrNotWatching = errors.New("assets: watcher not started")

// Server reads assets from one root. Paths are slash separated and relative
// to that root.
type Server struct {
	root string
	fsys fs.FS

	mu     sync.Mutex
	images map[string]*ebiten.Image

	watcher *Watcher
}

// NewServer serves files below dir on the local filesystem.
func NewServer(dir string) *Server {
	s := NewServerFS(os.DirFS(dir))
	s.root = dir
	return s
}

// NewServerFS serves files from fsys. Hot reload is unavailable since there is
// no directory to watch.
func NewServerFS(fsys fs.FS) *Server {
	return &Server{fsys: fsys, images: map[string]*ebiten.Image{}}
}

func (s *Server) Root() string {
	return s.root
}

func (s *Server) FS() fs.FS {
	return s.fsys
}

func (s *Server) ReadFile(p string) ([]byte, error) {
	clean := cleanPath(p)
	if clean == "" {
		return nil, fmt.Errorf("assets: empty path")
	}
	b, err := fs.ReadFile(s.fsys, clean)
	if err != nil {
		return nil, fmt.Errorf("assets: read %s: %w", clean, err)
	}
	return b, nil
}

// DecodeImage decodes PNG, JPEG, GIF, BMP or WebP data at p.
func (s *Server) DecodeImage(p string) (image.Image, error) {
	b, err := s.ReadFile(p)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("assets: decode %s: %w", cleanPath(p), err)
	}
	return img, nil
}

// ImageErrors maps each path that failed to load to its error.
type ImageErrors map[string]error

func (e ImageErrors) Error() string {
	paths := make([]string, 0, len(e))
	for p := range e {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	msgs := make([]string, 0, len(paths))
	for _, p := range paths {
		msgs = append(msgs, e[p].Error())
	}
	return strings.Join(msgs, "; ")
}

func (e ImageErrors) Unwrap() []error {
	out := make([]error, 0, len(e))
	for _, err := range e {
		out = append(out, err)
	}
	return out
}

// DecodeImages decodes every path concurrently. Images that decode are
// returned even when others fail; the failures come back as ImageErrors.
func (s *Server) DecodeImages(paths []string) (map[string]image.Image, error) {
	var (
		mu   sync.Mutex
		out  = make(map[string]image.Image, len(paths))
		errs = ImageErrors{}
		g    errgroup.Group
	)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, p := range paths {
		g.Go(func() error {
			img, err := s.DecodeImage(p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[cleanPath(p)] = err
				return nil
			}
			out[cleanPath(p)] = img
			return nil
		})
	}
	_ = g.Wait()
	if len(errs) > 0 {
		return out, errs
	}
	return out, nil
}

// LoadImages returns GPU images for paths, decoding the ones not cached yet
// in one batch. A failed path is missing from the result and listed in the
// returned ImageErrors.
func (s *Server) LoadImages(paths []string) (map[string]*ebiten.Image, error) {
	out := make(map[string]*ebiten.Image, len(paths))
	var missing []string

	s.mu.Lock()
	for _, p := range paths {
		clean := cleanPath(p)
		if img, ok := s.images[clean]; ok {
			out[clean] = img
		} else if !slices.Contains(missing, clean) {
			missing = append(missing, clean)
		}
	}
	s.mu.Unlock()
	if len(missing) == 0 {
		return out, nil
	}

	decoded, err := s.DecodeImages(missing)

	s.mu.Lock()
	defer s.mu.Unlock()
	for p, img := range decoded {
		eimg := ebiten.NewImageFromImage(img)
		s.images[p] = eimg
		out[p] = eimg
	}
	return out, err
}

// Forget drops cached images so the next load decodes them again.
func (s *Server) Forget(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.images, cleanPath(p))
	}
}

// WatchForChanges starts watching the root directory tree.
func (s *Server) WatchForChanges(exts ...string) error {
	if s.root == "" {
		return fmt.Errorf("assets: watch: server has no root directory")
	}
	if s.watcher != nil {
		return nil
	}
	w, err := NewWatcher(s.root, exts...)
	if err != nil {
		return fmt.Errorf("assets: watch %s: %w", s.root, err)
	}
	s.watcher = w
	return nil
}

// Poll returns root-relative paths changed since the last call without
// blocking.
func (s *Server) Poll() ([]string, error) {
	if s.watcher == nil {
		return nil, ErrNotWatching
	}
	var (
		out  []string
		seen = map[string]bool{}
	)
	for {
		select {
		case name, ok := <-s.watcher.Events:
			if !ok {
				return out, nil
			}
			rel, err := filepath.Rel(s.root, name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if !seen[rel] {
				seen[rel] = true
				out = append(out, rel)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return out, nil
			}
			if err != nil {
				return out, fmt.Errorf("assets: watch: %w", err)
			}
		default:
			return out, nil
		}
	}
}

func (s *Server) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}

func cleanPath(p string) string {
	p = strings.TrimSpace(filepath.ToSlash(p))
	if p == "" {
		return ""
	}
	p = path.Clean(strings.TrimPrefix(p, "/"))
	if p == "." {
		return ""
	}
	return p
}
