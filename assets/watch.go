package assets

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceWindow = 100 * time.Millisecond

// Watcher reports changed files below a directory tree. Events carry the
// absolute or root-joined file name as fsnotify reports it.
type Watcher struct {
	watcher *fsnotify.Watcher
	exts    []string
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher watches root and every directory below it. When exts is non-empty
// only files with one of those extensions are reported.
func NewWatcher(root string, exts ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher: w,
		exts:    normalizeExts(exts),
		Events:  make(chan string, 64),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	d := newDebouncer(debounceWindow)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
				_ = w.watcher.Add(event.Name)
				continue
			}
			if !w.wants(event.Name) {
				continue
			}
			now := time.Now()
			d.touch(event.Name, now)
			if wait, ok := d.next(now); ok {
				timer.Reset(wait)
			}
		case now := <-timer.C:
			for _, name := range d.due(now) {
				select {
				case w.Events <- name:
				case <-w.closeCh:
					return
				}
			}
			if wait, ok := d.next(time.Now()); ok {
				timer.Reset(wait)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// debouncer holds each path until no event has touched it for window, so an
// editor's burst of writes is reported once after the last one.
type debouncer struct {
	window time.Duration
	last   map[string]time.Time
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window, last: map[string]time.Time{}}
}

func (d *debouncer) touch(name string, now time.Time) {
	d.last[name] = now
}

// due removes and returns the paths that have been quiet for the window.
func (d *debouncer) due(now time.Time) []string {
	var out []string
	for name, t := range d.last {
		if now.Sub(t) >= d.window {
			out = append(out, name)
			delete(d.last, name)
		}
	}
	slices.Sort(out)
	return out
}

// next is the wait until the earliest pending path is due.
func (d *debouncer) next(now time.Time) (time.Duration, bool) {
	if len(d.last) == 0 {
		return 0, false
	}
	var earliest time.Time
	for _, t := range d.last {
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}
	return max(earliest.Add(d.window).Sub(now), 0), true
}

func (w *Watcher) wants(name string) bool {
	if len(w.exts) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return slices.Contains(w.exts, ext)
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
