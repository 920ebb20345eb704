package assets

import (
	"fmt"
	"log"
	"path"
	"slices"
	"strings"
	"sync"
)

type entry[T any] struct {
	path   string
	value  T
	loaded bool
	deps   []string
	gen    uint64
}

type result[T any] struct {
	id    uint32
	gen   uint64
	value T
	deps  []string
	err   error
}

// Store owns every asset of one type. Loads run on their own goroutine and
// land in the store on the next Update, so callers never block on IO.
type Store[T any] struct {
	server *Server
	loader Loader[T]

	mu      sync.Mutex
	next    uint32
	byPath  map[string]Handle[T]
	entries map[uint32]*entry[T]
	done    []result[T]
	pending []Event[T]
	wg      sync.WaitGroup

	events []Event[T]
}

func NewStore[T any](server *Server, loader Loader[T]) *Store[T] {
	return &Store[T]{
		server:  server,
		loader:  loader,
		byPath:  map[string]Handle[T]{},
		entries: map[uint32]*entry[T]{},
	}
}

func (s *Store[T]) Server() *Server {
	return s.server
}

// Load returns the handle for p, starting a load the first time p is seen.
func (s *Store[T]) Load(p string) Handle[T] {
	clean := cleanPath(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.byPath[clean]; ok {
		return h
	}
	s.next++
	h := Handle[T]{id: s.next}
	e := &entry[T]{path: clean}
	s.entries[h.id] = e
	s.byPath[clean] = h
	s.startLocked(h.id, e)
	return h
}

// Insert adds an already built asset. A Created event follows on the next
// Update.
func (s *Store[T]) Insert(p string, value T) Handle[T] {
	clean := cleanPath(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.byPath[clean]
	if !ok {
		s.next++
		h = Handle[T]{id: s.next}
		s.entries[h.id] = &entry[T]{path: clean}
		s.byPath[clean] = h
	}
	e := s.entries[h.id]
	kind := Created
	if e.loaded {
		kind = Modified
	}
	e.gen++
	e.value = value
	e.loaded = true
	s.pending = append(s.pending, Event[T]{Kind: kind, Handle: h})
	return h
}

func (s *Store[T]) startLocked(id uint32, e *entry[T]) {
	e.gen++
	gen, p := e.gen, e.path
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		value, deps, err := s.load(p)
		s.mu.Lock()
		s.done = append(s.done, result[T]{id: id, gen: gen, value: value, deps: deps, err: err})
		s.mu.Unlock()
	}()
}

func (s *Store[T]) load(p string) (T, []string, error) {
	var zero T
	if s.loader == nil {
		return zero, nil, fmt.Errorf("assets: no loader for %s", p)
	}
	if !s.accepts(p) {
		return zero, nil, fmt.Errorf("assets: %s: extension not handled by loader", p)
	}
	data, err := s.server.ReadFile(p)
	if err != nil {
		return zero, nil, err
	}
	ctx := NewLoadContext(s.server, p)
	value, err := s.loader.Load(ctx, data)
	if err != nil {
		return zero, nil, fmt.Errorf("assets: load %s: %w", p, err)
	}
	return value, ctx.Dependencies(), nil
}

func (s *Store[T]) accepts(p string) bool {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	for _, e := range s.loader.Extensions() {
		if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
			return true
		}
	}
	return false
}

// Wait blocks until every load started so far has finished. Results still
// need an Update to become visible.
func (s *Store[T]) Wait() {
	s.wg.Wait()
}

// Update applies finished loads and returns the events they produced.
func (s *Store[T]) Update() []Event[T] {
	s.mu.Lock()
	done := s.done
	s.done = nil
	events := s.pending
	s.pending = nil

	var failed []result[T]
	for _, r := range done {
		e, ok := s.entries[r.id]
		if !ok || e.gen != r.gen {
			continue
		}
		if r.err != nil {
			failed = append(failed, r)
			continue
		}
		kind := Created
		if e.loaded {
			kind = Modified
		}
		e.value = r.value
		e.deps = r.deps
		e.loaded = true
		events = append(events, Event[T]{Kind: kind, Handle: Handle[T]{id: r.id}})
	}
	s.events = events
	s.mu.Unlock()

	for _, r := range failed {
		log.Printf("assets: %v", r.err)
	}
	return events
}

// Events returns what the last Update produced.
func (s *Store[T]) Events() []Event[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

func (s *Store[T]) Get(h Handle[T]) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h.id]
	if !ok || !e.loaded {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (s *Store[T]) Path(h Handle[T]) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[h.id]; ok {
		return e.path
	}
	return ""
}

// Dependencies lists the files recorded while h was last loaded.
func (s *Store[T]) Dependencies(h Handle[T]) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[h.id]; ok {
		return slices.Clone(e.deps)
	}
	return nil
}

// Remove drops h. A Removed event follows on the next Update and any load
// still in flight is discarded.
func (s *Store[T]) Remove(h Handle[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h.id]
	if !ok {
		return false
	}
	delete(s.entries, h.id)
	delete(s.byPath, e.path)
	s.pending = append(s.pending, Event[T]{Kind: Removed, Handle: h})
	return true
}

// Reload restarts loads for assets whose own path or any dependency is in
// changed. It returns how many loads were started.
func (s *Store[T]) Reload(changed []string) int {
	if len(changed) == 0 {
		return 0
	}
	set := make(map[string]bool, len(changed))
	for _, p := range changed {
		set[cleanPath(p)] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		hit := set[e.path]
		for _, d := range e.deps {
			hit = hit || set[d]
		}
		if hit {
			s.startLocked(id, e)
			n++
		}
	}
	return n
}

// Len returns the number of tracked assets, loaded or not.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
