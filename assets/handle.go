package assets

import "strconv"

// Handle is a typed reference into a Store. The zero value refers to nothing.
type Handle[T any] struct {
	id uint32
}

func (h Handle[T]) ID() uint32 {
	return h.id
}

func (h Handle[T]) Valid() bool {
	return h.id != 0
}

func (h Handle[T]) String() string {
	return "asset#" + strconv.FormatUint(uint64(h.id), 10)
}

type EventKind int

const (
	Created EventKind = iota
	Modified
	Removed
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

type Event[T any] struct {
	Kind   EventKind
	Handle Handle[T]
}

// Loader turns file bytes into an asset. Extensions are matched without the
// leading dot and case-insensitively.
type Loader[T any] interface {
	Extensions() []string
	Load(ctx *LoadContext, data []byte) (T, error)
}
