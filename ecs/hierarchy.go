package ecs

import "github.com/milk9111/tiledmap/ecs/component"

// Parent points at the entity this one is attached to.
type Parent struct {
	Entity Entity
}

// Children lists attached entities in insertion order.
type Children struct {
	Entities []Entity
}

var (
	ParentComponent   = component.NewComponent[Parent]()
	ChildrenComponent = component.NewComponent[Children]()
)

// SetParent attaches child under parent, detaching it from any previous parent.
func SetParent(w *World, child, parent Entity) error {
	if !w.IsAlive(child) || !w.IsAlive(parent) {
		return component.ErrEntityNotAlive
	}
	RemoveParent(w, child)
	if err := Add(w, child, ParentComponent, Parent{Entity: parent}); err != nil {
		return err
	}
	kids, ok := Get(w, parent, ChildrenComponent)
	if !ok {
		return Add(w, parent, ChildrenComponent, Children{Entities: []Entity{child}})
	}
	kids.Entities = append(kids.Entities, child)
	return nil
}

// RemoveParent detaches child from its parent, if it has one.
func RemoveParent(w *World, child Entity) {
	p, ok := Get(w, child, ParentComponent)
	if !ok {
		return
	}
	if kids, ok := Get(w, p.Entity, ChildrenComponent); ok {
		out := kids.Entities[:0]
		for _, c := range kids.Entities {
			if c != child {
				out = append(out, c)
			}
		}
		kids.Entities = out
	}
	Remove(w, child, ParentComponent)
}

// ChildrenOf returns a copy of e's live children.
func ChildrenOf(w *World, e Entity) []Entity {
	kids, ok := Get(w, e, ChildrenComponent)
	if !ok {
		return nil
	}
	out := make([]Entity, 0, len(kids.Entities))
	for _, c := range kids.Entities {
		if w.IsAlive(c) {
			out = append(out, c)
		}
	}
	return out
}

// DespawnChildren destroys every descendant of e but keeps e itself.
func DespawnChildren(w *World, e Entity) int {
	n := 0
	for _, c := range ChildrenOf(w, e) {
		n += despawnTree(w, c)
	}
	if kids, ok := Get(w, e, ChildrenComponent); ok {
		kids.Entities = kids.Entities[:0]
	}
	return n
}

// DespawnRecursive destroys e and all of its descendants, returning the count.
func DespawnRecursive(w *World, e Entity) int {
	if !w.IsAlive(e) {
		return 0
	}
	RemoveParent(w, e)
	return despawnTree(w, e)
}

func despawnTree(w *World, e Entity) int {
	n := 0
	for _, c := range ChildrenOf(w, e) {
		n += despawnTree(w, c)
	}
	if w.DestroyEntity(e) {
		n++
	}
	return n
}
