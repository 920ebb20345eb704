package system

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/tiledmap/ecs"
	"github.com/milk9111/tiledmap/ecs/component"
)

// TransformSystem writes GlobalTransform for every entity with a Transform,
// composing parent matrices down the hierarchy.
type TransformSystem struct{}

func NewTransformSystem() *TransformSystem {
	return &TransformSystem{}
}

func (s *TransformSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	for _, e := range w.Query(component.TransformComponent.Kind()) {
		if ecs.Has(w, e, ecs.ParentComponent) {
			continue
		}
		propagate(w, e, mgl32.Ident4())
	}
}

func propagate(w *ecs.World, e ecs.Entity, parent mgl32.Mat4) {
	global := parent
	if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
		global = parent.Mul4(t.Matrix())
	}
	if g, ok := ecs.Get(w, e, component.GlobalTransformComponent); ok {
		g.Matrix = global
	} else {
		_ = ecs.Add(w, e, component.GlobalTransformComponent, component.GlobalTransform{Matrix: global})
	}
	for _, c := range ecs.ChildrenOf(w, e) {
		propagate(w, c, global)
	}
}

// Hidden reports whether e or any ancestor carries a hidden Visible.
func Hidden(w *ecs.World, e ecs.Entity) bool {
	for e.Valid() && w.IsAlive(e) {
		if v, ok := ecs.Get(w, e, component.VisibleComponent); ok && v.Hidden {
			return true
		}
		p, ok := ecs.Get(w, e, ecs.ParentComponent)
		if !ok {
			return false
		}
		e = p.Entity
	}
	return false
}
