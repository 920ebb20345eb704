package system

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/tiledmap/assets"
	"github.com/milk9111/tiledmap/ecs"
	"github.com/milk9111/tiledmap/ecs/component"
	"github.com/milk9111/tiledmap/tiled"
	"github.com/milk9111/tiledmap/tmx"
)

// PhysicsSystem mirrors collider objects into a Chipmunk space as static
// shapes. Hosts add their own dynamic bodies through Space.
type PhysicsSystem struct {
	space *cp.Space
	maps  *assets.Store[*tiled.Map]
	step  float64

	entities map[ecs.Entity]*bodyInfo
	types    map[string]cp.CollisionType
}

type bodyInfo struct {
	body   *cp.Body
	shapes []*cp.Shape
}

func NewPhysicsSystem(maps *assets.Store[*tiled.Map]) *PhysicsSystem {
	space := cp.NewSpace()
	space.Iterations = 20
	return &PhysicsSystem{
		space:    space,
		maps:     maps,
		step:     1.0 / 60.0,
		entities: make(map[ecs.Entity]*bodyInfo),
		types:    make(map[string]cp.CollisionType),
	}
}

func (ps *PhysicsSystem) Space() *cp.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

// CollisionType returns the Chipmunk id of a collider name, assigning ids in
// first-seen order starting at 1.
func (ps *PhysicsSystem) CollisionType(name string) cp.CollisionType {
	if t, ok := ps.types[name]; ok {
		return t
	}
	t := cp.CollisionType(len(ps.types) + 1)
	ps.types[name] = t
	return t
}

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}
	ps.removeDead(w)
	ps.syncEntities(w)
	ps.space.Step(ps.step)
}

func (ps *PhysicsSystem) removeDead(w *ecs.World) {
	for e, info := range ps.entities {
		if w.IsAlive(e) {
			continue
		}
		for _, s := range info.shapes {
			ps.space.RemoveShape(s)
		}
		ps.space.RemoveBody(info.body)
		delete(ps.entities, e)
	}
}

func (ps *PhysicsSystem) syncEntities(w *ecs.World) {
	for _, e := range w.Query(component.MapObjectComponent.Kind()) {
		if _, ok := ps.entities[e]; ok {
			continue
		}
		obj, ok := ecs.Get(w, e, component.MapObjectComponent)
		if !ok || obj.Collider == "" {
			continue
		}
		m, ok := ps.maps.Get(obj.Map)
		if !ok {
			continue
		}

		// Shapes are built in world space, so the layer transform must be
		// known. Objects spawned this frame wait for the transform system.
		layer := mgl32.Ident4()
		if p, ok := ecs.Get(w, e, ecs.ParentComponent); ok {
			g, ok := ecs.Get(w, p.Entity, component.GlobalTransformComponent)
			if !ok {
				continue
			}
			layer = g.Matrix
		}

		pts, _ := obj.Object.Outline(m)
		world := make([]cp.Vector, 0, len(pts))
		for _, p := range pts {
			v := layer.Mul4x1(mgl32.Vec4{p.X(), p.Y(), 0, 1})
			world = append(world, cp.Vector{X: float64(v.X()), Y: float64(v.Y())})
		}

		body := cp.NewStaticBody()
		shapes := buildShapes(body, obj.Object, world, m.Orientation == tmx.Isometric)
		if len(shapes) == 0 {
			log.Printf("tiled: object %d (%s) has no collidable shape", obj.Object.ID, obj.Object.Shape)
			ps.entities[e] = &bodyInfo{body: body}
			continue
		}

		category, _ := obj.Object.Properties.Int("collision_category")
		mask, _ := obj.Object.Properties.Int("collision_mask")
		filter := cp.NewShapeFilter(cp.NO_GROUP, shapeBits(category, 1), shapeBits(mask, cp.ALL_CATEGORIES))
		ctype := ps.CollisionType(obj.Collider)

		ps.space.AddBody(body)
		for _, s := range shapes {
			s.SetCollisionType(ctype)
			s.SetFilter(filter)
			s.UserData = e
			ps.space.AddShape(s)
		}
		ps.entities[e] = &bodyInfo{body: body, shapes: shapes}
		_ = ecs.Add(w, e, component.PhysicsBodyComponent, component.PhysicsBody{
			Body:     body,
			Shapes:   shapes,
			Type:     obj.Collider,
			Category: uint32(shapeBits(category, 1)),
			Mask:     uint32(shapeBits(mask, cp.ALL_CATEGORIES)),
		})
	}
}

func shapeBits(v int, fallback uint) uint {
	if v <= 0 {
		return fallback
	}
	return uint(v)
}

// buildShapes turns a world-space outline into shapes on body. Rects become
// boxes and ellipses circles. Polygons become their convex hull and polylines
// a chain of segments. Isometric rects are diamonds, so they go in as hulls.
func buildShapes(body *cp.Body, obj tiled.Object, pts []cp.Vector, iso bool) []*cp.Shape {
	boxed := !obj.IsShape() || obj.Shape == tmx.ShapeRect || obj.Shape == tmx.ShapeText
	switch {
	case len(pts) == 0:
		return nil
	case boxed && iso:
		return []*cp.Shape{cp.NewPolyShape(body, len(pts), pts, cp.NewTransformIdentity(), 0)}
	case boxed:
		if len(pts) != 4 {
			return nil
		}
		w := pts[1].Sub(pts[0]).Length()
		h := pts[3].Sub(pts[0]).Length()
		if w <= 0 || h <= 0 {
			return nil
		}
		center := pts[0].Add(pts[2]).Mult(0.5)
		edge := pts[1].Sub(pts[0])
		body.SetPosition(center)
		body.SetAngle(math.Atan2(edge.Y, edge.X))
		return []*cp.Shape{cp.NewBox(body, w, h, 0)}
	case obj.Shape == tmx.ShapeEllipse:
		var center cp.Vector
		for _, p := range pts {
			center = center.Add(p)
		}
		center = center.Mult(1 / float64(len(pts)))
		var r float64
		for _, p := range pts {
			r += p.Distance(center)
		}
		r /= float64(len(pts))
		if r <= 0 {
			return nil
		}
		body.SetPosition(center)
		return []*cp.Shape{cp.NewCircle(body, r, cp.Vector{})}
	case obj.Shape == tmx.ShapePolygon:
		if len(pts) < 3 {
			return nil
		}
		return []*cp.Shape{cp.NewPolyShape(body, len(pts), pts, cp.NewTransformIdentity(), 0)}
	case obj.Shape == tmx.ShapePolyline:
		var out []*cp.Shape
		for i := 1; i < len(pts); i++ {
			out = append(out, cp.NewSegment(body, pts[i-1], pts[i], 0))
		}
		return out
	default:
		return nil
	}
}
