package system

import (
	"image/color"
	"log"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/tiledmap/assets"
	"github.com/milk9111/tiledmap/ecs"
	"github.com/milk9111/tiledmap/ecs/component"
	"github.com/milk9111/tiledmap/render"
	"github.com/milk9111/tiledmap/tiled"
)

const debugPointRadius = 3

// RenderSystem draws tile chunks, tile-object sprites and debug outlines.
type RenderSystem struct {
	maps      *assets.Store[*tiled.Map]
	physics   *PhysicsSystem
	pipeline  *render.Pipeline
	failed    bool
	camEntity ecs.Entity

	Linear       bool
	DebugPhysics bool
}

func NewRenderSystem(maps *assets.Store[*tiled.Map], physics *PhysicsSystem) *RenderSystem {
	return &RenderSystem{maps: maps, physics: physics}
}

// Update tracks the camera entity.
func (r *RenderSystem) Update(w *ecs.World) {
	if r == nil || w == nil {
		return
	}
	if !r.camEntity.Valid() || !w.IsAlive(r.camEntity) {
		r.camEntity, _ = w.First(component.CameraComponent.Kind())
	}
}

// ViewProj is the camera projection for a w x h target. Without a camera the
// view is centred on the world origin.
func (r *RenderSystem) ViewProj(w *ecs.World, sw, sh int) mgl32.Mat4 {
	var x, y float32
	zoom := float32(1)
	if r != nil && r.camEntity.Valid() && w.IsAlive(r.camEntity) {
		if g, ok := ecs.Get(w, r.camEntity, component.GlobalTransformComponent); ok {
			p := g.Position()
			x, y = p.X(), p.Y()
		} else if t, ok := ecs.Get(w, r.camEntity, component.TransformComponent); ok {
			x, y = float32(t.X), float32(t.Y)
		}
		if c, ok := ecs.Get(w, r.camEntity, component.CameraComponent); ok && c.Zoom > 0 {
			zoom = float32(c.Zoom)
		}
	}
	return render.CameraViewProj(x, y, zoom, sw, sh)
}

type drawItem struct {
	z      float32
	layer  int
	e      ecs.Entity
	model  mgl32.Mat4
	chunk  *component.TileMapChunk
	sprite *component.ObjectSprite
}

func (r *RenderSystem) Draw(w *ecs.World, screen *ebiten.Image) {
	if r == nil || w == nil || screen == nil {
		return
	}
	if r.pipeline == nil && !r.failed {
		p, err := render.NewPipeline()
		if err != nil {
			log.Printf("tiled: %v", err)
			r.failed = true
			return
		}
		r.pipeline = p
	}
	if r.pipeline == nil {
		return
	}
	r.pipeline.Linear = r.Linear

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	vp := r.ViewProj(w, sw, sh)

	for _, it := range r.collect(w) {
		switch {
		case it.chunk != nil:
			r.pipeline.Draw(screen, render.DrawParams{
				Mesh:     it.chunk.Mesh,
				Image:    it.chunk.Image,
				Uniforms: tiled.ChunkUniforms{ViewProj: vp, Model: it.model, LayerID: float32(it.chunk.LayerID)},
				Variant:  it.chunk.Variant,
				Opacity:  it.chunk.Opacity,
			})
		case it.sprite != nil:
			r.drawSprite(w, screen, vp, it)
		}
	}

	r.drawOutlines(w, screen, vp)
	if r.DebugPhysics && r.physics != nil {
		DrawPhysicsDebug(r.physics.Space(), screen, vp)
	}
}

// collect returns visible chunks and sprites sorted by global z, then layer,
// then entity.
func (r *RenderSystem) collect(w *ecs.World) []drawItem {
	var items []drawItem
	for _, e := range w.Query(component.TileMapChunkComponent.Kind(), component.GlobalTransformComponent.Kind()) {
		c, _ := ecs.Get(w, e, component.TileMapChunkComponent)
		g, _ := ecs.Get(w, e, component.GlobalTransformComponent)
		if c.Image == nil || Hidden(w, e) {
			continue
		}
		items = append(items, drawItem{z: g.Matrix[14], layer: c.LayerID, e: e, model: g.Matrix, chunk: c})
	}
	for _, e := range w.Query(component.ObjectSpriteComponent.Kind(), component.GlobalTransformComponent.Kind()) {
		s, _ := ecs.Get(w, e, component.ObjectSpriteComponent)
		g, _ := ecs.Get(w, e, component.GlobalTransformComponent)
		if s.Image == nil || Hidden(w, e) {
			continue
		}
		layer := 0
		if o, ok := ecs.Get(w, e, component.MapObjectComponent); ok {
			layer = o.Layer
		}
		items = append(items, drawItem{z: g.Matrix[14], layer: layer, e: e, model: g.Matrix, sprite: s})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].z != items[j].z {
			return items[i].z < items[j].z
		}
		if items[i].layer != items[j].layer {
			return items[i].layer < items[j].layer
		}
		return uint64(items[i].e) < uint64(items[j].e)
	})
	return items
}

func (r *RenderSystem) drawSprite(w *ecs.World, screen *ebiten.Image, vp mgl32.Mat4, it drawItem) {
	s := it.sprite
	b := s.Image.Bounds()
	iw, ih := float32(b.Dx()), float32(b.Dy())
	src := s.Source
	uv := [4]float32{
		float32(src.Min.X) / iw,
		float32(src.Min.Y) / ih,
		float32(src.Max.X) / iw,
		float32(src.Max.Y) / ih,
	}
	opacity := float32(1)
	if p, ok := ecs.Get(w, it.e, ecs.ParentComponent); ok {
		if l, ok := ecs.Get(w, p.Entity, component.MapLayerComponent); ok {
			opacity = l.Opacity
		}
	}
	r.pipeline.Draw(screen, render.DrawParams{
		Mesh:     render.SpriteMesh(float32(src.Dx()), float32(src.Dy()), uv, s.Flip),
		Image:    s.Image,
		Uniforms: tiled.ChunkUniforms{ViewProj: vp, Model: it.model},
		Opacity:  opacity,
	})
}

func (r *RenderSystem) drawOutlines(w *ecs.World, screen *ebiten.Image, vp mgl32.Mat4) {
	if r.maps == nil {
		return
	}
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	for _, e := range w.Query(component.MapObjectComponent.Kind()) {
		obj, _ := ecs.Get(w, e, component.MapObjectComponent)
		if !obj.Object.IsShape() || Hidden(w, e) {
			continue
		}
		m, ok := r.maps.Get(obj.Map)
		if !ok {
			continue
		}
		p, ok := ecs.Get(w, e, ecs.ParentComponent)
		if !ok {
			continue
		}
		layer, ok := ecs.Get(w, p.Entity, component.GlobalTransformComponent)
		if !ok {
			continue
		}
		clr := outlineColor(w, p.Entity)

		pts, closed := obj.Object.Outline(m)
		screenPts := make([][2]float32, 0, len(pts))
		for _, pt := range pts {
			c := vp.Mul4(layer.Matrix).Mul4x1(mgl32.Vec4{pt.X(), pt.Y(), 0, 1})
			x, y := render.ClipToScreen(c, sw, sh)
			screenPts = append(screenPts, [2]float32{x, y})
		}
		if len(screenPts) == 1 {
			vector.StrokeCircle(screen, screenPts[0][0], screenPts[0][1], debugPointRadius, 1, clr, true)
			continue
		}
		for i := 1; i < len(screenPts); i++ {
			a, b := screenPts[i-1], screenPts[i]
			vector.StrokeLine(screen, a[0], a[1], b[0], b[1], 1, clr, true)
		}
		if closed && len(screenPts) > 2 {
			a, b := screenPts[len(screenPts)-1], screenPts[0]
			vector.StrokeLine(screen, a[0], a[1], b[0], b[1], 1, clr, true)
		}
	}
}

// outlineColor is the debug colour of the map above a layer entity.
func outlineColor(w *ecs.World, layer ecs.Entity) color.Color {
	if p, ok := ecs.Get(w, layer, ecs.ParentComponent); ok {
		if tm, ok := ecs.Get(w, p.Entity, component.TiledMapComponent); ok && tm.Debug.Color.A > 0 {
			return tm.Debug.Color
		}
	}
	return color.RGBA{R: 255, B: 255, A: 255}
}
