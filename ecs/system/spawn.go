package system

import (
	"image"
	"log"
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tiledmap/assets"
	"github.com/milk9111/tiledmap/ecs"
	"github.com/milk9111/tiledmap/ecs/component"
	"github.com/milk9111/tiledmap/scripting"
	"github.com/milk9111/tiledmap/tiled"
	"github.com/milk9111/tiledmap/tmx"
)

// ImageLoader loads tileset images by root-relative path in one batch. Paths
// that fail are left out of the result. *assets.Server satisfies it.
type ImageLoader interface {
	LoadImages(paths []string) (map[string]*ebiten.Image, error)
}

// MapSpawnSystem turns loaded map assets into layer, chunk and object
// entities under each TiledMap entity.
type MapSpawnSystem struct {
	maps           *assets.Store[*tiled.Map]
	images         ImageLoader
	hooks          *scripting.Hooks
	collisionTypes map[string]bool
}

func NewMapSpawnSystem(maps *assets.Store[*tiled.Map], images ImageLoader, hooks *scripting.Hooks, collisionTypes []string) *MapSpawnSystem {
	ct := make(map[string]bool, len(collisionTypes))
	for _, t := range collisionTypes {
		ct[t] = true
	}
	return &MapSpawnSystem{maps: maps, images: images, hooks: hooks, collisionTypes: ct}
}

func (s *MapSpawnSystem) Update(w *ecs.World) {
	if s == nil || w == nil || s.maps == nil {
		return
	}

	changed := map[assets.Handle[*tiled.Map]]bool{}
	for _, evt := range ecs.Read[MapAssetEvent](w) {
		switch evt.Kind {
		case assets.Created, assets.Modified:
			changed[evt.Handle] = true
		case assets.Removed:
			delete(changed, evt.Handle)
			s.despawnHandle(w, evt.Handle)
		}
	}

	stale := map[string]bool{}
	for _, evt := range ecs.Read[FilesChangedEvent](w) {
		for _, p := range evt.Paths {
			stale[p] = true
		}
	}
	if len(stale) > 0 {
		ecs.ForEach(w, component.MaterialsComponent, func(_ ecs.Entity, mats *component.Materials) {
			for gid, m := range mats.ByGID {
				if stale[m.Source] {
					delete(mats.ByGID, gid)
				}
			}
		})
	}

	for _, e := range w.Query(component.TiledMapComponent.Kind()) {
		tm, ok := ecs.Get(w, e, component.TiledMapComponent)
		if !ok {
			continue
		}
		if !changed[tm.Map] && ecs.Has(w, e, MapLayersComponent) {
			continue
		}
		m, ok := s.maps.Get(tm.Map)
		if !ok {
			continue
		}
		s.spawn(w, e, *tm, m)
	}
}

func (s *MapSpawnSystem) despawnHandle(w *ecs.World, h assets.Handle[*tiled.Map]) {
	ecs.ForEach(w, component.TiledMapComponent, func(e ecs.Entity, tm *component.TiledMap) {
		if tm.Map != h {
			return
		}
		n := ecs.DespawnChildren(w, e)
		ecs.Remove(w, e, MapLayersComponent)
		log.Printf("tiled: map %s removed, despawned %d entities", h, n)
	})
}

func (s *MapSpawnSystem) spawn(w *ecs.World, e ecs.Entity, tm component.TiledMap, m *tiled.Map) {
	ecs.DespawnChildren(w, e)
	if !ecs.Has(w, e, component.TransformComponent) {
		_ = ecs.Add(w, e, component.TransformComponent, component.Transform{})
	}

	mats := s.materials(w, e, m)

	var center mgl32.Vec2
	if tm.Center {
		center = m.CenterOffset()
	}
	variant := tiled.VariantFor(m.Orientation)

	layers := make([]ecs.Entity, 0, len(m.Layers))
	for _, l := range m.Layers {
		le := w.CreateEntity()
		_ = ecs.Add(w, le, component.TransformComponent, component.Transform{
			X: float64(l.Offset.X() - center.X()),
			Y: float64(-l.Offset.Y() - center.Y()),
			Z: float64(l.Index),
		})
		_ = ecs.Add(w, le, component.MapLayerComponent, component.MapLayer{
			Index:   l.Index,
			Name:    l.Name,
			Kind:    l.Kind,
			Opacity: l.Opacity,
		})
		_ = ecs.SetParent(w, le, e)
		layers = append(layers, le)
	}

	animated := map[int][]tiled.AnimatedTile{}
	for _, a := range m.Animated {
		animated[a.Mesh] = append(animated[a.Mesh], a)
	}

	for i, cm := range m.Meshes {
		if cm.LayerID < 0 || cm.LayerID >= len(layers) {
			continue
		}
		ce := w.CreateEntity()
		mat := mats.ByGID[cm.TilesetGID]
		_ = ecs.Add(w, ce, component.TransformComponent, component.Transform{})
		_ = ecs.Add(w, ce, component.TileMapChunkComponent, component.TileMapChunk{
			LayerID:    cm.LayerID,
			TilesetGID: cm.TilesetGID,
			Mesh:       cm.Mesh.Clone(),
			Image:      mat.Image,
			Opacity:    m.Layers[cm.LayerID].Opacity,
			Variant:    variant,
		})
		if tiles := animated[i]; len(tiles) > 0 {
			_ = ecs.Add(w, ce, component.TileAnimationsComponent, component.TileAnimations{
				Atlas: m.Atlases[cm.TilesetGID],
				Tiles: tiles,
			})
		}
		_ = ecs.SetParent(w, ce, layers[cm.LayerID])
	}

	for _, l := range m.Layers {
		if l.Objects == nil {
			continue
		}
		for _, obj := range l.Objects.Objects {
			oe := s.spawnObject(w, tm, m, mats, l.Index, obj)
			_ = ecs.SetParent(w, oe, layers[l.Index])
			ecs.Send(w, ObjectReadyEvent{
				Map:      e,
				Layer:    layers[l.Index],
				Entity:   oe,
				ObjectID: obj.ID,
				Name:     obj.Name,
				Type:     obj.Type,
			})
		}
	}

	_ = ecs.Add(w, e, MapLayersComponent, MapLayers{Entities: layers})
	ecs.Send(w, MapReadyEvent{Map: e, Handle: tm.Map, Layers: len(layers), Chunks: len(m.Meshes)})
}

// materials loads one image per tileset atlas and one per collection tile,
// reusing any whose source has not changed.
func (s *MapSpawnSystem) materials(w *ecs.World, e ecs.Entity, m *tiled.Map) *component.Materials {
	mats, ok := ecs.Get(w, e, component.MaterialsComponent)
	if !ok {
		_ = ecs.Add(w, e, component.MaterialsComponent, component.Materials{ByGID: map[uint32]component.Material{}})
		mats, _ = ecs.Get(w, e, component.MaterialsComponent)
	}
	if mats.ByGID == nil {
		mats.ByGID = map[uint32]component.Material{}
	}

	want := map[uint32]string{}
	for gid := range m.Atlases {
		want[gid] = m.ImagePath(gid)
	}
	for _, ts := range m.Source.Tilesets {
		if !ts.IsCollection() {
			continue
		}
		for id, def := range ts.Tiles {
			if def.Image != nil {
				want[ts.FirstGID+id] = path.Join(m.ImageFolder, def.Image.Source)
			}
		}
	}

	for gid := range mats.ByGID {
		if _, ok := want[gid]; !ok {
			delete(mats.ByGID, gid)
		}
	}
	var missing []string
	for gid, src := range want {
		if cur, ok := mats.ByGID[gid]; ok && cur.Source == src && cur.Image != nil {
			delete(want, gid)
			continue
		}
		missing = append(missing, src)
	}
	if len(missing) == 0 || s.images == nil {
		return mats
	}

	imgs, err := s.images.LoadImages(missing)
	if err != nil {
		log.Printf("tiled: materials: %v", err)
	}
	for gid, src := range want {
		img := imgs[src]
		if img == nil {
			delete(mats.ByGID, gid)
			continue
		}
		b := img.Bounds()
		mats.ByGID[gid] = component.Material{Image: img, Source: src, Width: b.Dx(), Height: b.Dy()}
	}
	return mats
}

func (s *MapSpawnSystem) spawnObject(w *ecs.World, tm component.TiledMap, m *tiled.Map, mats *component.Materials, layer int, obj tiled.Object) ecs.Entity {
	oe := w.CreateEntity()

	var scale *mgl32.Vec2
	if sc, ok := obj.TileScale(m); ok {
		scale = &sc
	}
	tr := component.TransformFromMatrix(obj.TransformFromMap(m, mgl32.Ident4(), scale))

	res := scripting.Result{
		Visible:  obj.Visible,
		Z:        tr.Z,
		Collider: s.collider(obj),
	}
	if out, ok, err := s.hooks.Run(obj, res); err != nil {
		log.Printf("tiled: object %d (%s): %v", obj.ID, obj.Type, err)
	} else if ok {
		res = out
	}
	tr.Z = res.Z

	_ = ecs.Add(w, oe, component.TransformComponent, tr)
	_ = ecs.Add(w, oe, component.MapObjectComponent, component.MapObject{
		Map:      tm.Map,
		Layer:    layer,
		Object:   obj,
		Collider: res.Collider,
		Hidden:   !res.Visible,
	})
	_ = ecs.Add(w, oe, component.VisibleComponent, component.Visible{
		Hidden: !ObjectShown(obj, !res.Visible, tm.Debug.Enabled),
	})
	if len(res.Tags) > 0 {
		_ = ecs.Add(w, oe, component.ScriptTagsComponent, component.ScriptTags{Tags: res.Tags})
	}
	if sprite, ok := objectSprite(m, mats, obj); ok {
		_ = ecs.Add(w, oe, component.ObjectSpriteComponent, sprite)
	}
	return oe
}

// ObjectShown decides object visibility. Shape objects only show while debug
// drawing is on.
func ObjectShown(obj tiled.Object, hidden, debug bool) bool {
	if hidden {
		return false
	}
	return !obj.IsShape() || debug
}

// collider returns the collision type of an object: the collision property
// when set, else the object type when it is a configured collision type.
func (s *MapSpawnSystem) collider(obj tiled.Object) string {
	if p, ok := obj.Properties.Get("collision"); ok {
		if p.Type == tmx.PropBool {
			if v, _ := obj.Properties.Bool("collision"); v {
				return firstNonEmpty(obj.Type, "solid")
			}
			return ""
		}
		return strings.TrimSpace(p.Value)
	}
	if s.collisionTypes[obj.Type] {
		return obj.Type
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func objectSprite(m *tiled.Map, mats *component.Materials, obj tiled.Object) (component.ObjectSprite, bool) {
	if obj.IsShape() {
		return component.ObjectSprite{}, false
	}
	if a, ok := m.Atlases[obj.TilesetGID]; ok {
		mat, ok := mats.Get(obj.TilesetGID)
		if !ok {
			return component.ObjectSprite{}, false
		}
		x, y := a.SourceRect(obj.SpriteIndex)
		return component.ObjectSprite{
			Image:  mat.Image,
			Source: image.Rect(x, y, x+a.TileWidth, y+a.TileHeight),
			Flip:   obj.Flip,
		}, true
	}
	mat, ok := mats.Get(obj.TilesetGID + obj.SpriteIndex)
	if !ok {
		return component.ObjectSprite{}, false
	}
	return component.ObjectSprite{
		Image:  mat.Image,
		Source: image.Rect(0, 0, mat.Width, mat.Height),
		Flip:   obj.Flip,
	}, true
}
