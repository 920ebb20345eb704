// Package tiledmap loads Tiled maps into an ecs.World and draws them.
package tiledmap

import (
	"errors"
	"image/color"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tiledmap/assets"
	"github.com/milk9111/tiledmap/config"
	"github.com/milk9111/tiledmap/ecs"
	"github.com/milk9111/tiledmap/ecs/component"
	"github.com/milk9111/tiledmap/ecs/system"
	"github.com/milk9111/tiledmap/scripting"
	"github.com/milk9111/tiledmap/tiled"
)

var ErrNoMap = errors.New("tiledmap: entity has no spawned map")

// WatchedExtensions are the file kinds that trigger a hot reload.
var WatchedExtensions = []string{"tmx", "tsx", "png", "jpg", "jpeg", "gif", "bmp", "webp", "tengo"}

type Plugin struct {
	Config config.Config
}

// Runtime holds what Build wired into the world.
type Runtime struct {
	World   *ecs.World
	Server  *assets.Server
	Maps    *assets.Store[*tiled.Map]
	Hooks   *scripting.Hooks
	Physics *system.PhysicsSystem
	Render  *system.RenderSystem

	cfg config.Config
}

// Build creates the map store and registers the plugin systems on world in
// order: asset, spawn, animation, physics, transform, render.
func (p Plugin) Build(world *ecs.World, server *assets.Server) *Runtime {
	cfg := p.Config
	maps := assets.NewStore[*tiled.Map](server, tiled.Loader{Options: cfg.MapOptions()})
	hooks := scripting.New(server.ReadFile, cfg.Scripts)

	if cfg.Watch {
		if err := server.WatchForChanges(WatchedExtensions...); err != nil {
			log.Printf("tiledmap: hot reload disabled: %v", err)
		}
	}

	rt := &Runtime{
		World:   world,
		Server:  server,
		Maps:    maps,
		Hooks:   hooks,
		Physics: system.NewPhysicsSystem(maps),
		cfg:     cfg,
	}
	rt.Render = system.NewRenderSystem(maps, rt.Physics)
	rt.Render.Linear = cfg.Filter == config.FilterLinear

	world.AddSystem(system.NewAssetSystem(server, maps, hooks))
	world.AddSystem(system.NewMapSpawnSystem(maps, server, hooks, cfg.CollisionTypes))
	world.AddSystem(system.NewTileAnimationSystem())
	world.AddSystem(rt.Physics)
	world.AddSystem(system.NewTransformSystem())
	world.AddSystem(rt.Render)
	return rt
}

// MapOptions place a spawned map.
type MapOptions struct {
	Origin     component.Transform
	Center     bool
	Debug      bool
	DebugColor color.RGBA
}

// SpawnMap creates a map entity. Its layers, chunks and objects appear once
// the asset has loaded and the spawn system has run.
func SpawnMap(w *ecs.World, h assets.Handle[*tiled.Map], opts MapOptions) (ecs.Entity, error) {
	e := w.CreateEntity()
	if err := ecs.Add(w, e, component.TransformComponent, opts.Origin); err != nil {
		return e, err
	}
	err := ecs.Add(w, e, component.TiledMapComponent, component.TiledMap{
		Map:    h,
		Center: opts.Center,
		Debug:  component.DebugConfig{Enabled: opts.Debug, Color: opts.DebugColor},
	})
	return e, err
}

// DefaultMapOptions takes centering and debug drawing from the config.
func (rt *Runtime) DefaultMapOptions() MapOptions {
	return MapOptions{
		Center:     rt.cfg.Center,
		Debug:      rt.cfg.DebugObjects,
		DebugColor: rt.cfg.DebugColor.RGBA,
	}
}

// LoadMap starts loading a map below the asset root and spawns its entity.
func (rt *Runtime) LoadMap(p string, opts MapOptions) (ecs.Entity, error) {
	return SpawnMap(rt.World, rt.Maps.Load(p), opts)
}

// SetDebug toggles debug drawing for one map and updates the visibility of
// its objects.
func (rt *Runtime) SetDebug(e ecs.Entity, enabled bool) error {
	w := rt.World
	tm, ok := ecs.Get(w, e, component.TiledMapComponent)
	if !ok {
		return ErrNoMap
	}
	tm.Debug.Enabled = enabled

	layers, ok := ecs.Get(w, e, system.MapLayersComponent)
	if !ok {
		return nil
	}
	for _, le := range layers.Entities {
		for _, oe := range ecs.ChildrenOf(w, le) {
			obj, ok := ecs.Get(w, oe, component.MapObjectComponent)
			if !ok {
				continue
			}
			v, ok := ecs.Get(w, oe, component.VisibleComponent)
			if !ok {
				continue
			}
			v.Hidden = !system.ObjectShown(obj.Object, obj.Hidden, enabled)
		}
	}
	return nil
}

// Cell is a tile lookup result.
type Cell struct {
	X, Y int
	GID  uint32
}

// TileAt finds the cell of a tile layer under a world position. GID is zero
// for empty cells.
func (rt *Runtime) TileAt(e ecs.Entity, layer int, pos mgl32.Vec2) (Cell, error) {
	w := rt.World
	tm, ok := ecs.Get(w, e, component.TiledMapComponent)
	if !ok {
		return Cell{}, ErrNoMap
	}
	m, ok := rt.Maps.Get(tm.Map)
	if !ok {
		return Cell{}, ErrNoMap
	}
	layers, ok := ecs.Get(w, e, system.MapLayersComponent)
	if !ok || layer < 0 || layer >= len(layers.Entities) {
		return Cell{}, ErrNoMap
	}
	g, ok := ecs.Get(w, layers.Entities[layer], component.GlobalTransformComponent)
	if !ok {
		return Cell{}, ErrNoMap
	}

	local := g.Matrix.Inv().Mul4x1(mgl32.Vec4{pos.X(), pos.Y(), 0, 1})
	x, y := m.CellAt(local.Vec2())
	return Cell{X: x, Y: y, GID: m.TileAt(layer, x, y)}, nil
}

// Update runs one world frame.
func (rt *Runtime) Update() {
	rt.World.Update()
}

func (rt *Runtime) Draw(screen *ebiten.Image) {
	rt.World.Draw(screen)
}

// Close stops the file watcher.
func (rt *Runtime) Close() error {
	return rt.Server.Close()
}
