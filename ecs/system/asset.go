package system

import (
	"errors"
	"log"

	"github.com/milk9111/tiledmap/assets"
	"github.com/milk9111/tiledmap/ecs"
	"github.com/milk9111/tiledmap/ecs/component"
	"github.com/milk9111/tiledmap/scripting"
	"github.com/milk9111/tiledmap/tiled"
)

// AssetSystem moves file changes and finished loads into the world.
type AssetSystem struct {
	server *assets.Server
	maps   *assets.Store[*tiled.Map]
	hooks  *scripting.Hooks
}

func NewAssetSystem(server *assets.Server, maps *assets.Store[*tiled.Map], hooks *scripting.Hooks) *AssetSystem {
	return &AssetSystem{server: server, maps: maps, hooks: hooks}
}

func (s *AssetSystem) Update(w *ecs.World) {
	if s == nil || w == nil || s.maps == nil {
		return
	}

	var changed []string
	if s.server != nil {
		var err error
		changed, err = s.server.Poll()
		if err != nil && !errors.Is(err, assets.ErrNotWatching) {
			log.Printf("tiled: %v", err)
		}
	}
	s.apply(w, changed)

	for _, evt := range s.maps.Update() {
		ecs.Send(w, evt)
	}
}

// apply reloads maps and scripts that depend on changed paths.
func (s *AssetSystem) apply(w *ecs.World, changed []string) {
	if len(changed) == 0 {
		return
	}
	if s.server != nil {
		s.server.Forget(changed...)
	}
	ecs.Send(w, FilesChangedEvent{Paths: changed})

	if n := s.maps.Reload(changed); n > 0 {
		log.Printf("tiled: reloading %d map(s)", n)
	}
	if s.hooks.Invalidate(changed) == 0 {
		return
	}
	// Spawn scripts ran against every map; respawn them all.
	seen := map[assets.Handle[*tiled.Map]]bool{}
	ecs.ForEach(w, component.TiledMapComponent, func(_ ecs.Entity, tm *component.TiledMap) {
		if seen[tm.Map] {
			return
		}
		seen[tm.Map] = true
		ecs.Send(w, MapAssetEvent{Kind: assets.Modified, Handle: tm.Map})
	})
}
