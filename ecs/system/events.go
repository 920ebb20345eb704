package system

import (
	"github.com/milk9111/tiledmap/assets"
	"github.com/milk9111/tiledmap/ecs"
	"github.com/milk9111/tiledmap/ecs/component"
	"github.com/milk9111/tiledmap/tiled"
)

// MapAssetEvent forwards a map store event into the world.
type MapAssetEvent = assets.Event[*tiled.Map]

// FilesChangedEvent lists root-relative paths the watcher reported this frame.
type FilesChangedEvent struct {
	Paths []string
}

// MapReadyEvent is sent once a map entity has its layers, chunks and objects.
type MapReadyEvent struct {
	Map    ecs.Entity
	Handle assets.Handle[*tiled.Map]
	Layers int
	Chunks int
}

// ObjectReadyEvent is sent for every spawned map object, before the map's
// MapReadyEvent.
type ObjectReadyEvent struct {
	Map      ecs.Entity
	Layer    ecs.Entity
	Entity   ecs.Entity
	ObjectID int
	Name     string
	Type     string
}

// MapLayers lists a map's layer entities in layer order.
type MapLayers struct {
	Entities []ecs.Entity
}

var MapLayersComponent = component.NewComponent[MapLayers]()
