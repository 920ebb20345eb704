package component

import "github.com/milk9111/tiledmap/tmx"

// MapLayer marks a layer entity. Index is the layer's position among the
// visible layers of its map.
type MapLayer struct {
	Index   int
	Name    string
	Kind    tmx.LayerKind
	Opacity float32
}

var MapLayerComponent = NewComponent[MapLayer]()
