package component

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tiledmap/tiled"
)

// TileMapChunk is one mesh of one tileset within one layer. The mesh is owned
// by the entity; animations rewrite its UVs in place.
type TileMapChunk struct {
	LayerID    int
	TilesetGID uint32
	Mesh       *tiled.Mesh
	Image      *ebiten.Image
	Opacity    float32
	Variant    tiled.Variant
}

var TileMapChunkComponent = NewComponent[TileMapChunk]()

// TileAnimations holds the animated quads of one chunk mesh.
type TileAnimations struct {
	Atlas tiled.Atlas
	Tiles []tiled.AnimatedTile
}

var TileAnimationsComponent = NewComponent[TileAnimations]()
