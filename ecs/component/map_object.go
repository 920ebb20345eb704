package component

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tiledmap/assets"
	"github.com/milk9111/tiledmap/tiled"
	"github.com/milk9111/tiledmap/tmx"
)

// MapObject is a spawned Tiled object. Collider names the collision type, or
// is empty when the object has no body. Hidden is set by Tiled or a spawn
// script and wins over debug drawing.
type MapObject struct {
	Map      assets.Handle[*tiled.Map]
	Layer    int
	Object   tiled.Object
	Collider string
	Hidden   bool
}

var MapObjectComponent = NewComponent[MapObject]()

// ObjectSprite is the tile image of a tile object. The entity's transform
// already carries the scale to the object's size.
type ObjectSprite struct {
	Image  *ebiten.Image
	Source image.Rectangle
	Flip   tmx.Flip
}

var ObjectSpriteComponent = NewComponent[ObjectSprite]()
