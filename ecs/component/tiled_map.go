package component

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tiledmap/assets"
	"github.com/milk9111/tiledmap/tiled"
)

// DebugConfig controls the outline drawing of shape objects.
type DebugConfig struct {
	Enabled bool
	Color   color.RGBA
}

// TiledMap is the root of a spawned map. The entity's Transform is the map
// origin.
type TiledMap struct {
	Map    assets.Handle[*tiled.Map]
	Center bool
	Debug  DebugConfig
}

var TiledMapComponent = NewComponent[TiledMap]()

// Material is a loaded tileset image.
type Material struct {
	Image  *ebiten.Image
	Source string
	Width  int
	Height int
}

// Materials is keyed by tileset first GID.
type Materials struct {
	ByGID map[uint32]Material
}

var MaterialsComponent = NewComponent[Materials]()

func (m *Materials) Get(firstGID uint32) (Material, bool) {
	if m == nil || m.ByGID == nil {
		return Material{}, false
	}
	mat, ok := m.ByGID[firstGID]
	return mat, ok
}
