package tiled

import (
	"errors"
	"fmt"
	"log"
	"path"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/tiledmap/tmx"
)

var (
	ErrUnsupportedOrientation = errors.New("tiled: unsupported orientation")
	ErrInvalidMap             = errors.New("tiled: invalid map")
)

const (
	DefaultZOffset   = 15
	DefaultDepthSpan = 2000
)

type Options struct {
	// ChunkSize is the chunk edge in tiles.
	ChunkSize int
	// Object z is ZOffset - centerY/DepthSpan.
	ZOffset   float32
	DepthSpan float32
}

// DefaultOptions is what Build uses for a zero Options.
func DefaultOptions() Options {
	return Options{ChunkSize: DefaultChunkSize, ZOffset: DefaultZOffset, DepthSpan: DefaultDepthSpan}
}

// withDefaults fills unset sizes. ZOffset is only defaulted for the zero
// Options since 0 is a valid offset.
func (o Options) withDefaults() Options {
	if o == (Options{}) {
		return DefaultOptions()
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.DepthSpan <= 0 {
		o.DepthSpan = DefaultDepthSpan
	}
	return o
}

// Layer is a visible tile or object layer. Index is its position among the
// visible layers and doubles as the chunk layer id.
type Layer struct {
	Index         int
	Name          string
	Kind          tmx.LayerKind
	Offset        mgl32.Vec2
	Opacity       float32
	TilesetLayers []TilesetLayer
	Objects       *ObjectGroup
	Source        *tmx.Layer
}

// Map is the loaded asset.
type Map struct {
	Source      *tmx.Map
	Path        string
	Orientation tmx.Orientation
	TileSize    mgl32.Vec2
	ChunkSize   int
	Options     Options

	Layers       []Layer
	Meshes       []ChunkMesh
	Atlases      map[uint32]Atlas
	Animated     []AnimatedTile
	ObjectGroups []*ObjectGroup

	// ImageFolder is the map's directory relative to the asset root.
	ImageFolder  string
	Dependencies []string
}

// Build turns a parsed document into chunks and meshes.
func Build(src *tmx.Map, opts Options) (*Map, error) {
	if src == nil {
		return nil, fmt.Errorf("tiled: nil map: %w", ErrInvalidMap)
	}
	switch src.Orientation {
	case tmx.Orthogonal, tmx.Isometric:
	default:
		return nil, fmt.Errorf("tiled: orientation %q: %w", src.Orientation, ErrUnsupportedOrientation)
	}
	if src.TileWidth <= 0 || src.TileHeight <= 0 {
		return nil, fmt.Errorf("tiled: tile size %dx%d: %w", src.TileWidth, src.TileHeight, ErrInvalidMap)
	}

	opts = opts.withDefaults()
	m := &Map{
		Source:      src,
		Orientation: src.Orientation,
		TileSize:    mgl32.Vec2{float32(src.TileWidth), float32(src.TileHeight)},
		ChunkSize:   opts.ChunkSize,
		Options:     opts,
		Atlases:     map[uint32]Atlas{},
		ImageFolder: ".",
	}

	for _, ts := range src.Tilesets {
		if a, ok := NewAtlas(ts); ok {
			m.Atlases[ts.FirstGID] = a
		} else if ts.IsCollection() {
			log.Printf("tiled: tileset %q is an image collection; its tiles are only used by objects", ts.Name)
		} else {
			log.Printf("tiled: tileset %q has no usable image size; skipping", ts.Name)
		}
	}

	for _, l := range src.Layers {
		if !l.Visible || l.Kind == tmx.ImageLayer {
			continue
		}
		layer := Layer{
			Index:   len(m.Layers),
			Name:    l.Name,
			Kind:    l.Kind,
			Offset:  mgl32.Vec2{float32(l.OffsetX), float32(l.OffsetY)},
			Opacity: float32(l.Opacity),
			Source:  l,
		}
		switch l.Kind {
		case tmx.TileLayer:
			layer.TilesetLayers = m.buildTilesetLayers(l)
		case tmx.ObjectLayer:
			og := NewObjectGroup(l, src, layer.Index)
			layer.Objects = og
			m.ObjectGroups = append(m.ObjectGroups, og)
		}
		m.Layers = append(m.Layers, layer)
	}

	m.buildMeshes()
	return m, nil
}

// ImagePath returns the root-relative image path of a tileset atlas.
func (m *Map) ImagePath(firstGID uint32) string {
	a, ok := m.Atlases[firstGID]
	if !ok {
		return ""
	}
	return path.Join(m.ImageFolder, a.Image)
}

// Project maps a tile coordinate to world space for the map's orientation.
func (m *Map) Project(pos mgl32.Vec2) mgl32.Vec2 {
	if m.Orientation == tmx.Isometric {
		return ProjectIso(pos, m.TileSize.X(), m.TileSize.Y())
	}
	return ProjectOrtho(pos, m.TileSize.X(), m.TileSize.Y())
}

// CellAt returns the tile cell containing a world position.
func (m *Map) CellAt(pos mgl32.Vec2) (int, int) {
	var p mgl32.Vec2
	if m.Orientation == tmx.Isometric {
		p = unprojectIso(pos, m.TileSize.X(), m.TileSize.Y())
	} else {
		p = UnprojectOrtho(pos, m.TileSize.X(), m.TileSize.Y())
	}
	return int(floor(p.X())), int(floor(p.Y()))
}

// CenterOffset is the world position of the middle of the map.
func (m *Map) CenterOffset() mgl32.Vec2 {
	return m.Project(mgl32.Vec2{float32(m.Source.Width) / 2, float32(m.Source.Height) / 2})
}

// Center shifts origin so the middle of the map lands on it.
func (m *Map) Center(origin mgl32.Mat4) mgl32.Mat4 {
	c := m.CenterOffset()
	return origin.Mul4(mgl32.Translate3D(-c.X(), -c.Y(), 0))
}

// TileAt returns the raw GID at a tile coordinate of the layer with the given
// visible index.
func (m *Map) TileAt(layer int, x, y int) uint32 {
	if layer < 0 || layer >= len(m.Layers) || m.Layers[layer].Kind != tmx.TileLayer {
		return 0
	}
	g := m.Layers[layer].Source.Grid()
	return g.At(x-g.X, y-g.Y)
}

// MeshesFor returns the chunk meshes of one layer.
func (m *Map) MeshesFor(layer int) []ChunkMesh {
	var out []ChunkMesh
	for _, cm := range m.Meshes {
		if cm.LayerID == layer {
			out = append(out, cm)
		}
	}
	return out
}
