package tmx

type Orientation string

const (
	Orthogonal Orientation = "orthogonal"
	Isometric  Orientation = "isometric"
	Staggered  Orientation = "staggered"
	Hexagonal  Orientation = "hexagonal"
)

// Map is a parsed TMX document. Group layers are already flattened into
// Layers in document order.
type Map struct {
	Version         string
	TiledVersion    string
	Orientation     Orientation
	RenderOrder     string
	Width           int
	Height          int
	TileWidth       int
	TileHeight      int
	Infinite        bool
	BackgroundColor string
	Properties      Properties
	Tilesets        []*Tileset
	Layers          []*Layer
}

// TilesetForGID returns the tileset with the greatest first GID that is not
// above gid. Flip flags are ignored.
func (m *Map) TilesetForGID(gid uint32) *Tileset {
	if m == nil {
		return nil
	}
	gid, _ = DecodeGID(gid)
	if gid == 0 {
		return nil
	}
	var best *Tileset
	for _, ts := range m.Tilesets {
		if ts.FirstGID <= gid && (best == nil || ts.FirstGID > best.FirstGID) {
			best = ts
		}
	}
	return best
}

// TileDef returns the per-tile definition for a global id, if the tileset
// declares one.
func (m *Map) TileDef(gid uint32) (*Tileset, *TileDef) {
	ts := m.TilesetForGID(gid)
	if ts == nil {
		return nil, nil
	}
	id, _ := DecodeGID(gid)
	return ts, ts.Tiles[id-ts.FirstGID]
}

type Tileset struct {
	FirstGID    uint32
	Source      string
	Name        string
	TileWidth   int
	TileHeight  int
	Spacing     int
	Margin      int
	TileCount   int
	Columns     int
	TileOffsetX int
	TileOffsetY int
	Image       *Image
	Properties  Properties
	Tiles       map[uint32]*TileDef
}

// Contains reports whether the flag-stripped gid falls in this tileset's range.
func (ts *Tileset) Contains(gid uint32) bool {
	if ts == nil {
		return false
	}
	gid, _ = DecodeGID(gid)
	return gid >= ts.FirstGID && gid < ts.FirstGID+uint32(ts.Count())
}

// Count is the number of tiles in the set. When the tilecount attribute is
// missing it is derived from the atlas image, or from the highest declared
// tile id of a collection.
func (ts *Tileset) Count() int {
	if ts.TileCount > 0 {
		return ts.TileCount
	}
	if ts.Image != nil {
		if ts.Image.Width <= 0 || ts.Image.Height <= 0 || ts.TileWidth <= 0 || ts.TileHeight <= 0 {
			return 0
		}
		cols := ts.Columns
		if cols <= 0 {
			cols = (ts.Image.Width - 2*ts.Margin + ts.Spacing) / (ts.TileWidth + ts.Spacing)
		}
		rows := (ts.Image.Height - 2*ts.Margin + ts.Spacing) / (ts.TileHeight + ts.Spacing)
		return max(cols, 1) * max(rows, 1)
	}
	n := 0
	for id := range ts.Tiles {
		n = max(n, int(id)+1)
	}
	return n
}

// IsCollection reports whether tiles carry their own images instead of
// sharing an atlas.
func (ts *Tileset) IsCollection() bool {
	return ts != nil && ts.Image == nil
}

type TileDef struct {
	ID         uint32
	Type       string
	Properties Properties
	Image      *Image
	Animation  []Frame
}

// Frame is one step of a tile animation. Duration is in milliseconds.
type Frame struct {
	TileID   uint32
	Duration int
}

type Image struct {
	Source string
	Width  int
	Height int
	Trans  string
}

type LayerKind int

const (
	TileLayer LayerKind = iota
	ObjectLayer
	ImageLayer
)

func (k LayerKind) String() string {
	switch k {
	case TileLayer:
		return "tile"
	case ObjectLayer:
		return "object"
	case ImageLayer:
		return "image"
	default:
		return "unknown"
	}
}

type Layer struct {
	Kind       LayerKind
	ID         int
	Name       string
	Visible    bool
	Opacity    float64
	OffsetX    float64
	OffsetY    float64
	Width      int
	Height     int
	Properties Properties

	// Tiles holds raw GIDs (flags included) in row-major order for finite
	// maps. Infinite maps use Chunks instead.
	Tiles  []uint32
	Chunks []Chunk

	Objects []*Object
	Image   *Image
}

type Chunk struct {
	X      int
	Y      int
	Width  int
	Height int
	Tiles  []uint32
}

// Grid is a dense rectangle of raw GIDs. X and Y give the origin in tiles.
type Grid struct {
	X      int
	Y      int
	Width  int
	Height int
	Tiles  []uint32
}

// At returns the raw GID at local coordinates, or 0 outside the grid.
func (g Grid) At(x, y int) uint32 {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return 0
	}
	return g.Tiles[y*g.Width+x]
}

// Grid returns the layer tiles as one rectangle. Infinite layers are merged
// over the union of their chunk bounds.
func (l *Layer) Grid() Grid {
	if l == nil || l.Kind != TileLayer {
		return Grid{}
	}
	if len(l.Chunks) == 0 {
		return Grid{Width: l.Width, Height: l.Height, Tiles: l.Tiles}
	}

	minX, minY := l.Chunks[0].X, l.Chunks[0].Y
	maxX, maxY := minX+l.Chunks[0].Width, minY+l.Chunks[0].Height
	for _, c := range l.Chunks[1:] {
		minX = min(minX, c.X)
		minY = min(minY, c.Y)
		maxX = max(maxX, c.X+c.Width)
		maxY = max(maxY, c.Y+c.Height)
	}

	g := Grid{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	g.Tiles = make([]uint32, g.Width*g.Height)
	for _, c := range l.Chunks {
		for y := 0; y < c.Height; y++ {
			for x := 0; x < c.Width; x++ {
				gx := c.X - minX + x
				gy := c.Y - minY + y
				g.Tiles[gy*g.Width+gx] = c.Tiles[y*c.Width+x]
			}
		}
	}
	return g
}

type ShapeKind int

const (
	ShapeRect ShapeKind = iota
	ShapeEllipse
	ShapePoint
	ShapePolygon
	ShapePolyline
	ShapeText
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeRect:
		return "rect"
	case ShapeEllipse:
		return "ellipse"
	case ShapePoint:
		return "point"
	case ShapePolygon:
		return "polygon"
	case ShapePolyline:
		return "polyline"
	case ShapeText:
		return "text"
	default:
		return "unknown"
	}
}

type Point struct {
	X float64
	Y float64
}

type Object struct {
	ID         int
	Name       string
	Type       string
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Rotation   float64
	GID        uint32
	Visible    bool
	Properties Properties
	Shape      ShapeKind
	// Points are relative to X/Y for polygons and polylines.
	Points []Point
}
