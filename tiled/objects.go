package tiled

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/tiledmap/tmx"
)

type ObjectGroup struct {
	Name       string
	LayerIndex int
	Opacity    float32
	Visible    bool
	Objects    []Object
}

func NewObjectGroup(l *tmx.Layer, src *tmx.Map, layerIndex int) *ObjectGroup {
	og := &ObjectGroup{
		Name:       l.Name,
		LayerIndex: layerIndex,
		Opacity:    float32(l.Opacity),
		Visible:    l.Visible,
		Objects:    make([]Object, 0, len(l.Objects)),
	}
	for _, o := range l.Objects {
		og.Objects = append(og.Objects, NewObject(o, src))
	}
	return og
}

// Object is a map object with its tileset resolved. Position is in map pixels
// with y pointing down, as Tiled stores it.
type Object struct {
	ID         int
	Name       string
	Type       string
	Shape      tmx.ShapeKind
	Position   mgl32.Vec2
	Size       mgl32.Vec2
	Rotation   float32
	Points     []mgl32.Vec2
	Properties tmx.Properties
	Visible    bool

	GID         uint32
	Flip        tmx.Flip
	TilesetGID  uint32
	SpriteIndex uint32
	hasTileset  bool
}

func NewObject(o *tmx.Object, src *tmx.Map) Object {
	gid, flip := tmx.DecodeGID(o.GID)
	obj := Object{
		ID:         o.ID,
		Name:       o.Name,
		Type:       o.Type,
		Shape:      o.Shape,
		Position:   mgl32.Vec2{float32(o.X), float32(o.Y)},
		Size:       mgl32.Vec2{float32(o.Width), float32(o.Height)},
		Rotation:   float32(o.Rotation),
		Properties: o.Properties,
		Visible:    o.Visible,
		GID:        gid,
		Flip:       flip,
	}
	for _, p := range o.Points {
		obj.Points = append(obj.Points, mgl32.Vec2{float32(p.X), float32(p.Y)})
	}
	if gid != 0 {
		if ts := src.TilesetForGID(gid); ts != nil && ts.Contains(gid) {
			obj.TilesetGID = ts.FirstGID
			obj.SpriteIndex = gid - ts.FirstGID
			obj.hasTileset = true
		}
	}
	// Tile objects are drawn as their sprite whatever the element says.
	if obj.hasTileset {
		obj.Shape = tmx.ShapeRect
	}
	return obj
}

// IsShape reports whether the object has no tile image.
func (o Object) IsShape() bool {
	return !o.hasTileset
}

// Dimensions is the object's box for rects and ellipses and 1x1 otherwise.
func (o Object) Dimensions() mgl32.Vec2 {
	switch o.Shape {
	case tmx.ShapeRect, tmx.ShapeEllipse, tmx.ShapeText:
		return o.Size
	default:
		return mgl32.Vec2{1, 1}
	}
}

// TileScale is the factor that stretches a tile image to the object's size.
func (o Object) TileScale(m *Map) (mgl32.Vec2, bool) {
	if o.IsShape() || m == nil {
		return mgl32.Vec2{}, false
	}
	w, h := o.tileImageSize(m)
	if w <= 0 || h <= 0 {
		return mgl32.Vec2{}, false
	}
	dims := o.Dimensions()
	if dims.X() == 0 || dims.Y() == 0 {
		return mgl32.Vec2{1, 1}, true
	}
	return mgl32.Vec2{dims.X() / w, dims.Y() / h}, true
}

func (o Object) tileImageSize(m *Map) (float32, float32) {
	if a, ok := m.Atlases[o.TilesetGID]; ok {
		return float32(a.TileWidth), float32(a.TileHeight)
	}
	ts, def := m.Source.TileDef(o.TilesetGID + o.SpriteIndex)
	if def != nil && def.Image != nil {
		return float32(def.Image.Width), float32(def.Image.Height)
	}
	if ts != nil {
		return float32(ts.TileWidth), float32(ts.TileHeight)
	}
	return 0, 0
}

// LocalCenter returns the object's centre in world space relative to its
// layer, plus the anchor it rotates around.
func (o Object) LocalCenter(m *Map) (center, anchor mgl32.Vec2) {
	x, y := o.Position.X(), o.Position.Y()
	w, h := o.Size.X(), o.Size.Y()
	hasBox := o.Shape == tmx.ShapeRect || o.Shape == tmx.ShapeEllipse || o.Shape == tmx.ShapeText

	if m != nil && m.Orientation == tmx.Isometric {
		// Isometric object coordinates measure both axes in tile heights.
		th := m.TileSize.Y()
		anchor = ProjectIso(mgl32.Vec2{x / th, y / th}, m.TileSize.X(), th)
		switch {
		case !o.IsShape():
			center = anchor.Add(mgl32.Vec2{0, h / 2})
		case hasBox:
			center = ProjectIso(mgl32.Vec2{(x + w/2) / th, (y + h/2) / th}, m.TileSize.X(), th)
		default:
			center = anchor
		}
		return center, anchor
	}

	anchor = mgl32.Vec2{x, -y}
	var d mgl32.Vec2
	switch {
	case !o.IsShape():
		// Tile objects are anchored at their bottom-left corner.
		d = mgl32.Vec2{w / 2, h / 2}
	case hasBox:
		d = mgl32.Vec2{w / 2, -h / 2}
	}
	if o.Rotation != 0 {
		d = rotate(d, -degToRad(o.Rotation))
	}
	return anchor.Add(d), anchor
}

// TransformFromMap places the object under mapTransform. tileScale is nil for
// shape objects.
func (o Object) TransformFromMap(m *Map, mapTransform mgl32.Mat4, tileScale *mgl32.Vec2) mgl32.Mat4 {
	opts := DefaultOptions()
	if m != nil {
		opts = m.Options.withDefaults()
	}
	c, _ := o.LocalCenter(m)
	z := opts.ZOffset - c.Y()/opts.DepthSpan

	t := mapTransform.Mul4(mgl32.Translate3D(c.X(), c.Y(), z))
	if o.Rotation != 0 {
		t = t.Mul4(mgl32.HomogRotate3DZ(-degToRad(o.Rotation)))
	}
	if tileScale != nil {
		t = t.Mul4(mgl32.Scale3D(tileScale.X(), tileScale.Y(), 1))
	}
	return t
}

// WorldPoints returns polygon or polyline vertices in layer space.
func (o Object) WorldPoints(m *Map) []mgl32.Vec2 {
	out := make([]mgl32.Vec2, 0, len(o.Points))
	for _, p := range o.Points {
		out = append(out, o.toLayer(m, p))
	}
	return out
}

const ellipseSegments = 24

// Outline returns the object's shape in layer space. closed is false for
// polylines. Points yield their single position.
func (o Object) Outline(m *Map) (pts []mgl32.Vec2, closed bool) {
	w, h := o.Size.X(), o.Size.Y()
	if !o.IsShape() {
		// Tile objects grow upward from their anchor.
		for _, p := range []mgl32.Vec2{{0, 0}, {w, 0}, {w, -h}, {0, -h}} {
			pts = append(pts, o.toLayer(m, p))
		}
		return pts, true
	}
	switch o.Shape {
	case tmx.ShapeRect, tmx.ShapeText:
		for _, p := range []mgl32.Vec2{{0, 0}, {w, 0}, {w, h}, {0, h}} {
			pts = append(pts, o.toLayer(m, p))
		}
		return pts, true
	case tmx.ShapeEllipse:
		for i := 0; i < ellipseSegments; i++ {
			a := 2 * math.Pi * float64(i) / ellipseSegments
			s, c := math.Sincos(a)
			p := mgl32.Vec2{w/2 + w/2*float32(c), h/2 + h/2*float32(s)}
			pts = append(pts, o.toLayer(m, p))
		}
		return pts, true
	case tmx.ShapePolygon:
		return o.WorldPoints(m), true
	case tmx.ShapePolyline:
		return o.WorldPoints(m), false
	default:
		return []mgl32.Vec2{o.toLayer(m, mgl32.Vec2{})}, false
	}
}

// toLayer maps an offset from the object's position, in map pixels with y
// down, into layer space.
func (o Object) toLayer(m *Map, p mgl32.Vec2) mgl32.Vec2 {
	if m != nil && m.Orientation == tmx.Isometric {
		th := m.TileSize.Y()
		q := o.Position.Add(p)
		return ProjectIso(mgl32.Vec2{q.X() / th, q.Y() / th}, m.TileSize.X(), th)
	}
	d := mgl32.Vec2{p.X(), -p.Y()}
	if o.Rotation != 0 {
		d = rotate(d, -degToRad(o.Rotation))
	}
	return mgl32.Vec2{o.Position.X(), -o.Position.Y()}.Add(d)
}

func degToRad(d float32) float32 {
	return d * math.Pi / 180
}

func rotate(v mgl32.Vec2, rad float32) mgl32.Vec2 {
	s, c := math.Sincos(float64(rad))
	return mgl32.Vec2{
		v.X()*float32(c) - v.Y()*float32(s),
		v.X()*float32(s) + v.Y()*float32(c),
	}
}
