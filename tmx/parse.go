package tmx

import (
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"
)

type parser struct {
	fsys fs.FS
	dir  string
}

type Option func(*parser)

// WithFS resolves external tilesets relative to dir inside fsys.
func WithFS(fsys fs.FS, dir string) Option {
	return func(p *parser) {
		p.fsys = fsys
		p.dir = dir
	}
}

// Parse reads a TMX document. Image and tileset paths in the result are
// relative to the map's directory.
func Parse(r io.Reader, opts ...Option) (*Map, error) {
	p := &parser{dir: "."}
	for _, opt := range opts {
		opt(p)
	}

	var raw xmlMap
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("tmx: decode map: %w", err)
	}

	m := &Map{
		Version:         raw.Version,
		TiledVersion:    raw.TiledVersion,
		Orientation:     Orientation(raw.Orientation),
		RenderOrder:     raw.RenderOrder,
		Width:           raw.Width,
		Height:          raw.Height,
		TileWidth:       raw.TileWidth,
		TileHeight:      raw.TileHeight,
		Infinite:        raw.Infinite != 0,
		BackgroundColor: raw.BackgroundColor,
		Properties:      convertProperties(raw.Properties),
	}
	if m.Orientation == "" {
		m.Orientation = Orthogonal
	}

	for _, rts := range raw.Tilesets {
		ts, err := p.tileset(rts)
		if err != nil {
			return nil, err
		}
		m.Tilesets = append(m.Tilesets, ts)
	}

	for _, rl := range raw.Layers {
		layers, err := flattenLayer(rl, m, 0, 0, true, 1)
		if err != nil {
			return nil, err
		}
		m.Layers = append(m.Layers, layers...)
	}
	return m, nil
}

// ParseTileset reads a standalone TSX document. FirstGID is left at zero.
func ParseTileset(r io.Reader) (*Tileset, error) {
	var raw xmlTileset
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("tmx: decode tileset: %w", err)
	}
	return convertTileset(raw), nil
}

func (p *parser) tileset(raw xmlTileset) (*Tileset, error) {
	if raw.Source == "" {
		return convertTileset(raw), nil
	}
	if p.fsys == nil {
		return nil, fmt.Errorf("tmx: tileset %q: no filesystem: %w", raw.Source, ErrTilesetSource)
	}

	src := path.Join(p.dir, raw.Source)
	f, err := p.fsys.Open(src)
	if err != nil {
		return nil, fmt.Errorf("tmx: tileset %q: %v: %w", raw.Source, err, ErrTilesetSource)
	}
	defer f.Close()

	ts, err := ParseTileset(f)
	if err != nil {
		return nil, fmt.Errorf("tmx: tileset %q: %w", raw.Source, err)
	}
	ts.FirstGID = raw.FirstGID
	ts.Source = raw.Source

	// TSX image paths are relative to the TSX file.
	rel := path.Dir(raw.Source)
	if ts.Image != nil {
		ts.Image.Source = path.Join(rel, ts.Image.Source)
	}
	for _, def := range ts.Tiles {
		if def.Image != nil {
			def.Image.Source = path.Join(rel, def.Image.Source)
		}
	}
	return ts, nil
}

func convertTileset(raw xmlTileset) *Tileset {
	ts := &Tileset{
		FirstGID:   raw.FirstGID,
		Name:       raw.Name,
		TileWidth:  raw.TileWidth,
		TileHeight: raw.TileHeight,
		Spacing:    raw.Spacing,
		Margin:     raw.Margin,
		TileCount:  raw.TileCount,
		Columns:    raw.Columns,
		Image:      convertImage(raw.Image),
		Properties: convertProperties(raw.Properties),
		Tiles:      make(map[uint32]*TileDef, len(raw.Tiles)),
	}
	if raw.TileOffset != nil {
		ts.TileOffsetX = raw.TileOffset.X
		ts.TileOffsetY = raw.TileOffset.Y
	}
	for _, rt := range raw.Tiles {
		def := &TileDef{
			ID:         rt.ID,
			Type:       firstNonEmpty(rt.Class, rt.Type),
			Properties: convertProperties(rt.Properties),
			Image:      convertImage(rt.Image),
		}
		if rt.Animation != nil {
			for _, fr := range rt.Animation.Frames {
				def.Animation = append(def.Animation, Frame{TileID: fr.TileID, Duration: fr.Duration})
			}
		}
		ts.Tiles[rt.ID] = def
	}
	// Older collection tilesets omit tilecount.
	if ts.TileCount == 0 {
		for id := range ts.Tiles {
			ts.TileCount = max(ts.TileCount, int(id)+1)
		}
	}
	return ts
}

func convertImage(raw *xmlImage) *Image {
	if raw == nil || raw.Source == "" {
		return nil
	}
	return &Image{Source: raw.Source, Width: raw.Width, Height: raw.Height, Trans: raw.Trans}
}

func convertProperties(raw xmlProperties) Properties {
	if len(raw.Props) == 0 {
		return nil
	}
	out := make(Properties, 0, len(raw.Props))
	for _, rp := range raw.Props {
		typ := PropertyType(rp.Type)
		if typ == "" {
			typ = PropString
		}
		value := rp.Value
		if value == "" {
			value = strings.TrimSpace(rp.Text)
		}
		out = append(out, Property{Name: rp.Name, Type: typ, Value: value})
	}
	return out
}

// flattenLayer converts one layer element. Groups recurse with their offset,
// visibility and opacity folded into the children.
func flattenLayer(raw xmlLayer, m *Map, offX, offY float64, visible bool, opacity float64) ([]*Layer, error) {
	vis := visible && (raw.Visible == nil || *raw.Visible != 0)
	op := opacity
	if raw.Opacity != nil {
		op *= *raw.Opacity
	}
	offX += raw.OffsetX
	offY += raw.OffsetY

	base := Layer{
		ID:         raw.ID,
		Name:       raw.Name,
		Visible:    vis,
		Opacity:    op,
		OffsetX:    offX,
		OffsetY:    offY,
		Width:      raw.Width,
		Height:     raw.Height,
		Properties: convertProperties(raw.Properties),
	}

	switch raw.XMLName.Local {
	case "group":
		var out []*Layer
		for _, child := range raw.Children {
			layers, err := flattenLayer(child, m, offX, offY, vis, op)
			if err != nil {
				return nil, err
			}
			out = append(out, layers...)
		}
		return out, nil

	case "layer":
		l := base
		l.Kind = TileLayer
		if l.Width == 0 && l.Height == 0 {
			l.Width, l.Height = m.Width, m.Height
		}
		if l.Width < 0 || l.Height < 0 {
			return nil, fmt.Errorf("tmx: layer %q: size %dx%d: %w", raw.Name, l.Width, l.Height, ErrInvalidData)
		}
		if err := decodeLayerData(&l, raw.Data); err != nil {
			return nil, fmt.Errorf("tmx: layer %q: %w", raw.Name, err)
		}
		return []*Layer{&l}, nil

	case "objectgroup":
		l := base
		l.Kind = ObjectLayer
		for _, ro := range raw.Objects {
			obj, err := convertObject(ro)
			if err != nil {
				return nil, fmt.Errorf("tmx: object group %q: %w", raw.Name, err)
			}
			l.Objects = append(l.Objects, obj)
		}
		return []*Layer{&l}, nil

	case "imagelayer":
		l := base
		l.Kind = ImageLayer
		l.Image = convertImage(raw.Image)
		return []*Layer{&l}, nil
	}
	return nil, nil
}

func decodeLayerData(l *Layer, data *xmlData) error {
	if data == nil {
		l.Tiles = make([]uint32, l.Width*l.Height)
		return nil
	}

	if len(data.Chunks) > 0 {
		for _, rc := range data.Chunks {
			if rc.Width < 0 || rc.Height < 0 {
				return fmt.Errorf("chunk (%d,%d) size %dx%d: %w", rc.X, rc.Y, rc.Width, rc.Height, ErrInvalidData)
			}
			tiles, err := decodeTiles(data.Encoding, data.Compression, rc.Text, rc.Tiles)
			if err != nil {
				return err
			}
			if len(tiles) != rc.Width*rc.Height {
				return fmt.Errorf("chunk (%d,%d) has %d tiles, want %d: %w", rc.X, rc.Y, len(tiles), rc.Width*rc.Height, ErrInvalidData)
			}
			l.Chunks = append(l.Chunks, Chunk{X: rc.X, Y: rc.Y, Width: rc.Width, Height: rc.Height, Tiles: tiles})
		}
		return nil
	}

	tiles, err := decodeTiles(data.Encoding, data.Compression, data.Text, data.Tiles)
	if err != nil {
		return err
	}
	if len(tiles) != l.Width*l.Height {
		return fmt.Errorf("%d tiles, want %d: %w", len(tiles), l.Width*l.Height, ErrInvalidData)
	}
	l.Tiles = tiles
	return nil
}

func decodeTiles(encoding, compression, text string, xmlTiles []xmlTile) ([]uint32, error) {
	if encoding == "" {
		out := make([]uint32, len(xmlTiles))
		for i, t := range xmlTiles {
			out[i] = t.GID
		}
		return out, nil
	}
	return DecodeData(text, encoding, compression)
}

func convertObject(raw xmlObject) (*Object, error) {
	obj := &Object{
		ID:         raw.ID,
		Name:       raw.Name,
		Type:       firstNonEmpty(raw.Class, raw.Type),
		X:          raw.X,
		Y:          raw.Y,
		Width:      raw.Width,
		Height:     raw.Height,
		Rotation:   raw.Rotation,
		GID:        raw.GID,
		Visible:    raw.Visible == nil || *raw.Visible != 0,
		Properties: convertProperties(raw.Properties),
		Shape:      ShapeRect,
	}

	var err error
	switch {
	case raw.Ellipse != nil:
		obj.Shape = ShapeEllipse
	case raw.Point != nil:
		obj.Shape = ShapePoint
	case raw.Polygon != nil:
		obj.Shape = ShapePolygon
		obj.Points, err = parsePoints(raw.Polygon.Points)
	case raw.Polyline != nil:
		obj.Shape = ShapePolyline
		obj.Points, err = parsePoints(raw.Polyline.Points)
	case raw.Text != nil:
		obj.Shape = ShapeText
	}
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", raw.ID, err)
	}
	return obj, nil
}

// parsePoints reads "x1,y1 x2,y2 ...".
func parsePoints(s string) ([]Point, error) {
	fields := strings.Fields(s)
	out := make([]Point, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("point %q: %w", f, ErrInvalidData)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", f, ErrInvalidData)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", f, ErrInvalidData)
		}
		out = append(out, Point{X: x, Y: y})
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
