package tiled

import "github.com/milk9111/tiledmap/tmx"

// Atlas describes how a tileset image is cut into tiles.
type Atlas struct {
	FirstGID    uint32
	TileWidth   int
	TileHeight  int
	Spacing     int
	Margin      int
	Columns     int
	TileCount   int
	ImageWidth  int
	ImageHeight int
	// Image is relative to the map's directory.
	Image string
}

// NewAtlas returns false for image-collection tilesets and tilesets whose
// image size is unknown.
func NewAtlas(ts *tmx.Tileset) (Atlas, bool) {
	if ts == nil || ts.Image == nil || ts.Image.Width <= 0 || ts.Image.Height <= 0 || ts.TileWidth <= 0 || ts.TileHeight <= 0 {
		return Atlas{}, false
	}
	a := Atlas{
		FirstGID:    ts.FirstGID,
		TileWidth:   ts.TileWidth,
		TileHeight:  ts.TileHeight,
		Spacing:     ts.Spacing,
		Margin:      ts.Margin,
		Columns:     ts.Columns,
		TileCount:   ts.TileCount,
		ImageWidth:  ts.Image.Width,
		ImageHeight: ts.Image.Height,
		Image:       ts.Image.Source,
	}
	if a.Columns <= 0 {
		a.Columns = (a.ImageWidth - 2*a.Margin + a.Spacing) / (a.TileWidth + a.Spacing)
	}
	a.Columns = max(a.Columns, 1)
	if a.TileCount <= 0 {
		rows := max((a.ImageHeight-2*a.Margin+a.Spacing)/(a.TileHeight+a.Spacing), 1)
		a.TileCount = a.Columns * rows
	}
	return a, true
}

// Contains reports whether the flag-stripped gid belongs to this atlas.
func (a Atlas) Contains(gid uint32) bool {
	gid, _ = tmx.DecodeGID(gid)
	return gid >= a.FirstGID && gid < a.FirstGID+uint32(a.TileCount)
}

// SourceRect returns the pixel origin of a local tile id inside the image.
func (a Atlas) SourceRect(id uint32) (x, y int) {
	col := int(id) % a.Columns
	row := int(id) / a.Columns
	x = a.Margin + col*(a.TileWidth+a.Spacing)
	y = a.Margin + row*(a.TileHeight+a.Spacing)
	return x, y
}

// UVRect returns [u0, v0, u1, v1] for a local tile id, normalised by the
// image size with v0 at the top.
func (a Atlas) UVRect(id uint32) [4]float32 {
	x, y := a.SourceRect(id)
	w := float32(a.ImageWidth)
	h := float32(a.ImageHeight)
	return [4]float32{
		float32(x) / w,
		float32(y) / h,
		float32(x+a.TileWidth) / w,
		float32(y+a.TileHeight) / h,
	}
}

// TileUVs is UVRect spread over the quad corners with flips applied.
func (a Atlas) TileUVs(id uint32, flip tmx.Flip) [4][2]float32 {
	return CornerUVs(a.UVRect(id), flip)
}
