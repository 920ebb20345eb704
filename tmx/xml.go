package tmx

import "encoding/xml"

type xmlMap struct {
	XMLName         xml.Name      `xml:"map"`
	Version         string        `xml:"version,attr"`
	TiledVersion    string        `xml:"tiledversion,attr"`
	Orientation     string        `xml:"orientation,attr"`
	RenderOrder     string        `xml:"renderorder,attr"`
	Width           int           `xml:"width,attr"`
	Height          int           `xml:"height,attr"`
	TileWidth       int           `xml:"tilewidth,attr"`
	TileHeight      int           `xml:"tileheight,attr"`
	Infinite        int           `xml:"infinite,attr"`
	BackgroundColor string        `xml:"backgroundcolor,attr"`
	Properties      xmlProperties `xml:"properties"`
	Tilesets        []xmlTileset  `xml:"tileset"`
	// Layers, object groups, image layers and groups in document order.
	Layers []xmlLayer `xml:",any"`
}

type xmlProperties struct {
	Props []xmlProperty `xml:"property"`
}

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

type xmlTileset struct {
	XMLName    xml.Name      `xml:"tileset"`
	FirstGID   uint32        `xml:"firstgid,attr"`
	Source     string        `xml:"source,attr"`
	Name       string        `xml:"name,attr"`
	TileWidth  int           `xml:"tilewidth,attr"`
	TileHeight int           `xml:"tileheight,attr"`
	Spacing    int           `xml:"spacing,attr"`
	Margin     int           `xml:"margin,attr"`
	TileCount  int           `xml:"tilecount,attr"`
	Columns    int           `xml:"columns,attr"`
	TileOffset *xmlOffset    `xml:"tileoffset"`
	Image      *xmlImage     `xml:"image"`
	Properties xmlProperties `xml:"properties"`
	Tiles      []xmlTileDef  `xml:"tile"`
}

type xmlOffset struct {
	X int `xml:"x,attr"`
	Y int `xml:"y,attr"`
}

type xmlImage struct {
	Source string `xml:"source,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
	Trans  string `xml:"trans,attr"`
}

type xmlTileDef struct {
	ID         uint32        `xml:"id,attr"`
	Type       string        `xml:"type,attr"`
	Class      string        `xml:"class,attr"`
	Properties xmlProperties `xml:"properties"`
	Image      *xmlImage     `xml:"image"`
	Animation  *struct {
		Frames []xmlFrame `xml:"frame"`
	} `xml:"animation"`
}

type xmlFrame struct {
	TileID   uint32 `xml:"tileid,attr"`
	Duration int    `xml:"duration,attr"`
}

// xmlLayer covers every layer-like element; XMLName tells them apart.
type xmlLayer struct {
	XMLName    xml.Name
	ID         int           `xml:"id,attr"`
	Name       string        `xml:"name,attr"`
	Width      int           `xml:"width,attr"`
	Height     int           `xml:"height,attr"`
	Visible    *int          `xml:"visible,attr"`
	Opacity    *float64      `xml:"opacity,attr"`
	OffsetX    float64       `xml:"offsetx,attr"`
	OffsetY    float64       `xml:"offsety,attr"`
	Properties xmlProperties `xml:"properties"`
	Data       *xmlData      `xml:"data"`
	Objects    []xmlObject   `xml:"object"`
	Image      *xmlImage     `xml:"image"`
	Children   []xmlLayer    `xml:",any"`
}

type xmlData struct {
	Encoding    string     `xml:"encoding,attr"`
	Compression string     `xml:"compression,attr"`
	Text        string     `xml:",chardata"`
	Tiles       []xmlTile  `xml:"tile"`
	Chunks      []xmlChunk `xml:"chunk"`
}

type xmlTile struct {
	GID uint32 `xml:"gid,attr"`
}

type xmlChunk struct {
	X      int       `xml:"x,attr"`
	Y      int       `xml:"y,attr"`
	Width  int       `xml:"width,attr"`
	Height int       `xml:"height,attr"`
	Text   string    `xml:",chardata"`
	Tiles  []xmlTile `xml:"tile"`
}

type xmlObject struct {
	ID         int           `xml:"id,attr"`
	Name       string        `xml:"name,attr"`
	Type       string        `xml:"type,attr"`
	Class      string        `xml:"class,attr"`
	X          float64       `xml:"x,attr"`
	Y          float64       `xml:"y,attr"`
	Width      float64       `xml:"width,attr"`
	Height     float64       `xml:"height,attr"`
	Rotation   float64       `xml:"rotation,attr"`
	GID        uint32        `xml:"gid,attr"`
	Visible    *int          `xml:"visible,attr"`
	Properties xmlProperties `xml:"properties"`
	Ellipse    *struct{}     `xml:"ellipse"`
	Point      *struct{}     `xml:"point"`
	Polygon    *xmlPoints    `xml:"polygon"`
	Polyline   *xmlPoints    `xml:"polyline"`
	Text       *struct{}     `xml:"text"`
}

type xmlPoints struct {
	Points string `xml:"points,attr"`
}
