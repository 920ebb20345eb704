package tiled

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/tiledmap/tmx"
)

const DefaultChunkSize = 32

// TileChunk is one placed tile. Vertex and UV are [x0, y0, x1, y1] and
// [u0, v0, u1, v1].
type TileChunk struct {
	GID    uint32
	Pos    [2]int
	Cell   [2]int
	Vertex [4]float32
	UV     [4]float32
	Flip   tmx.Flip
}

type LayerChunk struct {
	Position [2]int
	Tiles    []TileChunk
}

// TilesetLayer holds the tiles of one layer that come from one tileset,
// indexed [chunkX][chunkY].
type TilesetLayer struct {
	TileSize   mgl32.Vec2
	TilesetGID uint32
	Chunks     [][]LayerChunk
}

type ChunkMesh struct {
	LayerID    int
	TilesetGID uint32
	ChunkX     int
	ChunkY     int
	Mesh       *Mesh
}

func chunkCount(tiles, size int) int {
	return max(1, (tiles+size-1)/size)
}

func (m *Map) buildTilesetLayers(l *tmx.Layer) []TilesetLayer {
	g := l.Grid()
	cs := m.ChunkSize
	nx := chunkCount(g.Width, cs)
	ny := chunkCount(g.Height, cs)

	var out []TilesetLayer
	for _, ts := range m.Source.Tilesets {
		atlas, ok := m.Atlases[ts.FirstGID]
		if !ok {
			continue
		}
		tl := TilesetLayer{
			TileSize:   mgl32.Vec2{float32(ts.TileWidth), float32(ts.TileHeight)},
			TilesetGID: ts.FirstGID,
			Chunks:     make([][]LayerChunk, nx),
		}
		for cx := 0; cx < nx; cx++ {
			tl.Chunks[cx] = make([]LayerChunk, ny)
			for cy := 0; cy < ny; cy++ {
				chunk := LayerChunk{Position: [2]int{cx, cy}}
				for ty := 0; ty < cs; ty++ {
					for tx := 0; tx < cs; tx++ {
						lx, ly := cx*cs+tx, cy*cs+ty
						if lx >= g.Width || ly >= g.Height {
							continue
						}
						raw := g.At(lx, ly)
						gid, flip := tmx.DecodeGID(raw)
						if gid == 0 || !atlas.Contains(gid) {
							continue
						}
						cell := [2]int{g.X + lx, g.Y + ly}
						chunk.Tiles = append(chunk.Tiles, TileChunk{
							GID:    raw,
							Pos:    [2]int{tx, ty},
							Cell:   cell,
							Vertex: m.tileRect(cell, ts),
							UV:     atlas.UVRect(gid - ts.FirstGID),
							Flip:   flip,
						})
					}
				}
				tl.Chunks[cx][cy] = chunk
			}
		}
		out = append(out, tl)
	}
	return out
}

// tileRect places a tile image in its map cell. Images taller or wider than
// the map grid are anchored at the cell's bottom.
func (m *Map) tileRect(cell [2]int, ts *tmx.Tileset) [4]float32 {
	mw, mh := m.TileSize.X(), m.TileSize.Y()
	tw, th := float32(ts.TileWidth), float32(ts.TileHeight)
	pos := mgl32.Vec2{float32(cell[0]), float32(cell[1])}

	var x0, y0 float32
	switch m.Orientation {
	case tmx.Isometric:
		p := ProjectIso(pos, mw, mh)
		x0 = p.X() - tw/2
		y0 = p.Y() - mh
	default:
		p := ProjectOrtho(pos, mw, mh)
		x0 = p.X()
		y0 = p.Y() - mh
	}
	x0 += float32(ts.TileOffsetX)
	y0 -= float32(ts.TileOffsetY)
	return [4]float32{x0, y0, x0 + tw, y0 + th}
}

func (m *Map) buildMeshes() {
	for _, layer := range m.Layers {
		for _, tl := range layer.TilesetLayers {
			for cx := range tl.Chunks {
				for cy := range tl.Chunks[cx] {
					chunk := tl.Chunks[cx][cy]
					if len(chunk.Tiles) == 0 {
						continue
					}
					mesh := &Mesh{}
					meshIndex := len(m.Meshes)
					for q, tile := range chunk.Tiles {
						mesh.AddQuad(tile.Vertex, CornerUVs(tile.UV, tile.Flip))
						m.addAnimation(meshIndex, q, tl.TilesetGID, tile)
					}
					m.Meshes = append(m.Meshes, ChunkMesh{
						LayerID:    layer.Index,
						TilesetGID: tl.TilesetGID,
						ChunkX:     cx,
						ChunkY:     cy,
						Mesh:       mesh,
					})
				}
			}
		}
	}
}

func (m *Map) addAnimation(meshIndex, quad int, firstGID uint32, tile TileChunk) {
	_, def := m.Source.TileDef(tile.GID)
	if def == nil || len(def.Animation) < 2 {
		return
	}
	m.Animated = append(m.Animated, AnimatedTile{
		Mesh:       meshIndex,
		Quad:       quad,
		TilesetGID: firstGID,
		Flip:       tile.Flip,
		Animation:  NewAnimation(def.Animation),
	})
}
