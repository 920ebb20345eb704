package system

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tiledmap/ecs"
	"github.com/milk9111/tiledmap/ecs/component"
)

// TileAnimationSystem steps animated tiles and rewrites their quad UVs.
type TileAnimationSystem struct {
	// Step is the time per update. Zero means one tick at the current TPS.
	Step time.Duration
}

func NewTileAnimationSystem() *TileAnimationSystem {
	return &TileAnimationSystem{}
}

func (s *TileAnimationSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	dt := s.Step
	if dt <= 0 {
		dt = time.Second / time.Duration(max(ebiten.TPS(), 1))
	}

	ecs.ForEach2(w, component.TileMapChunkComponent, component.TileAnimationsComponent, func(_ ecs.Entity, chunk *component.TileMapChunk, anims *component.TileAnimations) {
		for i := range anims.Tiles {
			t := &anims.Tiles[i]
			if !t.Animation.Advance(dt) {
				continue
			}
			chunk.Mesh.SetQuadUVs(t.Quad, anims.Atlas.TileUVs(t.Animation.Frame().TileID, t.Flip))
		}
	})
}
