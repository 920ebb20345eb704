package tiled

import (
	"time"

	"github.com/milk9111/tiledmap/tmx"
)

type Frame struct {
	TileID   uint32
	Duration time.Duration
}

// Animation cycles through frames, looping at the end.
type Animation struct {
	Frames  []Frame
	Current int
	Elapsed time.Duration
}

func NewAnimation(frames []tmx.Frame) Animation {
	a := Animation{Frames: make([]Frame, 0, len(frames))}
	for _, f := range frames {
		a.Frames = append(a.Frames, Frame{TileID: f.TileID, Duration: time.Duration(f.Duration) * time.Millisecond})
	}
	return a
}

func (a *Animation) Frame() Frame {
	if a == nil || len(a.Frames) == 0 {
		return Frame{}
	}
	return a.Frames[a.Current]
}

// Advance moves time forward by dt and reports whether the shown frame
// changed. A zero-length frame holds the animation.
func (a *Animation) Advance(dt time.Duration) bool {
	if a == nil || len(a.Frames) < 2 || dt <= 0 {
		return false
	}
	start := a.Current
	a.Elapsed += dt
	for {
		d := a.Frames[a.Current].Duration
		if d <= 0 || a.Elapsed < d {
			break
		}
		a.Elapsed -= d
		a.Current = (a.Current + 1) % len(a.Frames)
	}
	return a.Current != start
}

// AnimatedTile points at one quad of one chunk mesh.
type AnimatedTile struct {
	Mesh       int
	Quad       int
	TilesetGID uint32
	Flip       tmx.Flip
	Animation  Animation
}
