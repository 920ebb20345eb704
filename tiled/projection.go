package tiled

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// World space has y pointing up, so tile rows grow downward into negative y.

func ProjectOrtho(pos mgl32.Vec2, tileWidth, tileHeight float32) mgl32.Vec2 {
	return mgl32.Vec2{tileWidth * pos.X(), -tileHeight * pos.Y()}
}

func UnprojectOrtho(pos mgl32.Vec2, tileWidth, tileHeight float32) mgl32.Vec2 {
	return mgl32.Vec2{pos.X() / tileWidth, -pos.Y() / tileHeight}
}

func ProjectIso(pos mgl32.Vec2, tileWidth, tileHeight float32) mgl32.Vec2 {
	x := (pos.X() - pos.Y()) * tileWidth / 2
	y := (pos.X() + pos.Y()) * tileHeight / 2
	return mgl32.Vec2{x, -y}
}

// UnprojectIso returns the nearest tile coordinate.
func UnprojectIso(pos mgl32.Vec2, tileWidth, tileHeight float32) mgl32.Vec2 {
	p := unprojectIso(pos, tileWidth, tileHeight)
	return mgl32.Vec2{round(p.X()), round(p.Y())}
}

func unprojectIso(pos mgl32.Vec2, tileWidth, tileHeight float32) mgl32.Vec2 {
	hw := tileWidth / 2
	hh := tileHeight / 2
	x := (pos.X()/hw + -pos.Y()/hh) / 2
	y := (-pos.Y()/hh - pos.X()/hw) / 2
	return mgl32.Vec2{x, y}
}

func round(v float32) float32 {
	return float32(math.Round(float64(v)))
}

func floor(v float32) float32 {
	return float32(math.Floor(float64(v)))
}
