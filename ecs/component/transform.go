package component

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is an entity's placement relative to its parent. Rotation is in
// radians. A zero scale is read as 1.
type Transform struct {
	X        float64
	Y        float64
	Z        float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64
}

var TransformComponent = NewComponent[Transform]()

func (t Transform) Matrix() mgl32.Mat4 {
	sx, sy := t.ScaleX, t.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	m := mgl32.Translate3D(float32(t.X), float32(t.Y), float32(t.Z))
	if t.Rotation != 0 {
		m = m.Mul4(mgl32.HomogRotate3DZ(float32(t.Rotation)))
	}
	return m.Mul4(mgl32.Scale3D(float32(sx), float32(sy), 1))
}

// TransformFromMatrix reads translation, rotation and scale back out of a
// matrix built from translate, z-rotate and scale. Shear is dropped.
func TransformFromMatrix(m mgl32.Mat4) Transform {
	sx := math.Hypot(float64(m[0]), float64(m[1]))
	sy := math.Hypot(float64(m[4]), float64(m[5]))
	return Transform{
		X:        float64(m[12]),
		Y:        float64(m[13]),
		Z:        float64(m[14]),
		ScaleX:   sx,
		ScaleY:   sy,
		Rotation: math.Atan2(float64(m[1]), float64(m[0])),
	}
}

// GlobalTransform is the world matrix, written by the transform system.
type GlobalTransform struct {
	Matrix mgl32.Mat4
}

var GlobalTransformComponent = NewComponent[GlobalTransform]()

func (g GlobalTransform) Position() mgl32.Vec3 {
	return g.Matrix.Col(3).Vec3()
}
