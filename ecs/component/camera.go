package component

// Camera looks at its Transform position. Zoom <= 0 is treated as 1.
type Camera struct {
	Zoom float64
}

var CameraComponent = NewComponent[Camera]()

// Visible hides an entity and, through the render system, its descendants.
type Visible struct {
	Hidden bool
}

var VisibleComponent = NewComponent[Visible]()
