package component

import "github.com/jakecoffman/cp"

// PhysicsBody stores the Chipmunk2D static body of a map object.
type PhysicsBody struct {
	Body   *cp.Body
	Shapes []*cp.Shape
	Type   string
	// Category and Mask feed the shape filter. Zero means category 1 and
	// collide with everything.
	Category uint32
	Mask     uint32
}

var PhysicsBodyComponent = NewComponent[PhysicsBody]()
