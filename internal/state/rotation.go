package state

// RotationValues are the preview camera and viewport parameters. Rotation is
// in degrees.
type RotationValues struct {
	X      float64
	Y      float64
	Z      float64
	Zoom   float64
	FOV    float64
	Width  float64
	Height float64
}

// DefaultRotation is the preview's starting position.
var DefaultRotation = RotationValues{
	X:      0,
	Y:      0,
	Z:      0,
	Zoom:   1,
	FOV:    75,
	Width:  400,
	Height: 400,
}

type RotationStore interface {
	Get() RotationValues
	Set(RotationValues)
	Update(func(RotationValues) RotationValues)
	Subscribe(func(RotationValues)) func()
}

type rotationStore struct {
	*Cell[RotationValues]
}

func NewRotationStore() RotationStore {
	return &rotationStore{Cell: NewCell(DefaultRotation)}
}
