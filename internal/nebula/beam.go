package nebula

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Beam is a static translucent plane in the rotating backdrop group.
type Beam struct {
	Hue      float64    // [0, 1)
	Rotation mgl64.Vec3 // Euler XYZ, each axis in [0, π)
}

// NewBeam creates a beam with a random hue and orientation.
func NewBeam(rng Source) Beam {
	return Beam{
		Hue: rng.Float64(),
		Rotation: mgl64.Vec3{
			rng.Float64() * math.Pi,
			rng.Float64() * math.Pi,
			rng.Float64() * math.Pi,
		},
	}
}

// Rotation holds the Euler angles of a rotating group. Angles are raw and
// grow without bound.
type Rotation struct {
	X, Y float64
}

// Advance adds the same increment to both axes.
func (r *Rotation) Advance(delta float64) {
	r.X += delta
	r.Y += delta
}
