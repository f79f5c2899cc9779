package nebula

import "github.com/go-gl/mathgl/mgl64"

// Origin is the point every star is emitted from.
var Origin = mgl64.Vec3{}

// Star is a point particle drifting away from the origin at constant velocity.
type Star struct {
	Pos mgl64.Vec3
	Vel mgl64.Vec3 // Fixed until the next reset
	Hue float64    // [0, 1), fixed for the star's lifetime
}

// NewStar creates a star at the origin with a random velocity and hue.
func NewStar(rng Source) Star {
	s := Star{Hue: rng.Float64()}
	s.Reset(rng)
	return s
}

// Reset moves the star back to the origin and draws a fresh velocity with
// each component in [-MaxSpeed, MaxSpeed].
func (s *Star) Reset(rng Source) {
	s.Pos = Origin
	s.Vel = mgl64.Vec3{
		randRange(rng, -MaxSpeed, MaxSpeed),
		randRange(rng, -MaxSpeed, MaxSpeed),
		randRange(rng, -MaxSpeed, MaxSpeed),
	}
}

// Update advances the star by one frame. Returns true if the star left the
// sphere and was reset.
func (s *Star) Update(rng Source) bool {
	s.Pos = s.Pos.Add(s.Vel)
	if s.Pos.Sub(Origin).Len() > MaxDistance {
		s.Reset(rng)
		return true
	}
	return false
}
