package nebula

import "github.com/go-gl/mathgl/mgl64"

// Camera is a perspective camera that always looks at the origin.
type Camera struct {
	Position mgl64.Vec3
	FOV      float64 // Vertical field of view in degrees
	Aspect   float64
	Near     float64
	Far      float64
}

// NewCamera returns the camera in its starting position on the Z axis.
func NewCamera() Camera {
	return Camera{
		Position: mgl64.Vec3{0, 0, CameraDistance},
		FOV:      CameraFOV,
		Aspect:   4.0 / 3.0,
		Near:     CameraNear,
		Far:      CameraFar,
	}
}

// Ease moves the camera a fraction of the way toward (x, y) on each axis.
// Z is left alone.
func (c *Camera) Ease(x, y, damping float64) {
	c.Position[0] += (x - c.Position[0]) * damping
	c.Position[1] += (y - c.Position[1]) * damping
}

// View returns the world-to-camera matrix.
func (c Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, Origin, mgl64.Vec3{0, 1, 0})
}

// Projection returns the perspective projection matrix.
func (c Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}
