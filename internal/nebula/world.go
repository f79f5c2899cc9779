// Package nebula simulates the particle field: stars fountaining out of the
// origin, a rotating group of translucent beams and a camera that follows the
// pointer.
package nebula

import "time"

// DefaultWindow is used until the host reports its real size.
var DefaultWindow = Window{Width: 1280, Height: 720}

// Options configures a new world. Zero values take the package defaults.
type Options struct {
	Seed          uint64 // Used when Rand is nil; 0 means time-based
	Rand          Source
	ParticleCount int
	BeamCount     int
	Window        Window
}

// Pointer is the pointer offset from the window center.
type Pointer struct {
	X, Y float64
}

// World holds all mutable simulation state for one running instance.
// It is not safe for concurrent use; the owning loop serializes access.
type World struct {
	Stars []Star
	Beams []Beam

	ParticleRotation Rotation
	BeamRotation     Rotation

	Camera     Camera
	Pointer    Pointer
	SizeFactor float64
	Window     Window
	Viewport   Viewport

	// VerticesDirty is set every step so renderers know star positions
	// changed; renderers clear it after uploading them.
	VerticesDirty bool
	Frame         uint64

	rng Source
}

// New creates a running world: stars at the origin with fresh velocities,
// beams with random hues and orientations, and the camera on the Z axis.
func New(opts Options) *World {
	rng := opts.Rand
	if rng == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		rng = NewSource(seed)
	}
	particleCount := opts.ParticleCount
	if particleCount <= 0 {
		particleCount = ParticleCount
	}
	beamCount := opts.BeamCount
	if beamCount <= 0 {
		beamCount = BeamCount
	}
	win := opts.Window
	if win.Width <= 0 || win.Height <= 0 {
		win = DefaultWindow
	}

	w := &World{
		Stars:      make([]Star, particleCount),
		Beams:      make([]Beam, beamCount),
		Camera:     NewCamera(),
		SizeFactor: InitialSizeFactor,
		rng:        rng,
	}
	for i := range w.Stars {
		w.Stars[i] = NewStar(rng)
	}
	for i := range w.Beams {
		w.Beams[i] = NewBeam(rng)
	}
	w.Resize(win.Width, win.Height)
	return w
}

// Step advances the simulation by one frame.
func (w *World) Step() {
	for i := range w.Stars {
		w.Stars[i].Update(w.rng)
	}

	w.ParticleRotation.Advance(StarRotSpeed)
	w.BeamRotation.Advance(BeamRotSpeed)

	w.Camera.Ease(w.Pointer.X, -w.Pointer.Y, CameraDamping)

	w.VerticesDirty = true
	w.Frame++
}

// Burst sends every star back to the origin with a new velocity.
func (w *World) Burst() {
	for i := range w.Stars {
		w.Stars[i].Reset(w.rng)
	}
}

// PointerMove records the pointer position (window coordinates) as an offset
// from the window center.
func (w *World) PointerMove(x, y float64) {
	w.Pointer = Pointer{
		X: x - w.Window.Width/2,
		Y: y - w.Window.Height/2,
	}
}

// Click bursts the stars if (x, y) falls inside the viewport container.
// Returns whether the click was inside.
func (w *World) Click(x, y float64) bool {
	if !w.Viewport.Contains(x, y) {
		return false
	}
	w.Burst()
	return true
}

// Wheel adjusts the size factor by delta wheel notches and resizes the
// container.
func (w *World) Wheel(delta float64) {
	w.SizeFactor = ClampSizeFactor(w.SizeFactor + delta*WheelStep)
	w.layout()
}

// Resize updates the window dimensions and re-lays out the container.
func (w *World) Resize(width, height float64) {
	w.Window = Window{Width: width, Height: height}
	w.layout()
}

// layout recomputes the container and the camera aspect ratio.
func (w *World) layout() {
	w.Viewport = ComputeViewport(w.Window, w.SizeFactor)
	halfX := w.Window.Width / 2
	halfY := w.Window.Height / 2
	if halfY > 0 {
		w.Camera.Aspect = halfX / halfY
	}
}

// MarkClean clears VerticesDirty after a renderer consumed the positions.
func (w *World) MarkClean() {
	w.VerticesDirty = false
}
