package nebula

import "math"

// Window is the size of the host window in host pixels.
type Window struct {
	Width  float64
	Height float64
}

// Viewport is the drawing container: its size and its top-left position
// inside the window, in host pixels.
type Viewport struct {
	Width  float64
	Height float64
	Left   float64
	Top    float64
}

// ClampSizeFactor constrains a size factor to [MinSizeFactor, MaxSizeFactor].
func ClampSizeFactor(f float64) float64 {
	f = math.Max(f, MinSizeFactor)
	return math.Min(f, MaxSizeFactor)
}

// ComputeViewport sizes the container for the given size factor and centers
// it in the window. Below full size the container is letterboxed at 9:5;
// a factor of exactly MaxSizeFactor fills the whole window height.
func ComputeViewport(win Window, sizeFactor float64) Viewport {
	w := win.Width * sizeFactor
	h := w * LetterboxAspect
	if sizeFactor == MaxSizeFactor {
		h = win.Height
	}
	return Viewport{
		Width:  w,
		Height: h,
		Left:   (win.Width - w) / 2,
		Top:    (win.Height - h) / 2,
	}
}

// Contains reports whether the window point (x, y) lies inside the container.
func (v Viewport) Contains(x, y float64) bool {
	return x >= v.Left && x < v.Left+v.Width && y >= v.Top && y < v.Top+v.Height
}
