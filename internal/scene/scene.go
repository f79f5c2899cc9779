// Package scene projects a nebula world into screen space: star sprites and
// near-plane clipped beam polygons, ready for any additive-blending renderer.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/tomz197/nebula/internal/draw"
	"github.com/tomz197/nebula/internal/nebula"
)

// Sprite is a projected star.
type Sprite struct {
	X, Y   float64 // Center in viewport pixels, Y down
	Radius float64 // Viewport pixels
	Depth  float64 // Distance from the camera
	Color  colorful.Color
}

// Polygon is a projected, clipped beam.
type Polygon struct {
	Points []draw.Point // Viewport pixels, Y down
	Color  colorful.Color
	Alpha  float64
}

// Premultiplied returns the polygon color with Alpha applied once, as
// premultiplied RGBA in [0, 1].
func (p *Polygon) Premultiplied() (r, g, b, a float32) {
	c := p.Color.Clamped()
	a = float32(p.Alpha)
	return float32(c.R) * a, float32(c.G) * a, float32(c.B) * a, a
}

// Frame holds the projected scene. Slices are reused across Build calls and
// are only valid until the next one.
type Frame struct {
	Width, Height float64
	Sprites       []Sprite
	Beams         []Polygon

	clipIn  []mgl64.Vec3
	clipOut []mgl64.Vec3
}

// Build projects the world into a viewport of the given size.
func (f *Frame) Build(w *nebula.World, width, height float64) {
	f.Width = width
	f.Height = height
	f.Sprites = f.Sprites[:0]
	f.Beams = f.Beams[:0]
	if width <= 0 || height <= 0 {
		return
	}

	view := w.Camera.View()
	proj := w.Camera.Projection()
	near := w.Camera.Near

	f.buildBeams(w, view, proj, near)
	f.buildSprites(w, view, proj, near)
}

// buildSprites projects every star with the particle system rotation.
func (f *Frame) buildSprites(w *nebula.World, view, proj mgl64.Mat4, near float64) {
	model := RotationXY(w.ParticleRotation.X, w.ParticleRotation.Y)
	mv := view.Mul4(model)
	scale := f.Height / 2

	for i := range w.Stars {
		v := mv.Mul4x1(w.Stars[i].Pos.Vec4(1)).Vec3()
		if -v[2] < near {
			continue // Behind the camera
		}
		dist := v.Len()
		x, y := f.toScreen(proj, v)
		radius := nebula.StarSize * scale / dist / 2
		if x+radius < 0 || x-radius > f.Width || y+radius < 0 || y-radius > f.Height {
			continue
		}
		f.Sprites = append(f.Sprites, Sprite{
			X:      x,
			Y:      y,
			Radius: radius,
			Depth:  dist,
			Color:  Hue(w.Stars[i].Hue),
		})
	}
}

// buildBeams projects each beam plane, clipped against the near plane.
func (f *Frame) buildBeams(w *nebula.World, view, proj mgl64.Mat4, near float64) {
	group := view.Mul4(RotationXY(w.BeamRotation.X, w.BeamRotation.Y))
	hw := nebula.BeamLength / 2
	hh := nebula.BeamWidth / 2
	corners := [4]mgl64.Vec3{{-hw, -hh, 0}, {hw, -hh, 0}, {hw, hh, 0}, {-hw, hh, 0}}

	for i := range w.Beams {
		b := &w.Beams[i]
		mv := group.Mul4(RotationXYZ(b.Rotation))

		f.clipIn = f.clipIn[:0]
		for _, c := range corners {
			f.clipIn = append(f.clipIn, mv.Mul4x1(c.Vec4(1)).Vec3())
		}
		f.clipOut = ClipNear(f.clipOut[:0], f.clipIn, near)
		if len(f.clipOut) < 3 {
			continue
		}

		n := len(f.Beams)
		if n < cap(f.Beams) {
			f.Beams = f.Beams[:n+1]
		} else {
			f.Beams = append(f.Beams, Polygon{})
		}
		poly := &f.Beams[n]
		poly.Points = poly.Points[:0]
		poly.Color = Hue(b.Hue)
		poly.Alpha = nebula.BeamOpacity
		for _, v := range f.clipOut {
			x, y := f.toScreen(proj, v)
			poly.Points = append(poly.Points, draw.Point{X: x, Y: y})
		}
	}
}

// toScreen projects a view-space point to viewport pixels.
func (f *Frame) toScreen(proj mgl64.Mat4, v mgl64.Vec3) (float64, float64) {
	clip := proj.Mul4x1(v.Vec4(1))
	ndcX := clip[0] / clip[3]
	ndcY := clip[1] / clip[3]
	return (ndcX + 1) / 2 * f.Width, (1 - ndcY) / 2 * f.Height
}

// ClipNear clips a convex view-space polygon against the plane z = -near,
// keeping the part in front of the camera. Results are appended to dst.
func ClipNear(dst, poly []mgl64.Vec3, near float64) []mgl64.Vec3 {
	n := len(poly)
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]
		aIn := -a[2] >= near
		bIn := -b[2] >= near

		if aIn {
			dst = append(dst, a)
		}
		if aIn != bIn {
			t := (-near - a[2]) / (b[2] - a[2])
			dst = append(dst, a.Add(b.Sub(a).Mul(t)))
		}
	}
	return dst
}

// RotationXY returns the rotation matrix for Euler angles (x, y, 0).
func RotationXY(x, y float64) mgl64.Mat4 {
	return mgl64.HomogRotate3DX(x).Mul4(mgl64.HomogRotate3DY(y))
}

// RotationXYZ returns the rotation matrix for XYZ-ordered Euler angles.
func RotationXYZ(r mgl64.Vec3) mgl64.Mat4 {
	return mgl64.HomogRotate3DX(r[0]).Mul4(mgl64.HomogRotate3DY(r[1])).Mul4(mgl64.HomogRotate3DZ(r[2]))
}

// Hue returns the fully saturated, full value color for h in [0, 1).
func Hue(h float64) colorful.Color {
	return colorful.Hsv(h*360, 1, 1)
}
