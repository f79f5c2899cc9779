package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/tomz197/nebula/internal/nebula"
)

func singleStarWorld(pos mgl64.Vec3) *nebula.World {
	w := nebula.New(nebula.Options{Seed: 3, ParticleCount: 1, BeamCount: 1})
	w.Stars[0].Pos = pos
	return w
}

func TestBuildStarAtOriginProjectsToCenter(t *testing.T) {
	w := singleStarWorld(nebula.Origin)
	var f Frame
	f.Build(w, 400, 200)

	if len(f.Sprites) != 1 {
		t.Fatalf("sprites = %d, want 1", len(f.Sprites))
	}
	s := f.Sprites[0]
	if math.Abs(s.X-200) > 1e-6 || math.Abs(s.Y-100) > 1e-6 {
		t.Errorf("sprite at (%v, %v), want (200, 100)", s.X, s.Y)
	}
	wantRadius := nebula.StarSize * 100 / nebula.CameraDistance / 2
	if math.Abs(s.Radius-wantRadius) > 1e-6 {
		t.Errorf("radius = %v, want %v", s.Radius, wantRadius)
	}
	if math.Abs(s.Depth-nebula.CameraDistance) > 1e-6 {
		t.Errorf("depth = %v, want %v", s.Depth, nebula.CameraDistance)
	}
}

func TestBuildCullsStarsBehindCamera(t *testing.T) {
	w := singleStarWorld(mgl64.Vec3{0, 0, nebula.CameraDistance + 500})
	var f Frame
	f.Build(w, 400, 200)
	if len(f.Sprites) != 0 {
		t.Errorf("sprites = %d, want star behind camera culled", len(f.Sprites))
	}
}

func TestBuildStarUpIsAboveCenter(t *testing.T) {
	w := singleStarWorld(mgl64.Vec3{0, 100, 0})
	var f Frame
	f.Build(w, 400, 200)
	if len(f.Sprites) != 1 {
		t.Fatalf("sprites = %d, want 1", len(f.Sprites))
	}
	if f.Sprites[0].Y >= 100 {
		t.Errorf("star above origin drawn at y=%v, want above center", f.Sprites[0].Y)
	}
}

func TestBuildEmptyViewport(t *testing.T) {
	w := singleStarWorld(nebula.Origin)
	var f Frame
	f.Build(w, 0, 0)
	if len(f.Sprites) != 0 || len(f.Beams) != 0 {
		t.Errorf("empty viewport produced %d sprites %d beams", len(f.Sprites), len(f.Beams))
	}
}

func TestBuildBeams(t *testing.T) {
	w := nebula.New(nebula.Options{Seed: 11})
	var f Frame
	for i := 0; i < 3; i++ {
		w.Step()
		f.Build(w, 640, 360)
		if len(f.Beams) == 0 {
			t.Fatal("no beams projected")
		}
		for j, b := range f.Beams {
			if len(b.Points) < 3 {
				t.Fatalf("beam %d has %d points", j, len(b.Points))
			}
			if b.Alpha != nebula.BeamOpacity {
				t.Fatalf("beam %d alpha = %v", j, b.Alpha)
			}
		}
	}
}

func TestBuildReusesBuffers(t *testing.T) {
	w := nebula.New(nebula.Options{Seed: 5})
	var f Frame
	f.Build(w, 640, 360)
	spriteCap := cap(f.Sprites)
	f.Build(w, 640, 360)
	if cap(f.Sprites) != spriteCap {
		t.Errorf("sprite buffer reallocated: cap %d -> %d", spriteCap, cap(f.Sprites))
	}
}

func TestClipNear(t *testing.T) {
	square := func(z1, z2 float64) []mgl64.Vec3 {
		return []mgl64.Vec3{{-1, -1, z1}, {1, -1, z1}, {1, 1, z2}, {-1, 1, z2}}
	}
	tests := []struct {
		name  string
		poly  []mgl64.Vec3
		count int
	}{
		{"fully in front", square(-10, -10), 4},
		{"fully behind", square(5, 5), 0},
		{"straddling", square(-10, 10), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ClipNear(nil, tt.poly, 1)
			if len(out) != tt.count {
				t.Fatalf("points = %d, want %d", len(out), tt.count)
			}
			for _, p := range out {
				if -p[2] < 1-1e-9 {
					t.Errorf("point %v behind near plane", p)
				}
			}
		})
	}
}

func TestHue(t *testing.T) {
	r, g, b := Hue(0).RGB255()
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("Hue(0) = %d,%d,%d, want red", r, g, b)
	}
	r, g, b = Hue(1.0 / 3).RGB255()
	if r != 0 || g != 255 || b != 0 {
		t.Errorf("Hue(1/3) = %d,%d,%d, want green", r, g, b)
	}
}

func TestPolygonPremultiplied(t *testing.T) {
	tests := []struct {
		name       string
		poly       Polygon
		r, g, b, a float32
	}{
		{"beam opacity", Polygon{Color: colorful.Color{R: 1, G: 1, B: 1}, Alpha: 0.15}, 0.15, 0.15, 0.15, 0.15},
		{"red half", Polygon{Color: colorful.Color{R: 1}, Alpha: 0.5}, 0.5, 0, 0, 0.5},
		{"out of gamut clamps", Polygon{Color: colorful.Color{R: 2, B: -1}, Alpha: 1}, 1, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.poly.Premultiplied()
			if !near32(r, tt.r) || !near32(g, tt.g) || !near32(b, tt.b) || !near32(a, tt.a) {
				t.Errorf("got (%v,%v,%v,%v), want (%v,%v,%v,%v)", r, g, b, a, tt.r, tt.g, tt.b, tt.a)
			}
		})
	}
}

func near32(a, b float32) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}
