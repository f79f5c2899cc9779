// Command nebula-gl draws the nebula in a native window.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tomz197/nebula/internal/config"
	"github.com/tomz197/nebula/internal/gate"
	"github.com/tomz197/nebula/internal/loop"
	"github.com/tomz197/nebula/internal/nebula"
	"github.com/tomz197/nebula/internal/scene"
)

const glowTextureSize = 64

var (
	glowImage    = newGlowImage(glowTextureSize)
	whiteImage   = newWhiteImage()
	glowTexCoord = float32(glowTextureSize)
)

// newGlowImage builds a soft white disc with a squared falloff, tinted per
// star when drawn.
func newGlowImage(size int) *ebiten.Image {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float64(size) / 2
	for y := range size {
		for x := range size {
			d := math.Hypot(float64(x)+0.5-c, float64(y)+0.5-c) / c
			t := max(1-d, 0)
			a := uint8(t * t * 255)
			img.SetRGBA(x, y, color.RGBA{a, a, a, a})
		}
	}
	return ebiten.NewImageFromImage(img)
}

func newWhiteImage() *ebiten.Image {
	img := ebiten.NewImage(3, 3)
	img.Fill(color.White)
	return img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
}

// Game adapts a nebula world to ebiten.
type Game struct {
	world *nebula.World
	frame scene.Frame

	lastCursor image.Point
	vertices   []ebiten.Vertex
	indices    []uint16
	path       vector.Path
}

// NewGame creates a game around a fresh world.
func NewGame(seed uint64, width, height int) *Game {
	return &Game{
		world: nebula.New(nebula.Options{
			Seed:   seed,
			Window: nebula.Window{Width: float64(width), Height: float64(height)},
		}),
		lastCursor: image.Pt(-1, -1),
	}
}

// Update handles input and advances the world by one frame.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	x, y := ebiten.CursorPosition()
	if cur := image.Pt(x, y); cur != g.lastCursor {
		g.world.PointerMove(float64(x), float64(y))
		g.lastCursor = cur
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.world.Click(float64(x), float64(y))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.world.Burst()
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		g.world.Wheel(dy)
	}

	g.world.Step()
	return nil
}

// Draw renders the beams and stars additively inside the container.
func (g *Game) Draw(screen *ebiten.Image) {
	v := g.world.Viewport
	rect := image.Rect(int(v.Left), int(v.Top), int(v.Left+v.Width), int(v.Top+v.Height))
	dst := screen.SubImage(rect).(*ebiten.Image)

	g.frame.Build(g.world, v.Width, v.Height)
	g.drawBeams(dst, float32(v.Left), float32(v.Top))
	g.drawStars(dst, float32(v.Left), float32(v.Top))
	g.world.MarkClean()

	ebitenutil.DebugPrint(screen, fmt.Sprintf("%.0f FPS", ebiten.ActualFPS()))
}

func (g *Game) drawBeams(dst *ebiten.Image, ox, oy float32) {
	// Vertex colors already carry the beam opacity.
	op := &ebiten.DrawTrianglesOptions{
		Blend:          ebiten.BlendLighter,
		ColorScaleMode: ebiten.ColorScaleModePremultipliedAlpha,
		AntiAlias:      true,
	}
	for bi := range g.frame.Beams {
		b := &g.frame.Beams[bi]
		g.path = vector.Path{}
		for i, p := range b.Points {
			if i == 0 {
				g.path.MoveTo(ox+float32(p.X), oy+float32(p.Y))
			} else {
				g.path.LineTo(ox+float32(p.X), oy+float32(p.Y))
			}
		}
		g.path.Close()

		g.vertices, g.indices = g.path.AppendVerticesAndIndicesForFilling(g.vertices[:0], g.indices[:0])
		r, gr, bl, a := b.Premultiplied()
		for i := range g.vertices {
			g.vertices[i].SrcX, g.vertices[i].SrcY = 1, 1
			g.vertices[i].ColorR = r
			g.vertices[i].ColorG = gr
			g.vertices[i].ColorB = bl
			g.vertices[i].ColorA = a
		}
		dst.DrawTriangles(g.vertices, g.indices, whiteImage, op)
	}
}

// drawStars batches every sprite into one draw call.
func (g *Game) drawStars(dst *ebiten.Image, ox, oy float32) {
	g.vertices = g.vertices[:0]
	g.indices = g.indices[:0]
	for _, s := range g.frame.Sprites {
		x, y, rad := ox+float32(s.X), oy+float32(s.Y), float32(s.Radius)
		r, gr, b := s.Color.Clamped().RGB255()
		cr, cg, cb := float32(r)/255, float32(gr)/255, float32(b)/255

		base := uint16(len(g.vertices))
		corners := [4][4]float32{
			{x - rad, y - rad, 0, 0},
			{x + rad, y - rad, glowTexCoord, 0},
			{x - rad, y + rad, 0, glowTexCoord},
			{x + rad, y + rad, glowTexCoord, glowTexCoord},
		}
		for _, c := range corners {
			g.vertices = append(g.vertices, ebiten.Vertex{
				DstX: c[0], DstY: c[1],
				SrcX: c[2], SrcY: c[3],
				ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1,
			})
		}
		g.indices = append(g.indices, base, base+1, base+2, base+1, base+3, base+2)
	}
	if len(g.indices) > 0 {
		op := &ebiten.DrawTrianglesOptions{Blend: ebiten.BlendLighter}
		dst.DrawTriangles(g.vertices, g.indices, glowImage, op)
	}
}

// Layout tracks the window size so the container re-centers on resize.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := float64(outsideWidth), float64(outsideHeight)
	if g.world.Window.Width != w || g.world.Window.Height != h {
		g.world.Resize(w, h)
	}
	return outsideWidth, outsideHeight
}

func main() {
	seed := flag.Uint64("seed", config.GetEnvUint64("NEBULA_SEED", 0), "random seed (0 picks one from the clock)")
	fps := flag.Int("fps", config.GetEnvInt("NEBULA_FPS", loop.DefaultFPS), "target updates per second")
	width := flag.Int("width", int(nebula.DefaultWindow.Width), "window width")
	height := flag.Int("height", int(nebula.DefaultWindow.Height), "window height")
	flag.Parse()

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("nebula")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(*fps)

	if err := ebiten.RunGame(NewGame(*seed, *width, *height)); err != nil {
		// No usable graphics device: explain on the terminal instead.
		if _, werr := gate.AddMessage(gate.MessageOptions{Parent: os.Stderr, ID: "no_gl", Reason: err}); werr != nil {
			fmt.Fprintln(os.Stderr, werr)
		}
		os.Exit(1)
	}
}
