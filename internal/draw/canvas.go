package draw

import (
	"image/color"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

// Canvas is an RGB drawing buffer with 2x vertical resolution using half-block characters.
// Pixels accumulate light additively. Supports scaling from logical coordinates to actual
// terminal pixels.
type Canvas struct {
	termWidth      int              // Actual terminal columns
	termHeight     int              // Actual terminal rows
	subPixelHeight int              // termHeight * 2
	pixels         []colorful.Color // Flat slice: [y * termWidth + x], unclamped light

	// Scaling from logical to pixel coordinates
	logicalWidth  float64 // Target/logical width
	logicalHeight float64 // Target/logical height (in sub-pixels)
	scaleX        float64 // termWidth / logicalWidth
	scaleY        float64 // (termHeight*2) / logicalHeight
	originX       float64 // Logical coordinate drawn at the left edge
	originY       float64 // Logical coordinate drawn at the top edge

	// Offset for positioning the render area inside the terminal.
	// These are 0-based terminal offsets (columns/rows to skip).
	offsetCol int
	offsetRow int

	// Previously rendered cells; only changed cells are written.
	prev      []cell
	prevValid bool

	profile  termenv.Profile
	seqCache map[cell]string

	// Reusable buffers to reduce allocations
	renderBuf       strings.Builder // Buffer for batching render output
	scaledBuf       []Point         // Reusable buffer for fillPolygon scaled points
	intersectionBuf []float64       // Reusable buffer for scanline intersections
	numBuf          [20]byte
}

type rgb struct {
	r, g, b uint8
}

// cell is one terminal character: the upper and lower half-block pixels.
type cell struct {
	top, bottom rgb
}

// maxSeqCache bounds the color sequence cache.
const maxSeqCache = 4096

// NewCanvas creates a canvas for the given terminal dimensions.
// The canvas has 2x vertical resolution (height*2 sub-pixels).
// No scaling is applied (1:1 mapping).
func NewCanvas(width, height int) *Canvas {
	return NewScaledCanvas(width, height, float64(width), float64(height*2))
}

// NewScaledCanvas creates a canvas that scales from logical coordinates to terminal pixels.
// logicalWidth/Height define the coordinate space used by the scene.
// termWidth/Height are the actual terminal dimensions.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{
		profile:  termenv.TrueColor,
		seqCache: make(map[cell]string),
	}
	c.logicalWidth = logicalWidth
	c.logicalHeight = logicalHeight
	c.Resize(termWidth, termHeight)
	return c
}

// Resize updates the canvas for new terminal dimensions while keeping logical size.
func (c *Canvas) Resize(termWidth, termHeight int) {
	termWidth = max(termWidth, 0)
	termHeight = max(termHeight, 0)
	subPixelHeight := termHeight * 2

	// Reallocate if size changed
	if termWidth != c.termWidth || termHeight != c.termHeight || c.pixels == nil {
		c.pixels = make([]colorful.Color, subPixelHeight*termWidth)
		c.prev = make([]cell, termWidth*termHeight)
		c.prevValid = false
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = subPixelHeight
	}

	c.updateScale()
}

// SetLogicalSize changes the logical coordinate space, keeping the terminal size.
func (c *Canvas) SetLogicalSize(logicalWidth, logicalHeight float64) {
	c.logicalWidth = logicalWidth
	c.logicalHeight = logicalHeight
	c.updateScale()
}

func (c *Canvas) updateScale() {
	c.scaleX, c.scaleY = 0, 0
	if c.logicalWidth > 0 {
		c.scaleX = float64(c.termWidth) / c.logicalWidth
	}
	if c.logicalHeight > 0 {
		c.scaleY = float64(c.subPixelHeight) / c.logicalHeight
	}
}

// SetOrigin sets the logical coordinate that lands on the canvas top-left
// corner. Content above or left of it is cropped.
func (c *Canvas) SetOrigin(x, y float64) {
	c.originX = x
	c.originY = y
}

// SetOffset sets the column and row offset of the canvas inside the terminal.
// Offsets are 0-based terminal positions: the canvas starts at (offsetCol+1, offsetRow+1).
func (c *Canvas) SetOffset(col, row int) {
	if col != c.offsetCol || row != c.offsetRow {
		c.prevValid = false
	}
	c.offsetCol = col
	c.offsetRow = row
}

// SetProfile sets the terminal color profile used when rendering.
func (c *Canvas) SetProfile(p termenv.Profile) {
	if p != c.profile {
		clear(c.seqCache)
		c.prevValid = false
	}
	c.profile = p
}

// Clear resets all pixels in the canvas to black.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// ForceRedraw makes the next Render write every cell, e.g. after the
// terminal was cleared.
func (c *Canvas) ForceRedraw() {
	c.prevValid = false
}

// blendPixel adds light at actual terminal coordinates (no scaling).
func (c *Canvas) blendPixel(x, y int, col colorful.Color, alpha float64) {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		p := &c.pixels[y*c.termWidth+x]
		p.R += col.R * alpha
		p.G += col.G * alpha
		p.B += col.B * alpha
	}
}

// Blend adds light at logical coordinates (applies scaling).
func (c *Canvas) Blend(x, y float64, col colorful.Color, alpha float64) {
	px := int(math.Round((x - c.originX) * c.scaleX))
	py := int(math.Round((y - c.originY) * c.scaleY))
	c.blendPixel(px, py, col, alpha)
}

// At returns the clamped color at actual pixel coordinates.
func (c *Canvas) At(x, y int) colorful.Color {
	if x < 0 || x >= c.termWidth || y < 0 || y >= c.subPixelHeight {
		return colorful.Color{}
	}
	return c.pixels[y*c.termWidth+x].Clamped()
}

// DrawGlow draws a soft round sprite: light falls off quadratically from the
// center to the radius. Center and radius are logical.
func (c *Canvas) DrawGlow(cx, cy, radius float64, col colorful.Color, intensity float64) {
	px := (cx - c.originX) * c.scaleX
	py := (cy - c.originY) * c.scaleY
	rx := radius * c.scaleX
	ry := radius * c.scaleY
	if rx < 0.5 || ry < 0.5 {
		c.blendPixel(int(math.Round(px)), int(math.Round(py)), col, intensity)
		return
	}

	xStart := max(int(math.Floor(px-rx)), 0)
	xEnd := min(int(math.Ceil(px+rx)), c.termWidth-1)
	yStart := max(int(math.Floor(py-ry)), 0)
	yEnd := min(int(math.Ceil(py+ry)), c.subPixelHeight-1)

	for y := yStart; y <= yEnd; y++ {
		dy := (float64(y) + 0.5 - py) / ry
		for x := xStart; x <= xEnd; x++ {
			dx := (float64(x) + 0.5 - px) / rx
			d := math.Sqrt(dx*dx + dy*dy)
			if d >= 1 {
				continue
			}
			falloff := 1 - d
			c.blendPixel(x, y, col, intensity*falloff*falloff)
		}
	}
}

// FillPolygon fills a polygon with the given opacity using a scanline
// algorithm. Points are logical; filling works in pixel space.
func (c *Canvas) FillPolygon(points []Point, col colorful.Color, alpha float64) {
	if len(points) < 3 {
		return
	}

	// Reuse or grow scaled points buffer
	if cap(c.scaledBuf) < len(points) {
		c.scaledBuf = make([]Point, len(points))
	}
	scaled := c.scaledBuf[:len(points)]

	// Scale points to pixel coordinates
	for i, p := range points {
		scaled[i] = Point{
			X: (p.X - c.originX) * c.scaleX,
			Y: (p.Y - c.originY) * c.scaleY,
		}
	}

	// Find bounding box in pixel space
	minY, maxY := scaled[0].Y, scaled[0].Y
	for _, p := range scaled {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	yStart := max(int(math.Floor(minY)), 0)
	yEnd := min(int(math.Ceil(maxY)), c.subPixelHeight-1)

	// Scanline fill in pixel space
	for y := yStart; y <= yEnd; y++ {
		scanY := float64(y) + 0.5

		// Reuse intersection buffer
		intersections := c.intersectionBuf[:0]

		// Find intersections with all edges
		n := len(scaled)
		for i := 0; i < n; i++ {
			p1 := scaled[i]
			p2 := scaled[(i+1)%n]

			if (p1.Y <= scanY && p2.Y > scanY) || (p2.Y <= scanY && p1.Y > scanY) {
				t := (scanY - p1.Y) / (p2.Y - p1.Y)
				x := p1.X + t*(p2.X-p1.X)
				intersections = append(intersections, x)
			}
		}

		// Store back in case it grew
		c.intersectionBuf = intersections

		sort.Float64s(intersections)

		for i := 0; i+1 < len(intersections); i += 2 {
			xStart := max(int(math.Ceil(intersections[i]-0.5)), 0)
			xEnd := min(int(math.Floor(intersections[i+1]-0.5)), c.termWidth-1)
			for x := xStart; x <= xEnd; x++ {
				c.blendPixel(x, y, col, alpha)
			}
		}
	}
}

// maxChunkSize is the maximum bytes to write at once for optimal network flow.
// 1500 bytes matches typical MTU size for smooth SSH/network transmission.
const maxChunkSize = 1400

// Render outputs the canvas to the writer using half-block characters.
// Only cells that changed since the previous Render are written.
func (c *Canvas) Render(w io.Writer) error {
	c.renderBuf.Reset()

	for row := 0; row < c.termHeight; row++ {
		topOffset := row * 2 * c.termWidth
		bottomOffset := topOffset + c.termWidth
		lastCol := -2

		for col := 0; col < c.termWidth; col++ {
			cur := cell{
				top:    toRGB(c.pixels[topOffset+col]),
				bottom: toRGB(c.pixels[bottomOffset+col]),
			}
			idx := row*c.termWidth + col
			if c.prevValid && c.prev[idx] == cur {
				continue
			}
			c.prev[idx] = cur

			// Adjacent changed cells share one cursor move
			if col != lastCol+1 {
				c.moveCursor(row+1+c.offsetRow, col+1+c.offsetCol)
			}
			lastCol = col
			c.renderBuf.WriteString(c.sequence(cur))
		}
	}
	c.prevValid = true

	if c.renderBuf.Len() == 0 {
		return nil
	}
	c.renderBuf.WriteString("\033[0m")

	// Write output in chunks for optimal network flow
	data := c.renderBuf.String()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		data = data[len(chunk):]
	}
	return nil
}

func (c *Canvas) moveCursor(row, col int) {
	c.renderBuf.WriteString("\033[")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(row), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col), 10))
	c.renderBuf.WriteByte('H')
}

// sequence returns the styled character for a cell in the current profile.
func (c *Canvas) sequence(cl cell) string {
	if s, ok := c.seqCache[cl]; ok {
		return s
	}

	var s string
	if c.profile == termenv.Ascii {
		// No color: approximate brightness with shade characters
		s = "\033[0m" + string(ShadeLevel(max(luma(cl.top), luma(cl.bottom))))
	} else {
		fg := c.profile.FromColor(color.RGBA{cl.top.r, cl.top.g, cl.top.b, 0xff}).Sequence(false)
		bg := c.profile.FromColor(color.RGBA{cl.bottom.r, cl.bottom.g, cl.bottom.b, 0xff}).Sequence(true)
		s = "\033[" + fg + ";" + bg + "m" + string(BlockUpperHalf)
	}

	if len(c.seqCache) >= maxSeqCache {
		clear(c.seqCache)
	}
	c.seqCache[cl] = s
	return s
}

func toRGB(col colorful.Color) rgb {
	r, g, b := col.Clamped().RGB255()
	return rgb{r, g, b}
}

// luma is the Rec. 709 relative luminance in [0, 1]. Integer weights keep
// white at exactly 1.
func luma(v rgb) float64 {
	return float64(2126*int(v.r)+7152*int(v.g)+722*int(v.b)) / (10000 * 255)
}

// TerminalWidth returns the actual terminal column count.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the actual terminal row count.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}
