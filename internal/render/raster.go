package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"

	"pcb-annotator/pkg/colorutil"
	"pcb-annotator/pkg/geometry"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// DefaultBackground is the color outside the image.
var DefaultBackground = color.RGBA{R: 40, G: 40, B: 40, A: 255}

// Raster is a Backend that draws into an *image.RGBA.
type Raster struct {
	Background   color.RGBA
	Interpolator draw.Interpolator

	output *image.RGBA
}

// NewRaster creates a raster backend with the default background and
// approximate bilinear resampling.
func NewRaster() *Raster {
	return &Raster{Background: DefaultBackground, Interpolator: draw.ApproxBiLinear}
}

// Begin allocates a new frame filled with the background color.
func (r *Raster) Begin(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	r.output = image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(r.output, r.output.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)
}

// Image resamples img into the frame through t.
func (r *Raster) Image(img image.Image, t geometry.AffineTransform) {
	origin := img.Bounds().Min
	s2d := t.Compose(geometry.Translation(-float64(origin.X), -float64(origin.Y)))
	m := f64.Aff3{s2d.A, s2d.B, s2d.TX, s2d.C, s2d.D, s2d.TY}
	interp := r.Interpolator
	if interp == nil {
		interp = draw.ApproxBiLinear
	}
	interp.Transform(r.output, m, img, img.Bounds(), draw.Over, nil)
}

// Polygon fills the polygon with a scanline pass and then strokes it.
func (r *Raster) Polygon(points []geometry.Point2D, style Style) {
	if len(points) < 2 {
		return
	}
	if style.FillOpacity > 0 && len(points) >= 3 {
		r.fillPolygon(points, style.Fill, style.FillOpacity)
	}

	width := style.StrokeWidth
	if width <= 0 {
		width = 1
	}
	n := len(points)
	for i := 0; i < n; i++ {
		p1 := points[i]
		p2 := points[(i+1)%n]
		r.drawLine(int(p1.X), int(p1.Y), int(p2.X), int(p2.Y), style.Stroke, width)
	}
}

// Marker draws a filled dot with a one pixel outline.
func (r *Raster) Marker(p geometry.Point2D, style Style) {
	radius := style.Radius
	if radius < 2 {
		radius = 2
	}
	bounds := r.output.Bounds()
	r2 := radius * radius
	inner2 := (radius - 1) * (radius - 1)
	for y := int(p.Y - radius - 1); y <= int(p.Y+radius+1); y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := int(p.X - radius - 1); x <= int(p.X+radius+1); x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x) - p.X
			dy := float64(y) - p.Y
			d2 := dx*dx + dy*dy
			switch {
			case d2 > r2:
			case d2 >= inner2:
				r.output.SetRGBA(x, y, style.Stroke)
			default:
				r.blend(x, y, style.Fill, style.FillOpacity)
			}
		}
	}
}

// Label draws text centered on p over a white box.
func (r *Raster) Label(p geometry.Point2D, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: r.output, Src: image.NewUniform(colorutil.Black), Face: face}
	w := d.MeasureString(text).Ceil()
	h := face.Metrics().Height.Ceil()

	x := int(p.X) - w/2
	y := int(p.Y) - h/2
	box := image.Rect(x-2, y-1, x+w+2, y+h+1).Intersect(r.output.Bounds())
	draw.Draw(r.output, box, image.NewUniform(colorutil.White), image.Point{}, draw.Src)

	d.Dot = fixed.P(x, y+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
}

// End returns the finished frame.
func (r *Raster) End() image.Image {
	return r.output
}

func (r *Raster) fillPolygon(points []geometry.Point2D, col color.RGBA, opacity float64) {
	bounds := r.output.Bounds()
	box := geometry.BoundingBox(points)

	n := len(points)
	var xs []float64
	for y := int(box.Y); y <= int(box.Y+box.Height); y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		fy := float64(y)
		xs = xs[:0]
		for i := 0; i < n; i++ {
			p1 := points[i]
			p2 := points[(i+1)%n]
			if (p1.Y <= fy && p2.Y > fy) || (p2.Y <= fy && p1.Y > fy) {
				t := (fy - p1.Y) / (p2.Y - p1.Y)
				xs = append(xs, p1.X+t*(p2.X-p1.X))
			}
		}
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(xs[i]); x <= int(xs[i+1]); x++ {
				if x >= bounds.Min.X && x < bounds.Max.X {
					r.blend(x, y, col, opacity)
				}
			}
		}
	}
}

func (r *Raster) blend(x, y int, col color.RGBA, opacity float64) {
	r.output.SetRGBA(x, y, colorutil.Blend(r.output.RGBAAt(x, y), col, opacity))
}

// drawLine draws a thick line using Bresenham's algorithm.
func (r *Raster) drawLine(x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := r.output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					r.output.SetRGBA(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
