package render

import (
	"image"
	"math"

	"pcb-annotator/pkg/geometry"
)

// Backend receives draw calls in window coordinates.
type Backend interface {
	Begin(width, height int)
	// Image draws the background through the image-to-window transform.
	Image(img image.Image, t geometry.AffineTransform)
	Polygon(points []geometry.Point2D, style Style)
	// Marker draws a dot; style.Radius is already in window pixels.
	Marker(p geometry.Point2D, style Style)
	Label(p geometry.Point2D, text string)
	End() image.Image
}

// Draw maps scene through t and sends it to b. It returns the backend's
// finished frame.
func Draw(scene Scene, b Backend, t geometry.AffineTransform, width, height int) image.Image {
	b.Begin(width, height)
	if scene.Background != nil {
		b.Image(scene.Background, t)
	}

	scale := math.Sqrt(math.Abs(t.A*t.D - t.B*t.C))
	for _, s := range scene.Shapes {
		pts := make([]geometry.Point2D, len(s.Points))
		for i, p := range s.Points {
			pts[i] = t.Apply(p)
		}

		switch s.Kind {
		case KindVertex:
			if len(pts) == 0 {
				continue
			}
			style := s.Style
			style.Radius *= scale
			b.Marker(pts[0], style)
		default:
			b.Polygon(pts, s.Style)
		}

		if s.Label != "" && len(pts) > 0 {
			b.Label(geometry.Centroid(pts), s.Label)
		}
	}
	return b.End()
}
