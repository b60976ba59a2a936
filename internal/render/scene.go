// Package render turns a map view into backend-neutral draw calls.
package render

import (
	"image"
	"image/color"

	"pcb-annotator/internal/annotation"
	"pcb-annotator/internal/tracing"
	"pcb-annotator/pkg/colorutil"
	"pcb-annotator/pkg/geometry"

	"github.com/google/uuid"
)

// VertexRadius is the radius of a trace vertex marker, in image pixels.
const VertexRadius = 5.0

// Kind identifies what a Shape represents.
type Kind int

const (
	KindBaseline Kind = iota
	KindUser
	KindPreview
	KindVertex
)

// Style controls how a shape is drawn.
type Style struct {
	Stroke      color.RGBA
	StrokeWidth int
	Fill        color.RGBA
	FillOpacity float64 // 0 disables fill
	Radius      float64 // markers only, in image pixels
}

// Shape is a polygon or marker in image coordinates.
type Shape struct {
	Kind   Kind
	UUID   uuid.UUID // zero for preview and vertex shapes
	Points []geometry.Point2D
	Style  Style
	Label  string
}

// Scene is everything drawn for one frame, in back-to-front order.
type Scene struct {
	Background image.Image
	Shapes     []Shape
}

// Options selects highlighting and labels.
type Options struct {
	Hovered  uuid.UUID
	Selected uuid.UUID
	Labels   bool // draw each annotation's name at its centroid
}

var (
	baselineStyle = Style{Stroke: colorutil.Cyan, StrokeWidth: 2, Fill: colorutil.Cyan, FillOpacity: 0.15}
	userStyle     = Style{Stroke: colorutil.Magenta, StrokeWidth: 2, Fill: colorutil.Magenta, FillOpacity: 0.25}
	previewStyle  = Style{Stroke: colorutil.Orange, StrokeWidth: 2, Fill: colorutil.Orange, FillOpacity: 0.15}
	vertexStyle   = Style{Stroke: colorutil.Black, StrokeWidth: 1, Fill: colorutil.Orange, FillOpacity: 1, Radius: VertexRadius}
)

// BaseStyle returns the unhighlighted style for an annotation.
func BaseStyle(a *annotation.Annotation) Style {
	if a.UserGenerated {
		return userStyle
	}
	return baselineStyle
}

// BuildScene lays out a view for drawing: baseline shapes, then user shapes,
// then the trace preview and its vertex markers when session is capturing.
// The scene's Background is left for the caller to fill in.
func BuildScene(view *annotation.MapView, session *tracing.Session, opts Options) Scene {
	var scene Scene
	if view != nil {
		for _, a := range view.All() {
			scene.Shapes = append(scene.Shapes, annotationShape(a, opts))
		}
	}
	if session == nil || !session.Active() {
		return scene
	}

	pts := geometry.ToFloatPoints(session.Points())
	if len(pts) >= 2 {
		scene.Shapes = append(scene.Shapes, Shape{Kind: KindPreview, Points: pts, Style: previewStyle})
	}
	for _, p := range pts {
		scene.Shapes = append(scene.Shapes, Shape{Kind: KindVertex, Points: []geometry.Point2D{p}, Style: vertexStyle})
	}
	return scene
}

func annotationShape(a *annotation.Annotation, opts Options) Shape {
	kind := KindBaseline
	if a.UserGenerated {
		kind = KindUser
	}
	style := BaseStyle(a)
	if opts.Hovered != uuid.Nil && a.UUID == opts.Hovered {
		style.FillOpacity *= 2
	}
	if opts.Selected != uuid.Nil && a.UUID == opts.Selected {
		style.Stroke = colorutil.Yellow
		style.StrokeWidth = 3
	}
	s := Shape{Kind: kind, UUID: a.UUID, Points: a.Points(), Style: style}
	if opts.Labels {
		s.Label = a.Name
	}
	return s
}
