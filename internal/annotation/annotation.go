// Package annotation holds the annotation and map-view data model, source
// loading, hit-testing, and the JSON exporter.
package annotation

import (
	"errors"
	"slices"

	"pcb-annotator/pkg/geometry"

	"github.com/google/uuid"
)

// MinVertices is the smallest vertex count that forms a valid polygon.
const MinVertices = 3

// DefaultZOrder is used when a source record carries no stacking order.
const DefaultZOrder = 1

// Placeholder values given to freshly traced annotations.
const (
	PlaceholderID          = "new-id"
	PlaceholderName        = "New Feature Name"
	PlaceholderDescription = "New feature description"
)

var (
	// ErrNotFound is returned when an annotation lookup by UUID fails.
	ErrNotFound = errors.New("annotation not found")
	// ErrTooFewVertices is returned for polygons with fewer than MinVertices points.
	ErrTooFewVertices = errors.New("polygon needs at least 3 vertices")
)

// Annotation is a named, described polygon region over an image.
type Annotation struct {
	// UUID is the internal identity used for lookup and discard. It is
	// never exported.
	UUID          uuid.UUID
	ID            string
	Name          string
	Description   string
	Coordinates   []geometry.PointInt
	ZOrder        int
	UserGenerated bool
}

// New creates a baseline annotation.
func New(id, name, description string, coords []geometry.PointInt, zorder int) *Annotation {
	return &Annotation{
		UUID:        uuid.New(),
		ID:          id,
		Name:        name,
		Description: description,
		Coordinates: slices.Clone(coords),
		ZOrder:      zorder,
	}
}

// NewUser creates a user-generated annotation with placeholder metadata.
func NewUser(coords []geometry.PointInt) *Annotation {
	a := New(PlaceholderID, PlaceholderName, PlaceholderDescription, coords, DefaultZOrder)
	a.UserGenerated = true
	return a
}

// Valid reports whether the annotation has enough vertices to be a polygon.
func (a *Annotation) Valid() bool {
	return len(a.Coordinates) >= MinVertices
}

// Points returns the vertices as floating-point image coordinates.
func (a *Annotation) Points() []geometry.Point2D {
	return geometry.ToFloatPoints(a.Coordinates)
}

// Contains reports whether the image point p lies inside the polygon.
func (a *Annotation) Contains(p geometry.Point2D) bool {
	return geometry.PointInPolygon(p, a.Points())
}

// Topmost returns the annotation with the highest ZOrder whose polygon
// contains p, or nil. Among equal orders the later entry in candidates wins,
// so callers pass annotations in render order.
func Topmost(candidates []*Annotation, p geometry.Point2D) *Annotation {
	var top *Annotation
	for _, a := range candidates {
		if a == nil || !a.Contains(p) {
			continue
		}
		if top == nil || a.ZOrder >= top.ZOrder {
			top = a
		}
	}
	return top
}
