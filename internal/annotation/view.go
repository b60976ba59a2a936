package annotation

import (
	"fmt"
	"slices"

	"pcb-annotator/pkg/geometry"

	"github.com/google/uuid"
)

// MapView is one named view: an image reference, the baseline annotations
// loaded with it, and the user annotations traced during this session.
type MapView struct {
	UUID        uuid.UUID
	Name        string
	Description string
	Image       string // file path or data: URL

	baseline []*Annotation
	user     []*Annotation
}

// NewMapView creates a view. The baseline slice is copied and never
// mutated afterwards.
func NewMapView(name, image string, baseline []*Annotation) *MapView {
	return &MapView{
		UUID:     uuid.New(),
		Name:     name,
		Image:    image,
		baseline: slices.Clone(baseline),
	}
}

// Baseline returns a copy of the baseline annotations.
func (v *MapView) Baseline() []*Annotation {
	return slices.Clone(v.baseline)
}

// User returns a copy of the user annotations.
func (v *MapView) User() []*Annotation {
	return slices.Clone(v.user)
}

// UserCount returns the number of user annotations.
func (v *MapView) UserCount() int {
	return len(v.user)
}

// All returns baseline then user annotations, in render order.
func (v *MapView) All() []*Annotation {
	all := make([]*Annotation, 0, len(v.baseline)+len(v.user))
	all = append(all, v.baseline...)
	return append(all, v.user...)
}

// AddUser appends a user annotation.
func (v *MapView) AddUser(a *Annotation) {
	a.UserGenerated = true
	v.user = append(v.user, a)
}

// RemoveUser removes the user annotation with the given UUID.
func (v *MapView) RemoveUser(id uuid.UUID) error {
	idx := slices.IndexFunc(v.user, func(a *Annotation) bool { return a.UUID == id })
	if idx < 0 {
		return fmt.Errorf("remove %s from view %q: %w", id, v.Name, ErrNotFound)
	}
	v.user = slices.Delete(v.user, idx, idx+1)
	return nil
}

// ClearUser drops all user annotations.
func (v *MapView) ClearUser() {
	v.user = nil
}

// Find looks up an annotation in either collection by UUID.
func (v *MapView) Find(id uuid.UUID) (*Annotation, error) {
	for _, a := range v.All() {
		if a.UUID == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("find %s in view %q: %w", id, v.Name, ErrNotFound)
}

// Topmost hit-tests all annotations of the view in render order.
func (v *MapView) Topmost(x, y float64) *Annotation {
	return Topmost(v.All(), geometry.NewPoint2D(x, y))
}
