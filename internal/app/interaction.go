package app

import (
	"context"
	"errors"
	"fmt"

	"pcb-annotator/internal/annotation"
	"pcb-annotator/pkg/geometry"

	"github.com/google/uuid"
)

// ErrNotDevMode is returned when tracing is started outside developer mode.
var ErrNotDevMode = errors.New("developer mode is off")

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// SetClipboard installs the clipboard used by CopyJSON.
func (s *State) SetClipboard(c Clipboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipboard = c
}

// HitTest returns the topmost annotation under the window point, or nil.
// It always returns nil while a trace is being captured.
func (s *State) HitTest(x, y float64) *annotation.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hitLocked(x, y)
}

func (s *State) hitLocked(x, y float64) *annotation.Annotation {
	if s.view == nil || s.session.Active() {
		return nil
	}
	p, err := s.vp.ScreenToImage(geometry.NewPoint2D(x, y))
	if err != nil {
		return nil
	}
	return s.view.Topmost(p.X, p.Y)
}

// Hover updates the hovered annotation and returns it.
func (s *State) Hover(x, y float64) *annotation.Annotation {
	s.mu.Lock()
	hit := s.hitLocked(x, y)
	changed := hit != s.hovered
	s.hovered = hit
	s.mu.Unlock()

	if changed {
		s.Emit(EventHoverChanged, hit)
	}
	return hit
}

// ClearHover forgets the hovered annotation, e.g. when the pointer leaves.
func (s *State) ClearHover() {
	s.mu.Lock()
	changed := s.hovered != nil
	s.hovered = nil
	s.mu.Unlock()
	if changed {
		s.Emit(EventHoverChanged, (*annotation.Annotation)(nil))
	}
}

// Click handles a primary click at a window point. While tracing it adds a
// vertex; otherwise it selects the topmost annotation, or clears the
// selection when nothing is hit.
func (s *State) Click(x, y float64) (*annotation.Annotation, error) {
	if s.Tracing() {
		p, err := s.ScreenToImage(x, y)
		if err != nil {
			return nil, err
		}
		_, err = s.AddVertex(p.X, p.Y)
		return nil, err
	}
	hit := s.HitTest(x, y)
	s.Select(hit)
	return hit, nil
}

// Select makes a the selected annotation; nil clears the selection.
func (s *State) Select(a *annotation.Annotation) {
	s.mu.Lock()
	changed := a != s.selected
	s.selected = a
	s.mu.Unlock()
	if changed {
		s.Emit(EventSelectionChanged, a)
	}
}

// Selected returns the selected annotation, or nil.
func (s *State) Selected() *annotation.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Hovered returns the hovered annotation, or nil.
func (s *State) Hovered() *annotation.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hovered
}

// Tracing reports whether a trace is being captured.
func (s *State) Tracing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Active()
}

// TraceLen returns the number of captured vertices.
func (s *State) TraceLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Len()
}

// BeginTrace starts capturing a polygon. It needs developer mode and a
// current view, and closes any open selection.
func (s *State) BeginTrace() error {
	s.mu.Lock()
	if !s.devMode {
		s.mu.Unlock()
		return ErrNotDevMode
	}
	if s.view == nil {
		s.mu.Unlock()
		return ErrNoView
	}
	s.session.Begin()
	s.selected = nil
	s.hovered = nil
	s.mu.Unlock()

	s.emitAll([]event{
		{EventSelectionChanged, (*annotation.Annotation)(nil)},
		{EventHoverChanged, (*annotation.Annotation)(nil)},
		{EventTraceStarted, nil},
	})
	return nil
}

// AddVertex appends an image-space vertex to the trace.
func (s *State) AddVertex(x, y float64) (int, error) {
	s.mu.Lock()
	n, err := s.session.Add(x, y)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	s.Emit(EventTraceUpdated, n)
	return n, nil
}

// CompleteTrace turns the captured vertices into a user annotation with
// placeholder metadata, appends it to the current view and selects it.
// With too few vertices it returns tracing.ErrTooFewPoints and the trace
// stays active.
func (s *State) CompleteTrace() (*annotation.Annotation, error) {
	s.mu.Lock()
	if s.view == nil {
		s.mu.Unlock()
		return nil, ErrNoView
	}
	points, err := s.session.Complete()
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("complete trace: %w", err)
	}
	a := annotation.NewUser(points)
	s.view.AddUser(a)
	s.selected = a
	view := s.view
	s.mu.Unlock()

	s.log.Info().Int("vertices", len(points)).Str("view", view.Name).Msg("Trace completed")
	s.emitAll([]event{
		{EventAnnotationsChanged, view},
		{EventTraceCompleted, a},
		{EventSelectionChanged, a},
	})
	return a, nil
}

// CancelTrace discards the captured vertices.
func (s *State) CancelTrace() {
	s.mu.Lock()
	active := s.session.Active()
	s.session.Cancel()
	s.mu.Unlock()
	if active {
		s.Emit(EventTraceCancelled, nil)
	}
}

// DiscardUser removes a user annotation by UUID. A missing annotation is
// logged and returned; nothing changes.
func (s *State) DiscardUser(id uuid.UUID) error {
	s.mu.Lock()
	if s.view == nil {
		s.mu.Unlock()
		return ErrNoView
	}
	if err := s.view.RemoveUser(id); err != nil {
		s.mu.Unlock()
		s.log.Warn().Err(err).Msg("Discard skipped")
		return err
	}
	events := []event{{EventAnnotationsChanged, s.view}}
	if s.selected != nil && s.selected.UUID == id {
		s.selected = nil
		events = append(events, event{EventSelectionChanged, (*annotation.Annotation)(nil)})
	}
	if s.hovered != nil && s.hovered.UUID == id {
		s.hovered = nil
	}
	s.mu.Unlock()
	s.emitAll(events)
	return nil
}

// EditSelected writes the fields into the selected user annotation and
// returns its regenerated JSON. Empty fields fall back to placeholders.
func (s *State) EditSelected(f annotation.Fields) (string, error) {
	s.mu.Lock()
	a := s.selected
	if a == nil || !a.UserGenerated {
		s.mu.Unlock()
		return "", fmt.Errorf("edit: %w", annotation.ErrNotFound)
	}
	annotation.ApplyEdit(a, f, annotation.DefaultPlaceholders)
	view := s.view
	s.mu.Unlock()

	s.Emit(EventAnnotationsChanged, view)
	return annotation.ExportJSON(a), nil
}

// CopyJSON writes the annotation's JSON to the clipboard in the background.
// The JSON is taken when CopyJSON is called; later edits do not change what
// is copied. The returned channel yields the outcome once. Failures are
// logged.
func (s *State) CopyJSON(ctx context.Context, a *annotation.Annotation) <-chan error {
	s.mu.RLock()
	clip := s.clipboard
	text := annotation.ExportJSON(a)
	id := a.ID
	s.mu.RUnlock()

	result := make(chan error, 1)
	go func() {
		var err error
		if clip == nil {
			err = errors.New("no clipboard available")
		} else {
			err = clip.WriteText(ctx, text)
		}
		if err != nil {
			s.log.Error().Err(err).Str("id", id).Msg("Clipboard write failed")
		}
		result <- err
	}()
	return result
}

// TracePoints returns the captured vertices.
func (s *State) TracePoints() []geometry.PointInt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Points()
}
