// Package app provides the application state, its events, and the map
// source watcher.
package app

import (
	"errors"
	"fmt"
	"sync"

	"pcb-annotator/internal/annotation"
	"pcb-annotator/internal/image"
	"pcb-annotator/internal/logging"
	"pcb-annotator/internal/render"
	"pcb-annotator/internal/tracing"
	"pcb-annotator/internal/viewport"
	"pcb-annotator/pkg/geometry"

	"github.com/rs/zerolog"
)

// UploadViewName is the name given to a view created from an uploaded image.
const UploadViewName = "upload"

var (
	// ErrNoImage is returned by operations that need a loaded image.
	ErrNoImage = errors.New("no image loaded")
	// ErrUnknownView is returned when switching to an unregistered view.
	ErrUnknownView = errors.New("unknown view")
	// ErrNoView is returned by operations that need a current view.
	ErrNoView = errors.New("no current view")
)

// EventType identifies different application events.
type EventType int

const (
	EventViewChanged        EventType = iota // *annotation.MapView
	EventImageLoaded                         // *image.Layer
	EventTransformChanged                    // viewport.Transform
	EventAnnotationsChanged                  // *annotation.MapView
	EventSelectionChanged                    // *annotation.Annotation, nil when cleared
	EventHoverChanged                        // *annotation.Annotation, nil when cleared
	EventTraceStarted                        // nil
	EventTraceUpdated                        // int vertex count
	EventTraceCompleted                      // *annotation.Annotation
	EventTraceCancelled                      // nil
	EventDevModeChanged                      // bool
	EventSourceChanged                       // string view name
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// ResetResult tells the caller whether a reset happened.
type ResetResult int

const (
	ResetDone ResetResult = iota
	ResetNeedsConfirmation
)

type event struct {
	typ  EventType
	data interface{}
}

// State holds the current map view, its viewport, the tracing session and
// the selection. Handlers receive it explicitly instead of sharing globals.
type State struct {
	mu  sync.RWMutex
	log zerolog.Logger

	// View registry: name -> map source file, in display order.
	sources map[string]string
	order   []string

	viewName string
	view     *annotation.MapView
	layer    *image.Layer
	vp       *viewport.Viewport
	fitted   bool

	session  tracing.Session
	selected *annotation.Annotation
	hovered  *annotation.Annotation
	devMode  bool

	clipboard Clipboard

	listeners map[EventType][]EventListener
}

// NewState creates an empty state with the given viewport limits.
func NewState(limits viewport.Limits) *State {
	return &State{
		log:       logging.For("app"),
		sources:   make(map[string]string),
		vp:        viewport.New(limits),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

func (s *State) emitAll(events []event) {
	for _, e := range events {
		s.Emit(e.typ, e.data)
	}
}

// RegisterView adds a named map source. Registering an existing name
// replaces its path.
func (s *State) RegisterView(name, sourcePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[name]; !ok {
		s.order = append(s.order, name)
	}
	s.sources[name] = sourcePath
}

// ViewNames returns the registered view names in registration order.
func (s *State) ViewNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// SourcePath returns the map source registered for name.
func (s *State) SourcePath(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.sources[name]
	return p, ok
}

// SwitchView loads the named map source and makes it current. Source
// validation problems are logged; an unreadable source is returned as an
// error and leaves the current view in place.
func (s *State) SwitchView(name string) error {
	path, ok := s.SourcePath(name)
	if !ok {
		return fmt.Errorf("switch to %q: %w", name, ErrUnknownView)
	}
	src, err := annotation.LoadSource(path)
	if err != nil {
		s.log.Error().Err(err).Str("view", name).Msg("Failed to load map source")
		return fmt.Errorf("switch to %q: %w", name, err)
	}
	if err := src.Validate(); err != nil {
		s.log.Warn().Err(err).Str("view", name).Msg("Map source has problems")
	}
	s.SetView(name, src.ToView())
	return nil
}

// ReloadView re-reads a source after it changed on disk. Only the current
// view is replaced; other views pick up the change on their next switch.
func (s *State) ReloadView(name string) error {
	s.mu.RLock()
	current := s.viewName
	s.mu.RUnlock()
	if name != current {
		return nil
	}
	return s.SwitchView(name)
}

// SourceChanged announces that a view's source file changed on disk.
func (s *State) SourceChanged(name string) {
	s.log.Info().Str("view", name).Msg("Map source changed")
	s.Emit(EventSourceChanged, name)
}

// SetView replaces the current view wholesale: user annotations, selection
// and any trace are dropped, the image is loaded and the viewport refit.
// An image that fails to load is logged and the viewport keeps its
// previous transform.
func (s *State) SetView(name string, view *annotation.MapView) {
	layer, err := image.Load(view.Image)
	if err != nil {
		s.log.Error().Err(err).Str("view", name).Msg("Failed to load image")
		layer = nil
	}
	s.install(name, view, layer)
}

func (s *State) install(name string, view *annotation.MapView, layer *image.Layer) {
	s.mu.Lock()
	s.viewName = name
	s.view = view
	s.layer = layer
	s.session.Cancel()
	s.selected = nil
	s.hovered = nil
	events := []event{{EventViewChanged, view}, {EventSelectionChanged, (*annotation.Annotation)(nil)}}
	if layer != nil {
		s.vp.SetImageSize(layer.Width(), layer.Height())
		s.fitted = false
		events = append(events, event{EventImageLoaded, layer})
		if t, ok := s.fitLocked(); ok {
			events = append(events, event{EventTransformChanged, t})
		}
	}
	s.mu.Unlock()

	s.emitAll(events)
}

// LoadUpload reads an image file into an embedded data reference and makes
// it the current view, with no annotations. On failure the state is
// unchanged.
func (s *State) LoadUpload(path string) error {
	if !image.IsSupportedFormat(path) {
		s.log.Error().Str("path", path).Msg("Unsupported image format")
		return fmt.Errorf("upload %s: unsupported format (want one of %v)", path, image.SupportedFormats())
	}
	ref, err := image.EncodeDataRef(path)
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("Failed to read upload")
		return fmt.Errorf("upload %s: %w", path, err)
	}
	layer, err := image.Load(ref)
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("Failed to decode upload")
		return fmt.Errorf("upload %s: %w", path, err)
	}
	s.install(UploadViewName, annotation.NewMapView(UploadViewName, ref, nil), layer)
	return nil
}

// View returns the current view, or nil.
func (s *State) View() *annotation.MapView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// ViewName returns the name of the current view.
func (s *State) ViewName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewName
}

// Layer returns the current image, or nil.
func (s *State) Layer() *image.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layer
}

// Scene builds the render scene for the current frame.
func (s *State) Scene(labels bool) render.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()

	opts := render.Options{Labels: labels}
	if s.hovered != nil {
		opts.Hovered = s.hovered.UUID
	}
	if s.selected != nil {
		opts.Selected = s.selected.UUID
	}
	scene := render.BuildScene(s.view, &s.session, opts)
	if s.layer != nil {
		scene.Background = s.layer.Image
	}
	return scene
}

// Transform returns the current viewport transform.
func (s *State) Transform() viewport.Transform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vp.Transform()
}

// Affine returns the current image-to-window matrix.
func (s *State) Affine() geometry.AffineTransform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vp.Affine()
}

// ScreenToImage maps a window point to image coordinates.
func (s *State) ScreenToImage(x, y float64) (geometry.Point2D, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vp.ScreenToImage(geometry.NewPoint2D(x, y))
}

// Resize records the window size. The first resize after an image loads
// fits the image.
func (s *State) Resize(w, h float64) {
	s.mu.Lock()
	s.vp.SetWindowSize(w, h)
	var events []event
	if !s.fitted && s.layer != nil {
		if t, ok := s.fitLocked(); ok {
			events = append(events, event{EventTransformChanged, t})
		}
	}
	s.mu.Unlock()
	s.emitAll(events)
}

// ZoomIn zooms about the window center.
func (s *State) ZoomIn() { s.updateViewport((*viewport.Viewport).ZoomIn) }

// ZoomOut zooms out about the window center.
func (s *State) ZoomOut() { s.updateViewport((*viewport.Viewport).ZoomOut) }

// RotateLeft snaps rotation to the previous 45 degree step.
func (s *State) RotateLeft() { s.updateViewport((*viewport.Viewport).RotateLeft) }

// RotateRight snaps rotation to the next 45 degree step.
func (s *State) RotateRight() { s.updateViewport((*viewport.Viewport).RotateRight) }

// ZoomAt zooms by factor keeping the window point (x, y) fixed.
func (s *State) ZoomAt(factor, x, y float64) {
	s.updateViewport(func(v *viewport.Viewport) { v.ZoomAt(factor, x, y) })
}

// Pan moves the image by (dx, dy) window pixels.
func (s *State) Pan(dx, dy float64) {
	s.updateViewport(func(v *viewport.Viewport) { v.Pan(dx, dy) })
}

func (s *State) updateViewport(fn func(*viewport.Viewport)) {
	s.mu.Lock()
	fn(s.vp)
	t := s.vp.Transform()
	s.mu.Unlock()
	s.Emit(EventTransformChanged, t)
}

// RequestReset resets the view unless user annotations would be lost, in
// which case it returns ResetNeedsConfirmation and changes nothing.
func (s *State) RequestReset() ResetResult {
	s.mu.RLock()
	pending := s.view != nil && s.view.UserCount() > 0
	s.mu.RUnlock()
	if pending {
		return ResetNeedsConfirmation
	}
	s.PerformReset()
	return ResetDone
}

// PerformReset discards user annotations, the selection and any trace, and
// restores the fit-to-window transform.
func (s *State) PerformReset() {
	s.mu.Lock()
	var events []event
	if s.view != nil && s.view.UserCount() > 0 {
		s.view.ClearUser()
		events = append(events, event{EventAnnotationsChanged, s.view})
	}
	if s.session.Active() {
		s.session.Cancel()
		events = append(events, event{EventTraceCancelled, nil})
	}
	s.selected = nil
	s.hovered = nil
	events = append(events, event{EventSelectionChanged, (*annotation.Annotation)(nil)})
	if t, ok := s.fitLocked(); ok {
		events = append(events, event{EventTransformChanged, t})
	}
	s.mu.Unlock()
	s.emitAll(events)
}

// fitLocked refits the viewport. It reports false when the image or window
// size is not known yet.
func (s *State) fitLocked() (viewport.Transform, bool) {
	if err := s.vp.Reset(); err != nil {
		s.log.Debug().Err(err).Msg("Fit deferred")
		return viewport.Transform{}, false
	}
	s.fitted = true
	return s.vp.Transform(), true
}

// SetDevMode toggles developer mode. Leaving it cancels an active trace.
func (s *State) SetDevMode(on bool) {
	s.mu.Lock()
	if s.devMode == on {
		s.mu.Unlock()
		return
	}
	s.devMode = on
	events := []event{{EventDevModeChanged, on}}
	if !on && s.session.Active() {
		s.session.Cancel()
		events = append(events, event{EventTraceCancelled, nil})
	}
	s.mu.Unlock()
	s.emitAll(events)
}

// DevMode reports whether developer mode is on.
func (s *State) DevMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.devMode
}
