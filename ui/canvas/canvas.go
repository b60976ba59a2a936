// Package canvas provides the map canvas: the image and its annotations
// drawn through the viewport, with pointer, wheel and keyboard input.
package canvas

import (
	"errors"
	"image"

	"pcb-annotator/internal/app"
	"pcb-annotator/internal/logging"
	"pcb-annotator/internal/render"
	"pcb-annotator/internal/tracing"
	"pcb-annotator/internal/viewport"
	"pcb-annotator/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

// TooltipOffset is the distance from the pointer to the tooltip's corner.
const TooltipOffset = 15

// ImageCanvas displays the current map view. Positions it hands to the
// state are in canvas units; drawing scales them to output pixels.
type ImageCanvas struct {
	widget.BaseWidget

	state   *app.State
	log     zerolog.Logger
	backend *render.Raster
	raster  *fynecanvas.Raster
	tooltip *tooltip

	zoomStep float64
	labels   bool

	// Callbacks
	onTraceError func(err error) // Completing a trace with too few vertices
	onReset      func()
}

var (
	_ fyne.Tappable     = (*ImageCanvas)(nil)
	_ fyne.Scrollable   = (*ImageCanvas)(nil)
	_ fyne.Draggable    = (*ImageCanvas)(nil)
	_ desktop.Hoverable = (*ImageCanvas)(nil)
)

// NewImageCanvas creates a canvas bound to state and redraws it whenever
// the view, transform, annotations or trace change.
func NewImageCanvas(state *app.State) *ImageCanvas {
	ic := &ImageCanvas{
		state:    state,
		log:      logging.For("canvas"),
		backend:  render.NewRaster(),
		tooltip:  newTooltip(),
		zoomStep: viewport.DefaultZoomStep,
	}
	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels

	for _, ev := range []app.EventType{
		app.EventViewChanged,
		app.EventImageLoaded,
		app.EventTransformChanged,
		app.EventAnnotationsChanged,
		app.EventSelectionChanged,
		app.EventHoverChanged,
		app.EventTraceStarted,
		app.EventTraceUpdated,
		app.EventTraceCompleted,
		app.EventTraceCancelled,
	} {
		state.On(ev, func(interface{}) { ic.Refresh() })
	}
	// A new view or a started trace must not leave a stale tooltip behind.
	state.On(app.EventViewChanged, func(interface{}) { ic.tooltip.hide() })
	state.On(app.EventTraceStarted, func(interface{}) { ic.tooltip.hide() })

	ic.ExtendBaseWidget(ic)
	return ic
}

// SetZoomStep sets the wheel zoom factor per notch.
func (ic *ImageCanvas) SetZoomStep(step float64) {
	if step > 1 {
		ic.zoomStep = step
	}
}

// SetLabels toggles drawing annotation names.
func (ic *ImageCanvas) SetLabels(on bool) {
	ic.labels = on
	ic.Refresh()
}

// Labels reports whether annotation names are drawn.
func (ic *ImageCanvas) Labels() bool {
	return ic.labels
}

// OnTraceError sets the callback for a rejected trace completion.
func (ic *ImageCanvas) OnTraceError(callback func(err error)) {
	ic.onTraceError = callback
}

// Resize passes the new size on to the viewport.
func (ic *ImageCanvas) Resize(size fyne.Size) {
	ic.BaseWidget.Resize(size)
	ic.state.Resize(float64(size.Width), float64(size.Height))
}

// Refresh redraws the canvas.
func (ic *ImageCanvas) Refresh() {
	ic.raster.Refresh()
	ic.BaseWidget.Refresh()
}

// draw is the raster drawing function. w and h are output pixels, which
// differ from canvas units on scaled displays.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	size := ic.Size()
	t := ic.state.Affine()
	if size.Width > 0 && size.Height > 0 {
		px := geometry.Scale(float64(w)/float64(size.Width), float64(h)/float64(size.Height))
		t = px.Compose(t)
	}
	return render.Draw(ic.state.Scene(ic.labels), ic.backend, t, w, h)
}

// Tapped selects an annotation, or adds a vertex while tracing.
func (ic *ImageCanvas) Tapped(ev *fyne.PointEvent) {
	// Reject clicks outside widget bounds
	size := ic.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	if _, err := ic.state.Click(float64(ev.Position.X), float64(ev.Position.Y)); err != nil {
		ic.log.Warn().Err(err).Msg("Click ignored")
	}
}

// Scrolled zooms about the pointer.
func (ic *ImageCanvas) Scrolled(ev *fyne.ScrollEvent) {
	factor := ic.zoomStep
	switch {
	case ev.Scrolled.DY < 0:
		factor = 1 / ic.zoomStep
	case ev.Scrolled.DY == 0:
		return
	}
	ic.state.ZoomAt(factor, float64(ev.Position.X), float64(ev.Position.Y))
}

// Dragged pans the image.
func (ic *ImageCanvas) Dragged(ev *fyne.DragEvent) {
	ic.tooltip.hide()
	ic.state.Pan(float64(ev.Dragged.DX), float64(ev.Dragged.DY))
}

// DragEnd implements fyne.Draggable.
func (ic *ImageCanvas) DragEnd() {}

// MouseIn implements desktop.Hoverable.
func (ic *ImageCanvas) MouseIn(ev *desktop.MouseEvent) {
	ic.MouseMoved(ev)
}

// MouseMoved updates the hover highlight and tooltip.
func (ic *ImageCanvas) MouseMoved(ev *desktop.MouseEvent) {
	a := ic.state.Hover(float64(ev.Position.X), float64(ev.Position.Y))
	if a == nil {
		ic.tooltip.hide()
		return
	}
	ic.tooltip.show(a.Name, a.Description, ev.Position.Add(fyne.NewPos(TooltipOffset, TooltipOffset)))
}

// MouseOut clears the hover state.
func (ic *ImageCanvas) MouseOut() {
	ic.state.ClearHover()
	ic.tooltip.hide()
}

// CompleteTrace finishes the current trace. Too few vertices is reported
// through OnTraceError; the trace stays open.
func (ic *ImageCanvas) CompleteTrace() {
	_, err := ic.state.CompleteTrace()
	switch {
	case err == nil:
	case errors.Is(err, tracing.ErrTooFewPoints):
		if ic.onTraceError != nil {
			ic.onTraceError(err)
		}
	default:
		ic.log.Debug().Err(err).Msg("Complete trace ignored")
	}
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &imageCanvasRenderer{canvas: ic}
}

type imageCanvasRenderer struct {
	canvas *ImageCanvas
}

func (r *imageCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
	r.canvas.raster.Move(fyne.NewPos(0, 0))
	r.canvas.tooltip.layout(size)
}

func (r *imageCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *imageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
	r.canvas.tooltip.refresh()
}

func (r *imageCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster, r.canvas.tooltip.box}
}

func (r *imageCanvasRenderer) Destroy() {}
