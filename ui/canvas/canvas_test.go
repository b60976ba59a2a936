package canvas

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"pcb-annotator/internal/app"
	"pcb-annotator/internal/tracing"
	"pcb-annotator/internal/viewport"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boardYAML = `name: board
image: board.png
annotations:
  - id: chip
    name: Chip
    description: U1 microcontroller
    coordinates: [[10, 10], [30, 10], [30, 30], [10, 30]]
`

// newTestCanvas shows a white 100x100 board in a 100x100 canvas: scale 0.9
// with a 5 unit margin, so image (20,20) sits at canvas (23,23).
func newTestCanvas(t *testing.T) (*ImageCanvas, *app.State) {
	t.Helper()
	test.NewTempApp(t)

	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	f, err := os.Create(filepath.Join(dir, "board.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	source := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(source, []byte(boardYAML), 0o644))

	s := app.NewState(viewport.DefaultLimits())
	s.RegisterView("board", source)
	require.NoError(t, s.SwitchView("board"))

	ic := NewImageCanvas(s)
	ic.Resize(fyne.NewSize(100, 100))
	return ic, s
}

func at(x, y float32) fyne.PointEvent {
	return fyne.PointEvent{Position: fyne.NewPos(x, y)}
}

func TestCanvas_ResizeFits(t *testing.T) {
	_, s := newTestCanvas(t)
	tr := s.Transform()
	assert.InDelta(t, 0.9, tr.Scale, 1e-9)
	assert.InDelta(t, 5, tr.TX, 1e-9)
	assert.InDelta(t, 5, tr.TY, 1e-9)
}

func TestCanvas_TapSelects(t *testing.T) {
	ic, s := newTestCanvas(t)

	ev := at(23, 23)
	ic.Tapped(&ev)
	require.NotNil(t, s.Selected())
	assert.Equal(t, "chip", s.Selected().ID)

	ev = at(80, 80)
	ic.Tapped(&ev)
	assert.Nil(t, s.Selected(), "tapping empty board clears the selection")

	ev = at(-1, 50)
	ic.Tapped(&ev)
	assert.Nil(t, s.Selected())
}

func TestCanvas_HoverTooltip(t *testing.T) {
	ic, s := newTestCanvas(t)

	ic.MouseMoved(&desktop.MouseEvent{PointEvent: at(23, 23)})
	require.NotNil(t, s.Hovered())
	assert.True(t, ic.tooltip.shown)
	assert.Equal(t, "Chip", ic.tooltip.name.Text)
	assert.Equal(t, "U1 microcontroller", ic.tooltip.desc.Text)
	assert.Equal(t, fyne.NewPos(23+TooltipOffset, 23+TooltipOffset), ic.tooltip.pos)

	ic.MouseMoved(&desktop.MouseEvent{PointEvent: at(80, 80)})
	assert.False(t, ic.tooltip.shown)

	ic.MouseMoved(&desktop.MouseEvent{PointEvent: at(23, 23)})
	ic.MouseOut()
	assert.False(t, ic.tooltip.shown)
	assert.Nil(t, s.Hovered())
}

func TestCanvas_NoTooltipWhileTracing(t *testing.T) {
	ic, s := newTestCanvas(t)
	s.SetDevMode(true)
	require.NoError(t, s.BeginTrace())

	ic.MouseMoved(&desktop.MouseEvent{PointEvent: at(23, 23)})
	assert.False(t, ic.tooltip.shown)
	assert.Nil(t, s.Hovered())
}

func TestCanvas_ScrollZoomsAboutPointer(t *testing.T) {
	ic, s := newTestCanvas(t)

	ic.Scrolled(&fyne.ScrollEvent{PointEvent: at(23, 23), Scrolled: fyne.Delta{DY: 1}})
	assert.InDelta(t, 0.9*viewport.DefaultZoomStep, s.Transform().Scale, 1e-9)

	p, err := s.ScreenToImage(23, 23)
	require.NoError(t, err)
	assert.InDelta(t, 20, p.X, 1e-9)
	assert.InDelta(t, 20, p.Y, 1e-9)

	ic.Scrolled(&fyne.ScrollEvent{PointEvent: at(23, 23), Scrolled: fyne.Delta{DY: -1}})
	assert.InDelta(t, 0.9, s.Transform().Scale, 1e-9)
}

func TestCanvas_DragPans(t *testing.T) {
	ic, s := newTestCanvas(t)

	ic.Dragged(&fyne.DragEvent{Dragged: fyne.Delta{DX: 10, DY: -5}})
	ic.DragEnd()
	assert.InDelta(t, 15, s.Transform().TX, 1e-9)
	assert.InDelta(t, 0, s.Transform().TY, 1e-9)
}

func TestCanvas_RuneShortcuts(t *testing.T) {
	ic, s := newTestCanvas(t)
	resets := 0
	ic.OnReset(func() { resets++ })

	assert.True(t, ic.HandleRune('+'))
	assert.InDelta(t, 0.9*1.25, s.Transform().Scale, 1e-9)
	assert.True(t, ic.HandleRune('_'))
	assert.InDelta(t, 0.9, s.Transform().Scale, 1e-9)

	assert.True(t, ic.HandleRune('q'))
	assert.Equal(t, 315.0, s.Transform().Rotation)
	assert.True(t, ic.HandleRune('e'))
	assert.Equal(t, 0.0, s.Transform().Rotation)

	assert.True(t, ic.HandleRune('r'))
	assert.Equal(t, 1, resets)

	assert.False(t, ic.HandleRune('x'))
}

func TestCanvas_TraceKeys(t *testing.T) {
	ic, s := newTestCanvas(t)
	var traceErr error
	ic.OnTraceError(func(err error) { traceErr = err })

	enter := &fyne.KeyEvent{Name: fyne.KeyReturn}
	assert.False(t, ic.HandleKey(enter), "keys pass through when not tracing")

	s.SetDevMode(true)
	require.NoError(t, s.BeginTrace())
	for _, p := range []fyne.PointEvent{at(23, 23), at(50, 23)} {
		ic.Tapped(&p)
	}
	assert.True(t, ic.HandleKey(enter))
	assert.ErrorIs(t, traceErr, tracing.ErrTooFewPoints)
	assert.True(t, s.Tracing(), "a short trace stays open")

	p := at(50, 50)
	ic.Tapped(&p)
	assert.True(t, ic.HandleKey(enter))
	assert.False(t, s.Tracing())
	require.Equal(t, 1, s.View().UserCount())
	assert.Equal(t, "new-id", s.Selected().ID)

	require.NoError(t, s.BeginTrace())
	ic.Tapped(&p)
	assert.True(t, ic.HandleKey(&fyne.KeyEvent{Name: fyne.KeyEscape}))
	assert.False(t, s.Tracing())
	assert.Equal(t, 1, s.View().UserCount())
}

func TestCanvas_DrawScalesToPixels(t *testing.T) {
	ic, _ := newTestCanvas(t)

	out := ic.draw(200, 200)
	require.NotNil(t, out)
	assert.Equal(t, image.Rect(0, 0, 200, 200), out.Bounds())

	white := color.RGBAModel.Convert(color.White)
	assert.Equal(t, white, color.RGBAModel.Convert(out.At(150, 150)), "bare board")
	assert.NotEqual(t, white, color.RGBAModel.Convert(out.At(46, 46)), "chip is tinted")
}
