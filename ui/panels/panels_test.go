package panels

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pcb-annotator/internal/annotation"
	"pcb-annotator/internal/app"
	"pcb-annotator/internal/viewport"
	"pcb-annotator/ui/canvas"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
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

func newTestState(t *testing.T) *app.State {
	t.Helper()
	test.NewTempApp(t)

	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "board.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 100, 100))))
	require.NoError(t, f.Close())
	source := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(source, []byte(boardYAML), 0o644))

	s := app.NewState(viewport.DefaultLimits())
	s.RegisterView("board", source)
	require.NoError(t, s.SwitchView("board"))
	s.Resize(100, 100)
	return s
}

func traceTriangle(t *testing.T, s *app.State) *annotation.Annotation {
	t.Helper()
	s.SetDevMode(true)
	require.NoError(t, s.BeginTrace())
	for _, p := range [][2]float64{{40, 40}, {60, 40}, {50, 60}} {
		_, err := s.AddVertex(p[0], p[1])
		require.NoError(t, err)
	}
	a, err := s.CompleteTrace()
	require.NoError(t, err)
	return a
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func (c *fakeClipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func TestMetadataPanel_EmptyUntilSelection(t *testing.T) {
	s := newTestState(t)
	mp := NewMetadataPanel(s, 0)

	assert.Nil(t, mp.current)
	assert.False(t, mp.form.Visible())
	assert.Equal(t, DefaultCopyFeedback, mp.feedback)
}

func TestMetadataPanel_BaselineIsReadOnly(t *testing.T) {
	s := newTestState(t)
	mp := NewMetadataPanel(s, 0)

	chip := s.View().Baseline()[0]
	s.Select(chip)

	assert.True(t, mp.form.Visible())
	assert.Equal(t, "Chip", mp.title.Text)
	assert.Equal(t, "chip", mp.idEntry.Text)
	assert.True(t, mp.nameEntry.Disabled())
	assert.False(t, mp.discardBtn.Visible())
	assert.Equal(t, annotation.ExportJSON(chip), mp.jsonLabel.Text)

	mp.nameEntry.SetText("Renamed")
	assert.Equal(t, "Chip", chip.Name, "baseline annotations never change")
}

func TestMetadataPanel_EditsUserAnnotationLive(t *testing.T) {
	s := newTestState(t)
	mp := NewMetadataPanel(s, 0)

	a := traceTriangle(t, s)
	require.Same(t, a, mp.current, "a completed trace opens the panel")
	assert.False(t, mp.nameEntry.Disabled())
	assert.True(t, mp.discardBtn.Visible())
	assert.Equal(t, "new-id", mp.idEntry.Text)

	mp.idEntry.SetText("y1")
	mp.nameEntry.SetText("Crystal")
	assert.Equal(t, "y1", a.ID)
	assert.Equal(t, "Crystal", a.Name)
	assert.Contains(t, mp.jsonLabel.Text, `"name": "Crystal"`)
	assert.Equal(t, annotation.ExportJSON(a), mp.jsonLabel.Text)

	mp.nameEntry.SetText("")
	assert.Equal(t, annotation.PlaceholderName, a.Name, "empty fields fall back to the placeholder")
	assert.Contains(t, mp.jsonLabel.Text, `"name": "New Feature Name"`)
}

func TestMetadataPanel_Discard(t *testing.T) {
	s := newTestState(t)
	mp := NewMetadataPanel(s, 0)
	traceTriangle(t, s)
	keep := traceTriangle(t, s)
	s.Select(s.View().User()[0])

	test.Tap(mp.discardBtn)
	require.Equal(t, 1, s.View().UserCount())
	assert.Same(t, keep, s.View().User()[0])
	assert.Nil(t, mp.current)
	assert.False(t, mp.form.Visible())
}

func TestMetadataPanel_CopyShowsFeedback(t *testing.T) {
	s := newTestState(t)
	clip := &fakeClipboard{}
	s.SetClipboard(clip)
	mp := NewMetadataPanel(s, 300*time.Millisecond)

	chip := s.View().Baseline()[0]
	s.Select(chip)
	test.Tap(mp.copyBtn)

	iconIs := func(want string) func() bool {
		return func() bool { return mp.copyBtn.Icon != nil && mp.copyBtn.Icon.Name() == want }
	}
	assert.Eventually(t, iconIs(theme.ConfirmIcon().Name()), time.Second, 5*time.Millisecond)
	assert.Equal(t, annotation.ExportJSON(chip), clip.Text())
	assert.Eventually(t, iconIs(theme.ContentCopyIcon().Name()), 2*time.Second, 10*time.Millisecond,
		"icon returns after the feedback delay")
}

func TestWindowClipboard(t *testing.T) {
	test.NewTempApp(t)
	w := test.NewWindow(nil)
	defer w.Close()

	c := WindowClipboard{Window: w}
	require.NoError(t, c.WriteText(context.Background(), `{"id": "x"}`))
	assert.Equal(t, `{"id": "x"}`, w.Clipboard().Content())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.WriteText(ctx, "ignored"), context.Canceled)
	assert.Equal(t, `{"id": "x"}`, w.Clipboard().Content())
}

func TestDevToolsPanel(t *testing.T) {
	s := newTestState(t)
	dp := NewDevToolsPanel(s, canvas.NewImageCanvas(s))

	assert.True(t, dp.traceBtn.Disabled(), "tracing needs developer mode")
	assert.Equal(t, "Developer mode is off", dp.statusLabel.Text)

	dp.devCheck.SetChecked(true)
	assert.True(t, s.DevMode())
	assert.False(t, dp.traceBtn.Disabled())

	test.Tap(dp.traceBtn)
	require.True(t, s.Tracing())
	assert.True(t, dp.traceBtn.Disabled())
	assert.False(t, dp.finishBtn.Disabled())
	assert.Equal(t, "0 vertices (need 3)", dp.statusLabel.Text)

	_, err := s.AddVertex(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "1 vertex", dp.statusLabel.Text)

	test.Tap(dp.cancelBtn)
	assert.False(t, s.Tracing())
	assert.Equal(t, "Ready to trace", dp.statusLabel.Text)

	s.SetDevMode(false)
	assert.False(t, dp.devCheck.Checked)
}

func TestVertexStatus(t *testing.T) {
	assert.Equal(t, "0 vertices (need 3)", vertexStatus(0))
	assert.Equal(t, "1 vertex", vertexStatus(1))
	assert.Equal(t, "2 vertices (need 3)", vertexStatus(2))
	assert.Equal(t, "5 vertices", vertexStatus(5))
}
