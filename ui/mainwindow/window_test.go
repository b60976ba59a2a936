package mainwindow

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pcb-annotator/internal/app"
	"pcb-annotator/internal/config"
	"pcb-annotator/internal/viewport"
	"pcb-annotator/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceYAML = `name: %s
image: board.png
annotations:
  - id: chip
    name: Chip
    description: U1
    coordinates: [[10, 10], [30, 10], [30, 30], [10, 30]]
`

func newTestWindow(t *testing.T) (*MainWindow, *app.State, *prefs.Prefs) {
	t.Helper()
	a := test.NewTempApp(t)

	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "board.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 100, 100))))
	require.NoError(t, f.Close())

	cfg := &config.Config{
		MapsDir:   dir,
		Maps:      map[string]string{"top": "top.yaml", "bottom": "bottom.yaml"},
		StartView: "top",
		Viewport: config.ViewportConfig{
			MinScale:    viewport.DefaultMinScale,
			MaxScale:    viewport.DefaultMaxScale,
			ZoomStep:    viewport.DefaultZoomStep,
			FitCoverage: viewport.DefaultFitCoverage,
		},
		Window: config.WindowConfig{Width: 640, Height: 480},
	}
	cfg.Clipboard.Feedback = 100 * time.Millisecond

	s := app.NewState(cfg.Limits())
	for _, name := range cfg.ViewNames() {
		path, _ := cfg.MapPath(name)
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(sourceYAML, name)), 0o644))
		s.RegisterView(name, path)
	}

	p := prefs.LoadFrom(t.TempDir())
	mw := New(a, s, p, cfg)
	t.Cleanup(mw.Close)
	require.NoError(t, s.SwitchView("top"))
	return mw, s, p
}

func TestNew_RegistersViews(t *testing.T) {
	mw, s, p := newTestWindow(t)

	assert.Equal(t, []string{"top", "bottom"}, mw.viewSelect.Options)
	assert.Equal(t, "top", mw.viewSelect.Selected)
	assert.Equal(t, "PCB Annotator - top", mw.Title())
	assert.Equal(t, "top", p.String(prefs.KeyLastView))
	assert.Equal(t, "top", s.ViewName())
}

func TestViewSelectSwitchesView(t *testing.T) {
	mw, s, p := newTestWindow(t)

	mw.viewSelect.SetSelected("bottom")
	assert.Equal(t, "bottom", s.ViewName())
	assert.Equal(t, "bottom", p.String(prefs.KeyLastView))

	mw.onSelectView("")
	assert.Equal(t, "bottom", s.ViewName())
}

func TestUploadClearsViewSelection(t *testing.T) {
	mw, s, _ := newTestWindow(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 20, 10))))
	require.NoError(t, f.Close())

	require.NoError(t, s.LoadUpload(path))
	assert.Equal(t, app.UploadViewName, s.ViewName())
	assert.Equal(t, "", mw.viewSelect.Selected)
	assert.Empty(t, s.View().All())
}

func TestKeysReachCanvas(t *testing.T) {
	mw, s, _ := newTestWindow(t)
	mw.canvas.Resize(fyne.NewSize(100, 100))
	before := s.Transform().Scale

	mw.Canvas().OnTypedRune()('+')
	assert.InDelta(t, before*viewport.DefaultZoomStep, s.Transform().Scale, 1e-9)

	mw.Canvas().OnTypedRune()('e')
	assert.Equal(t, 45.0, s.Transform().Rotation)
	assert.Contains(t, mw.statusBar.Text, "45°")

	mw.Canvas().OnTypedRune()('r')
	assert.Equal(t, 0.0, s.Transform().Rotation, "reset with no traced annotations needs no confirmation")
}

func TestLabelsTogglePersists(t *testing.T) {
	mw, _, p := newTestWindow(t)
	require.True(t, mw.canvas.Labels())

	mw.labelsCheck.SetChecked(false)
	assert.False(t, mw.canvas.Labels())
	assert.False(t, p.Bool(prefs.KeyLabels, true))
}

func TestReloadMarksSourceSeen(t *testing.T) {
	mw, s, _ := newTestWindow(t)
	path, ok := s.SourcePath("top")
	require.True(t, ok)
	mw.watcher = app.NewMapWatcher(map[string]string{"top": path}, time.Hour)

	edited := fmt.Sprintf(sourceYAML, "top") + `  - id: pad
    name: Pad
    description: Test pad
    coordinates: [[50, 50], [60, 50], [60, 60]]
`
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	require.NoError(t, mw.reload("top"))
	assert.Len(t, s.View().Baseline(), 2)
	assert.Empty(t, mw.watcher.Check(), "a reloaded source is not reported again")
}
