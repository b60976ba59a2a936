// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"path/filepath"

	"pcb-annotator/internal/app"
	"pcb-annotator/internal/config"
	"pcb-annotator/internal/image"
	"pcb-annotator/internal/logging"
	"pcb-annotator/internal/tracing"
	"pcb-annotator/internal/version"
	"pcb-annotator/internal/viewport"
	"pcb-annotator/ui/canvas"
	"pcb-annotator/ui/panels"
	"pcb-annotator/ui/prefs"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

const appTitle = "PCB Annotator"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	log       zerolog.Logger
	canvas    *canvas.ImageCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	watcher   *app.MapWatcher

	viewSelect  *widget.Select
	labelsCheck *widget.Check
}

// Run builds the application from cfg and blocks until the window closes.
func Run(cfg *config.Config) error {
	fyneApp := fyneapp.NewWithID("io.github.pcb-annotator")
	fyneApp.Settings().SetTheme(&app.AnnotatorTheme{})

	state := app.NewState(cfg.Limits())
	sources := make(map[string]string)
	for _, name := range cfg.ViewNames() {
		path, _ := cfg.MapPath(name)
		state.RegisterView(name, path)
		sources[name] = path
	}

	p := prefs.Load()
	state.SetDevMode(cfg.DevMode || p.Bool(prefs.KeyDevMode, false))

	mw := New(fyneApp, state, p, cfg)

	start := cfg.StartView
	if last := p.String(prefs.KeyLastView); last != "" {
		if _, ok := state.SourcePath(last); ok {
			start = last
		}
	}
	if start != "" {
		if err := state.SwitchView(start); err != nil && !errors.Is(err, app.ErrUnknownView) {
			mw.updateStatus("Failed to load " + start)
		}
	}

	mw.watcher = app.NewMapWatcher(sources, cfg.Watch.Interval)
	mw.watcher.OnChange(state.SourceChanged)
	if !mw.watcher.Start() {
		mw.log.Info().Dur("interval", cfg.Watch.Interval).Msg("Map watching disabled")
	}
	defer mw.watcher.Stop()

	mw.ShowAndRun()
	return p.SaveIfChanged()
}

// New creates the main window around an existing state.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs, cfg *config.Config) *MainWindow {
	mw := &MainWindow{
		Window: fyneApp.NewWindow(appTitle),
		app:    fyneApp,
		state:  state,
		prefs:  p,
		log:    logging.For("mainwindow"),
	}

	mw.setupUI(cfg)
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupKeys()

	mw.state.SetClipboard(panels.WindowClipboard{Window: mw.Window})
	mw.Resize(fyne.NewSize(
		float32(p.Int(prefs.KeyWindowWidth, cfg.Window.Width)),
		float32(p.Int(prefs.KeyWindowHeight, cfg.Window.Height)),
	))
	mw.SetCloseIntercept(mw.onClose)
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI(cfg *config.Config) {
	mw.canvas = canvas.NewImageCanvas(mw.state)
	mw.canvas.SetZoomStep(cfg.Viewport.ZoomStep)
	mw.canvas.SetLabels(mw.prefs.Bool(prefs.KeyLabels, true))
	mw.canvas.OnReset(mw.onReset)
	mw.canvas.OnTraceError(mw.onTraceError)

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas, cfg.Clipboard.Feedback)
	mw.statusBar = widget.NewLabel("Ready")

	canvasArea := container.NewBorder(
		mw.createToolbar(), // top
		nil,                // bottom
		nil,                // left
		nil,                // right
		mw.canvas,          // center
	)

	// Canvas first: the side panel sits on the right.
	split := container.NewHSplit(canvasArea, mw.sidePanel.Container())
	split.SetOffset(0.75)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)
	mw.SetContent(content)
}

// createToolbar creates the view switcher and viewport controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	mw.viewSelect = widget.NewSelect(mw.state.ViewNames(), mw.onSelectView)
	mw.viewSelect.PlaceHolder = "(no view)"

	mw.labelsCheck = widget.NewCheck("Labels", func(on bool) {
		mw.canvas.SetLabels(on)
		mw.prefs.SetBool(prefs.KeyLabels, on)
	})
	mw.labelsCheck.SetChecked(mw.canvas.Labels())

	return container.NewHBox(
		widget.NewLabel("View:"),
		mw.viewSelect,
		widget.NewSeparator(),
		widget.NewButtonWithIcon("", theme.ZoomOutIcon(), mw.state.ZoomOut),
		widget.NewButtonWithIcon("", theme.ZoomInIcon(), mw.state.ZoomIn),
		widget.NewButton("⟲", mw.state.RotateLeft),
		widget.NewButton("⟳", mw.state.RotateRight),
		widget.NewButtonWithIcon("Reset", theme.ViewRefreshIcon(), mw.onReset),
		widget.NewSeparator(),
		mw.labelsCheck,
		widget.NewButtonWithIcon("Upload", theme.UploadIcon(), mw.onUpload),
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Upload Image...", mw.onUpload),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", mw.onClose),
	)

	var views []*fyne.MenuItem
	for _, name := range mw.state.ViewNames() {
		views = append(views, fyne.NewMenuItem(name, func() { mw.onSelectView(name) }))
	}
	viewMenu := fyne.NewMenu("View", append(views,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Zoom In", mw.state.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.state.ZoomOut),
		fyne.NewMenuItem("Rotate Left", mw.state.RotateLeft),
		fyne.NewMenuItem("Rotate Right", mw.state.RotateRight),
		fyne.NewMenuItem("Reset View", mw.onReset),
	)...)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventViewChanged, func(interface{}) {
		name := mw.state.ViewName()
		if _, ok := mw.state.SourcePath(name); ok {
			mw.viewSelect.SetSelected(name)
			mw.prefs.SetString(prefs.KeyLastView, name)
		} else {
			mw.viewSelect.ClearSelected()
		}
		mw.SetTitle(appTitle + " - " + name)
		if mw.state.Layer() == nil {
			mw.updateStatus(name + ": image failed to load")
		}
	})

	mw.state.On(app.EventTransformChanged, func(data interface{}) {
		if t, ok := data.(viewport.Transform); ok {
			mw.updateStatus(fmt.Sprintf("%s  %.0f%%  %g°", mw.state.ViewName(), t.Scale*100, t.Rotation))
		}
	})

	mw.state.On(app.EventDevModeChanged, func(data interface{}) {
		if on, ok := data.(bool); ok {
			mw.prefs.SetBool(prefs.KeyDevMode, on)
		}
	})

	mw.state.On(app.EventSourceChanged, func(data interface{}) {
		name, _ := data.(string)
		if name != mw.state.ViewName() {
			return
		}
		mw.promptReload(name)
	})
}

// setupKeys forwards keys the focused widget did not consume.
func (mw *MainWindow) setupKeys() {
	mw.Canvas().SetOnTypedRune(func(r rune) {
		mw.canvas.HandleRune(r)
	})
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		mw.canvas.HandleKey(ev)
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDirectory)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDirectory, filepath.Dir(filePath))
}

func (mw *MainWindow) onSelectView(name string) {
	if name == "" || name == mw.state.ViewName() {
		return
	}
	if err := mw.state.SwitchView(name); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onReset() {
	if mw.state.RequestReset() == app.ResetDone {
		return
	}
	n := mw.state.View().UserCount()
	dialog.ShowConfirm("Reset view",
		fmt.Sprintf("Discard %d traced annotation(s) and restore the view?", n),
		func(ok bool) {
			if ok {
				mw.state.PerformReset()
			}
		}, mw.Window)
}

func (mw *MainWindow) onTraceError(err error) {
	if errors.Is(err, tracing.ErrTooFewPoints) {
		dialog.ShowInformation("Trace incomplete",
			fmt.Sprintf("A polygon needs at least %d points.", tracing.MinPoints), mw.Window)
		return
	}
	mw.log.Warn().Err(err).Msg("Trace not completed")
}

func (mw *MainWindow) onUpload() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadUpload(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Uploaded " + filepath.Base(path))
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(image.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) promptReload(name string) {
	msg := fmt.Sprintf("The map source for %q changed on disk. Reload it?", name)
	if v := mw.state.View(); v != nil && v.UserCount() > 0 {
		msg += fmt.Sprintf("\n\n%d traced annotation(s) will be lost.", v.UserCount())
	}
	dialog.ShowConfirm("Map changed", msg, func(ok bool) {
		if !ok {
			return
		}
		if err := mw.reload(name); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
}

// reload re-reads a view's source and marks the file as seen.
func (mw *MainWindow) reload(name string) error {
	if err := mw.state.ReloadView(name); err != nil {
		return err
	}
	if mw.watcher != nil {
		mw.watcher.ResetBaseline(name)
	}
	return nil
}

func (mw *MainWindow) onClose() {
	size := mw.Canvas().Size()
	mw.prefs.SetInt(prefs.KeyWindowWidth, int(size.Width))
	mw.prefs.SetInt(prefs.KeyWindowHeight, int(size.Height))
	if err := mw.prefs.SaveIfChanged(); err != nil {
		mw.log.Warn().Err(err).Msg("Failed to save preferences")
	}
	mw.app.Quit()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Explore annotated photos of a circuit board.\n"+
			"Hover or click a region to see what it is.\n\n"+
			"Keys: + and - zoom, q and e rotate, r resets.\n"+
			"Developer mode traces new regions.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
