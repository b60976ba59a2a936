package panels

import (
	"fmt"

	"pcb-annotator/internal/app"
	"pcb-annotator/internal/tracing"
	"pcb-annotator/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// DevToolsPanel toggles developer mode and drives polygon tracing.
type DevToolsPanel struct {
	state  *app.State
	canvas *canvas.ImageCanvas
	box    *fyne.Container

	devCheck    *widget.Check
	traceBtn    *widget.Button
	finishBtn   *widget.Button
	cancelBtn   *widget.Button
	statusLabel *widget.Label
}

// NewDevToolsPanel creates a new developer tools panel.
func NewDevToolsPanel(state *app.State, cvs *canvas.ImageCanvas) *DevToolsPanel {
	dp := &DevToolsPanel{state: state, canvas: cvs}

	dp.devCheck = widget.NewCheck("Developer mode", func(on bool) {
		state.SetDevMode(on)
	})
	dp.devCheck.SetChecked(state.DevMode())

	dp.traceBtn = widget.NewButtonWithIcon("Trace", theme.ContentAddIcon(), func() {
		if err := state.BeginTrace(); err != nil {
			dp.statusLabel.SetText(err.Error())
		}
	})
	dp.finishBtn = widget.NewButtonWithIcon("Finish", theme.ConfirmIcon(), cvs.CompleteTrace)
	dp.cancelBtn = widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), state.CancelTrace)

	dp.statusLabel = widget.NewLabel("")
	dp.statusLabel.Wrapping = fyne.TextWrapWord

	help := widget.NewLabel("Click the image to place vertices. Enter finishes, Escape cancels.")
	help.Wrapping = fyne.TextWrapWord
	help.Importance = widget.LowImportance

	dp.box = container.NewVBox(
		dp.devCheck,
		widget.NewSeparator(),
		container.NewHBox(dp.traceBtn, dp.finishBtn, dp.cancelBtn),
		dp.statusLabel,
		help,
	)

	for _, ev := range []app.EventType{
		app.EventDevModeChanged,
		app.EventTraceStarted,
		app.EventTraceUpdated,
		app.EventTraceCompleted,
		app.EventTraceCancelled,
		app.EventViewChanged,
	} {
		state.On(ev, func(interface{}) { dp.refresh() })
	}
	dp.refresh()
	return dp
}

// Container returns the panel container.
func (dp *DevToolsPanel) Container() fyne.CanvasObject {
	return dp.box
}

func (dp *DevToolsPanel) refresh() {
	dev := dp.state.DevMode()
	active := dp.state.Tracing()
	if dp.devCheck.Checked != dev {
		dp.devCheck.SetChecked(dev)
	}

	setEnabled(dp.traceBtn, dev && !active && dp.state.View() != nil)
	setEnabled(dp.finishBtn, active)
	setEnabled(dp.cancelBtn, active)

	switch {
	case active:
		dp.statusLabel.SetText(vertexStatus(dp.state.TraceLen()))
	case dev:
		dp.statusLabel.SetText("Ready to trace")
	default:
		dp.statusLabel.SetText("Developer mode is off")
	}
}

func vertexStatus(n int) string {
	switch {
	case n == 1:
		return "1 vertex"
	case n < tracing.MinPoints:
		return fmt.Sprintf("%d vertices (need %d)", n, tracing.MinPoints)
	default:
		return fmt.Sprintf("%d vertices", n)
	}
}

func setEnabled(w fyne.Disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}
