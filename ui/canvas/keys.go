package canvas

import (
	"fyne.io/fyne/v2"
)

// HandleRune applies a character shortcut and reports whether it was used.
// The window forwards runes only while no text entry has focus.
func (ic *ImageCanvas) HandleRune(r rune) bool {
	switch r {
	case '+', '=':
		ic.state.ZoomIn()
	case '-', '_':
		ic.state.ZoomOut()
	case 'q', 'Q':
		ic.state.RotateLeft()
	case 'e', 'E':
		ic.state.RotateRight()
	case 'r', 'R':
		if ic.onReset != nil {
			ic.onReset()
		}
	default:
		return false
	}
	return true
}

// HandleKey applies a named-key shortcut: Enter completes and Escape
// cancels the current trace.
func (ic *ImageCanvas) HandleKey(ev *fyne.KeyEvent) bool {
	if !ic.state.Tracing() {
		return false
	}
	switch ev.Name {
	case fyne.KeyReturn, fyne.KeyEnter:
		ic.CompleteTrace()
	case fyne.KeyEscape:
		ic.state.CancelTrace()
	default:
		return false
	}
	return true
}

// OnReset sets the callback for the reset shortcut. The window decides
// whether the reset needs confirmation.
func (ic *ImageCanvas) OnReset(callback func()) {
	ic.onReset = callback
}
