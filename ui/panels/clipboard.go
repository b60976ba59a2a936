package panels

import (
	"context"

	"pcb-annotator/internal/app"

	"fyne.io/fyne/v2"
)

// WindowClipboard adapts a window's clipboard for app.State.
type WindowClipboard struct {
	Window fyne.Window
}

var _ app.Clipboard = WindowClipboard{}

// WriteText puts text on the clipboard.
func (c WindowClipboard) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Window.Clipboard().SetContent(text)
	return nil
}
