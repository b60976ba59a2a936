package canvas

import (
	"image/color"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// tooltip is a floating name and description box drawn above the raster.
type tooltip struct {
	box    *fyne.Container
	name   *widget.Label
	desc   *widget.Label
	pos    fyne.Position
	bounds fyne.Size
	shown  bool
}

func newTooltip() *tooltip {
	bg := fynecanvas.NewRectangle(color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xE6})
	bg.CornerRadius = theme.InputRadiusSize()
	name := widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	desc := widget.NewLabel("")
	desc.Wrapping = fyne.TextWrapWord

	t := &tooltip{
		box:  container.NewStack(bg, container.NewVBox(name, desc)),
		name: name,
		desc: desc,
	}
	t.box.Hide()
	return t
}

// show places the tooltip with its top-left corner at pos.
func (t *tooltip) show(name, description string, pos fyne.Position) {
	t.name.SetText(name)
	t.desc.SetText(description)
	if description == "" {
		t.desc.Hide()
	} else {
		t.desc.Show()
	}
	t.pos = pos
	t.shown = true
	t.box.Show()
	t.layout(t.bounds)
}

func (t *tooltip) hide() {
	if !t.shown {
		return
	}
	t.shown = false
	t.box.Hide()
}

// layout sizes the box and keeps it inside bounds when bounds is known.
func (t *tooltip) layout(bounds fyne.Size) {
	t.bounds = bounds
	if !t.shown {
		return
	}
	size := t.box.MinSize()
	if size.Width > 320 {
		size.Width = 320
	}
	pos := t.pos
	if bounds.Width > 0 && pos.X+size.Width > bounds.Width {
		pos.X = bounds.Width - size.Width
	}
	if bounds.Height > 0 && pos.Y+size.Height > bounds.Height {
		pos.Y = bounds.Height - size.Height
	}
	t.box.Resize(size)
	t.box.Move(pos)
}

func (t *tooltip) refresh() {
	if t.shown {
		t.box.Refresh()
	}
}
