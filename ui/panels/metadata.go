package panels

import (
	"context"
	"time"

	"pcb-annotator/internal/annotation"
	"pcb-annotator/internal/app"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// DefaultCopyFeedback is how long the copy button shows its check mark.
const DefaultCopyFeedback = 800 * time.Millisecond

// MetadataPanel shows the selected annotation. Baseline annotations are
// read-only; user annotations are edited in place and their JSON is
// regenerated on every keystroke.
type MetadataPanel struct {
	state    *app.State
	feedback time.Duration
	box      *fyne.Container

	title      *widget.Label
	idEntry    *widget.Entry
	nameEntry  *widget.Entry
	descEntry  *widget.Entry
	jsonLabel  *widget.Label
	copyBtn    *widget.Button
	discardBtn *widget.Button
	form       *fyne.Container

	current *annotation.Annotation
	loading bool // Set while entries are filled programmatically
}

// NewMetadataPanel creates the panel and follows the state's selection.
func NewMetadataPanel(state *app.State, feedback time.Duration) *MetadataPanel {
	if feedback <= 0 {
		feedback = DefaultCopyFeedback
	}
	mp := &MetadataPanel{state: state, feedback: feedback}
	mp.buildUI()
	mp.show(nil)

	state.On(app.EventSelectionChanged, func(data interface{}) {
		a, _ := data.(*annotation.Annotation)
		mp.show(a)
	})
	return mp
}

// Container returns the panel container.
func (mp *MetadataPanel) Container() fyne.CanvasObject {
	return mp.box
}

func (mp *MetadataPanel) buildUI() {
	mp.title = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	ph := annotation.DefaultPlaceholders
	mp.idEntry = widget.NewEntry()
	mp.idEntry.SetPlaceHolder(ph.ID)
	mp.nameEntry = widget.NewEntry()
	mp.nameEntry.SetPlaceHolder(ph.Name)
	mp.descEntry = widget.NewMultiLineEntry()
	mp.descEntry.SetPlaceHolder(ph.Description)
	mp.descEntry.Wrapping = fyne.TextWrapWord
	mp.descEntry.SetMinRowsVisible(3)
	for _, e := range []*widget.Entry{mp.idEntry, mp.nameEntry, mp.descEntry} {
		e.OnChanged = func(string) { mp.onEdited() }
	}

	mp.jsonLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Monospace: true})
	mp.jsonLabel.Wrapping = fyne.TextWrapBreak

	mp.copyBtn = widget.NewButtonWithIcon("Copy JSON", theme.ContentCopyIcon(), mp.onCopy)
	mp.discardBtn = widget.NewButtonWithIcon("Discard", theme.DeleteIcon(), mp.onDiscard)
	mp.discardBtn.Importance = widget.DangerImportance

	mp.form = container.NewVBox(
		widget.NewForm(
			widget.NewFormItem("ID", mp.idEntry),
			widget.NewFormItem("Name", mp.nameEntry),
			widget.NewFormItem("Description", mp.descEntry),
		),
		widget.NewSeparator(),
		mp.jsonLabel,
		container.NewHBox(mp.copyBtn, mp.discardBtn),
	)
	mp.box = container.NewBorder(mp.title, nil, nil, nil, container.NewVScroll(mp.form))
}

// show fills the panel from a; nil closes it.
func (mp *MetadataPanel) show(a *annotation.Annotation) {
	mp.current = a
	if a == nil {
		mp.title.SetText("Nothing selected")
		mp.form.Hide()
		return
	}

	mp.loading = true
	mp.idEntry.SetText(a.ID)
	mp.nameEntry.SetText(a.Name)
	mp.descEntry.SetText(a.Description)
	mp.loading = false

	entries := []*widget.Entry{mp.idEntry, mp.nameEntry, mp.descEntry}
	if a.UserGenerated {
		mp.title.SetText("New annotation")
		for _, e := range entries {
			e.Enable()
		}
		mp.discardBtn.Show()
	} else {
		mp.title.SetText(a.Name)
		for _, e := range entries {
			e.Disable()
		}
		mp.discardBtn.Hide()
	}
	mp.jsonLabel.SetText(annotation.ExportJSON(a))
	mp.copyBtn.SetIcon(theme.ContentCopyIcon())
	mp.form.Show()
}

func (mp *MetadataPanel) onEdited() {
	if mp.loading || mp.current == nil || !mp.current.UserGenerated {
		return
	}
	text, err := mp.state.EditSelected(annotation.Fields{
		ID:          mp.idEntry.Text,
		Name:        mp.nameEntry.Text,
		Description: mp.descEntry.Text,
	})
	if err != nil {
		return
	}
	mp.jsonLabel.SetText(text)
}

func (mp *MetadataPanel) onCopy() {
	a := mp.current
	if a == nil {
		return
	}
	result := mp.state.CopyJSON(context.Background(), a)
	go func() {
		if err := <-result; err != nil {
			return
		}
		mp.copyBtn.SetIcon(theme.ConfirmIcon())
		time.AfterFunc(mp.feedback, func() {
			mp.copyBtn.SetIcon(theme.ContentCopyIcon())
		})
	}()
}

func (mp *MetadataPanel) onDiscard() {
	a := mp.current
	if a == nil || !a.UserGenerated {
		return
	}
	// Errors are logged by the state; the selection event closes the panel.
	_ = mp.state.DiscardUser(a.UUID)
}
