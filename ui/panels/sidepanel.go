// Package panels provides UI panels for the application.
package panels

import (
	"time"

	"pcb-annotator/internal/annotation"
	"pcb-annotator/internal/app"
	"pcb-annotator/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	// Tab content
	metadataPanel *MetadataPanel
	devToolsPanel *DevToolsPanel
	metadataTab   *container.TabItem
}

// NewSidePanel creates a new side panel. Selecting an annotation brings
// the metadata tab to the front.
func NewSidePanel(state *app.State, cvs *canvas.ImageCanvas, copyFeedback time.Duration) *SidePanel {
	sp := &SidePanel{state: state}

	sp.metadataPanel = NewMetadataPanel(state, copyFeedback)
	sp.devToolsPanel = NewDevToolsPanel(state, cvs)

	sp.metadataTab = container.NewTabItem("Annotation", sp.metadataPanel.Container())
	sp.container = container.NewAppTabs(
		sp.metadataTab,
		container.NewTabItem("Developer", sp.devToolsPanel.Container()),
	)

	state.On(app.EventSelectionChanged, func(data interface{}) {
		if a, _ := data.(*annotation.Annotation); a != nil {
			sp.container.Select(sp.metadataTab)
		}
	})
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}
