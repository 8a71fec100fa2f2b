package tui

import (
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/Zuo-Peng/axel-dashboard/internal/notify"
	"github.com/Zuo-Peng/axel-dashboard/internal/parse"
	"github.com/Zuo-Peng/axel-dashboard/internal/render"
)

// renderPreview renders the full body of one event for the right panel.
func renderPreview(ev event, width int, query string) string {
	opts := render.Options{Width: width, Query: query}
	if ev.kind == notify.TypeActivity {
		return render.Activity([]parse.ActivityRecord{ev.activity}, opts)
	}
	return render.Single(ev.message, opts)
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
