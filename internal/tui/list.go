package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/axel-dashboard/internal/notify"
)

// renderList renders the left panel: the filtered feed, newest first.
func (m model) renderList(width, height int) string {
	visible := m.visible()
	if len(visible) == 0 {
		msg := "Waiting for events..."
		if m.filterInput.Value() != "" {
			msg = "No matches"
		}
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(msg)
	}

	var lines []string
	for i, ev := range visible {
		if i < m.listOffset {
			continue
		}
		if len(lines) >= height {
			break
		}
		lines = append(lines, formatEventLine(ev, width, i == m.cursor))
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatEventLine formats one event as: [>] kind HH:MM:SS summary
func formatEventLine(ev event, width int, selected bool) string {
	var kind string
	if ev.kind == notify.TypeActivity {
		kind = styleKindActivity.Render("act")
	} else {
		kind = styleKindConversation.Render("conv")
	}
	clock := styleDim.Render(ev.stamp().Local().Format("15:04:05"))

	summary := strings.Join(strings.Fields(ev.summary()), " ")
	summaryMax := width - 2 - 5 - 9 - 1 // cursor + kind + clock + padding
	if summaryMax < 0 {
		summaryMax = 0
	}
	if runewidth.StringWidth(summary) > summaryMax {
		summary = runewidth.Truncate(summary, summaryMax, "…")
	}

	line := fmt.Sprintf("%s %s %s", kind, clock, summary)
	if selected {
		return styleListSelected.Render("> ") + line
	}
	return "  " + line
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	if listHeight < 1 {
		listHeight = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+listHeight {
		m.listOffset = m.cursor - listHeight + 1
	}
}
