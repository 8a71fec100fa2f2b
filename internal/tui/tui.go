// Package tui is a terminal viewer for the dashboard's live channel.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"github.com/Zuo-Peng/axel-dashboard/internal/parse"
)

// Options configures Run.
type Options struct {
	URL    string                 // live endpoint, e.g. ws://localhost:3847/ws
	Seed   []parse.ActivityRecord // newest first, shown before any push arrives
	Dialer *websocket.Dialer      // nil = websocket.DefaultDialer
}

// Run connects to the live channel and shows pushed events until the user
// quits.
func Run(opts Options) error {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.Dial(opts.URL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", opts.URL, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	m := newModel(opts.URL, seedEvents(opts.Seed, time.Now()))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	go readFeed(conn, p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

type copiedMsg struct {
	text string
	err  error
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{text: text, err: clipboard.WriteAll(text)}
	}
}

// model

type model struct {
	url         string
	events      []event // newest first
	seqs        []int   // parallel to events
	nextSeq     int
	cursor      int // index into visible()
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewSeq  int // seq shown in preview, -1 = none
	width       int
	height      int
	ready       bool
	quitting    bool
	connErr     error
	status      string
}

func newModel(url string, seed []event) model {
	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Focus()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	m := model{
		url:         url,
		filterInput: ti,
		preview:     viewport.New(0, 0),
		previewSeq:  -1,
	}
	// seed is newest first; append keeps that order
	for _, ev := range seed {
		m.events = append(m.events, ev)
		m.seqs = append(m.seqs, m.nextSeq)
		m.nextSeq++
	}
	return m
}

// visibleIdx returns the indices into events that pass the filter.
func (m model) visibleIdx() []int {
	filter := m.filterInput.Value()
	idx := make([]int, 0, len(m.events))
	for i, ev := range m.events {
		if ev.matches(filter) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (m model) visible() []event {
	idx := m.visibleIdx()
	out := make([]event, len(idx))
	for i, j := range idx {
		out[i] = m.events[j]
	}
	return out
}

// selected returns the event under the cursor and its seq.
func (m model) selected() (event, int, bool) {
	idx := m.visibleIdx()
	if m.cursor < 0 || m.cursor >= len(idx) {
		return event{}, -1, false
	}
	return m.events[idx[m.cursor]], m.seqs[idx[m.cursor]], true
}

// push prepends ev. A reader following the newest event keeps following;
// otherwise the cursor stays on the event it was on.
func (m *model) push(ev event) {
	m.events = append([]event{ev}, m.events...)
	m.seqs = append([]int{m.nextSeq}, m.seqs...)
	m.nextSeq++
	if len(m.events) > maxEvents {
		m.events = m.events[:maxEvents]
		m.seqs = m.seqs[:maxEvents]
	}
	if m.cursor > 0 && ev.matches(m.filterInput.Value()) {
		m.cursor++
	}
	m.clampCursor()
	m.adjustListScroll(m.panelHeight())
}

func (m *model) clampCursor() {
	n := len(m.visibleIdx())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// refreshPreview re-renders the preview when the selection changed.
func (m *model) refreshPreview(force bool) {
	ev, seq, ok := m.selected()
	if !ok {
		m.preview.SetContent("")
		m.previewSeq = -1
		return
	}
	if seq == m.previewSeq && !force {
		return
	}
	m.preview.SetContent(renderPreview(ev, m.previewWidth(), m.filterInput.Value()))
	m.preview.GotoTop()
	m.previewSeq = seq
}

// Init starts the cursor blinking.
func (m model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.refreshPreview(true)
		return m, nil

	case eventMsg:
		m.push(msg.ev)
		m.refreshPreview(false)
		return m, nil

	case connClosedMsg:
		m.connErr = msg.err
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "clipboard unavailable: " + msg.err.Error()
		} else {
			m.status = "copied event json"
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Copy):
			if ev, _, ok := m.selected(); ok {
				return m, copyCmd(ev.payload())
			}
			return m, nil

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				m.refreshPreview(false)
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.visibleIdx())-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				m.refreshPreview(false)
			}
			return m, nil

		case key.Matches(msg, keys.Top):
			m.cursor = 0
			m.listOffset = 0
			m.refreshPreview(false)
			return m, nil

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
			return m, nil
		}

		// remaining keys edit the filter
		before := m.filterInput.Value()
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		if m.filterInput.Value() != before {
			m.cursor = 0
			m.listOffset = 0
			m.refreshPreview(true)
		}
		return m, cmd

	case tea.MouseMsg:
		if !m.ready {
			return m, nil
		}
		region, row := m.hitTest(msg.X, msg.Y)
		switch {
		case region == regionList && msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
		case region == regionList && msg.Button == tea.MouseButtonWheelDown:
			maxOffset := len(m.visibleIdx()) - m.panelHeight()
			if m.listOffset < maxOffset {
				m.listOffset++
			}
		case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if row >= 0 && row < len(m.visibleIdx()) {
				m.cursor = row
				m.refreshPreview(false)
			}
		case region == regionPreview:
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)
	return lipgloss.JoinVertical(lipgloss.Left, m.filterInput.View(), panels, m.statusBar())
}

// helper methods

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	w := m.width*40/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	w := m.width*60/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// input row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list row.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	contentYStart := 2 // input row (1) + top border (1)
	contentYEnd := contentYStart + m.panelHeight() - 1
	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}

	lw := m.listWidth()
	if x >= 1 && x <= lw {
		return regionList, m.listOffset + (y - contentYStart)
	}
	if x > lw+2 {
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	if m.connErr != nil {
		return styleStatusError.Render(fmt.Sprintf("disconnected from %s: %v | Esc quit", m.url, m.connErr))
	}
	parts := []string{
		fmt.Sprintf("%d/%d events", len(m.visibleIdx()), len(m.events)),
		"up/dn navigate",
		"home follow",
		"C-u/C-d preview",
		"Enter copy json",
		"Esc quit",
	}
	if m.status != "" {
		parts = append([]string{m.status}, parts...)
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}
