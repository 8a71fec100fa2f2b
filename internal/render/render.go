package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/axel-dashboard/internal/parse"
)

const (
	colorReset   = "\033[0m"
	colorUser    = "\033[1;34m" // bold blue
	colorAssist  = "\033[1;32m" // bold green
	colorThink   = "\033[2;35m" // dim magenta for thinking
	colorDim     = "\033[2m"
	colorFail    = "\033[1;33m" // bold yellow
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

type Options struct {
	Width   int    // wrap width (0 = no wrap)
	Query   string // keywords to highlight
	NoColor bool
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	for _, term := range strings.Fields(query) {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// stripANSI removes escape sequences, for NoColor output.
func stripANSI(s string) string {
	if !strings.Contains(s, "\033[") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

type writer struct {
	b    strings.Builder
	opts Options
}

func (w *writer) line(s string) {
	if w.opts.NoColor {
		s = stripANSI(s)
	}
	for _, wl := range wrapLine(s, w.opts.Width) {
		w.b.WriteString(wl)
		w.b.WriteString("\n")
	}
}

// Activity renders activity records one per line: time, tool, result.
func Activity(records []parse.ActivityRecord, opts Options) string {
	w := &writer{opts: opts}
	if len(records) == 0 {
		w.line(colorDim + "(no activity)" + colorReset)
		return w.b.String()
	}
	toolW := 0
	for _, r := range records {
		if n := runewidth.StringWidth(r.Tool); n > toolW {
			toolW = n
		}
	}
	for _, r := range records {
		resultColor := colorAssist
		if r.Result != "ok" && r.Result != "" {
			resultColor = colorFail
		}
		tool := runewidth.FillRight(r.Tool, toolW)
		w.line(fmt.Sprintf("%s%s%s  %s%s%s  %s%s%s",
			colorDim, shortTime(r.Timestamp), colorReset,
			colorUser, highlightKeywords(tool, opts.Query), colorReset,
			resultColor, highlightKeywords(r.Result, opts.Query), colorReset,
		))
	}
	return w.b.String()
}

// Conversation renders messages with a role header and indented body.
// Messages with no recognizable text are shown as compact JSON.
func Conversation(messages []parse.Message, opts Options) string {
	w := &writer{opts: opts}
	if len(messages) == 0 {
		w.line(colorDim + "(empty conversation)" + colorReset)
		return w.b.String()
	}
	separator := colorDim + "--------------------------------------------------" + colorReset

	for i, msg := range messages {
		if i > 0 {
			w.line(separator)
		}
		renderMessage(w, msg)
	}
	return w.b.String()
}

func renderMessage(w *writer, msg parse.Message) {
	v := parse.View(msg)

	var roleColor, roleLabel string
	switch v.Role {
	case "user", "human":
		roleColor = colorUser
		roleLabel = "USER"
	case "assistant":
		roleColor = colorAssist
		roleLabel = "ASST"
	case "":
		roleColor = colorDim
		roleLabel = "MSG"
	default:
		roleColor = colorDim
		roleLabel = strings.ToUpper(v.Role)
	}
	w.line(fmt.Sprintf("%s%s >%s %s%s%s", roleColor, roleLabel, colorReset, colorDim, v.Timestamp, colorReset))

	if v.Thinking != "" {
		text := colorThink + v.Thinking + colorReset
		for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
			w.line(tl)
		}
	}

	text := v.Text
	if text == "" && v.Thinking == "" {
		text = compactJSON(msg)
	}
	if text != "" {
		text = highlightKeywords(text, w.opts.Query)
		for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
			w.line(tl)
		}
	}
	w.line("") // blank line after message
}

// Single renders one message on its own.
func Single(msg parse.Message, opts Options) string {
	w := &writer{opts: opts}
	renderMessage(w, msg)
	return w.b.String()
}

func compactJSON(msg parse.Message) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, msg); err != nil {
		return string(msg)
	}
	return buf.String()
}

// shortTime turns an RFC3339 timestamp into local HH:MM:SS, leaving
// anything unparseable untouched.
func shortTime(ts string) string {
	t := parse.ParseTimestamp(ts)
	if t.IsZero() {
		return ts
	}
	return t.Local().Format("01-02 15:04:05")
}
