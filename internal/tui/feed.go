package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/Zuo-Peng/axel-dashboard/internal/notify"
	"github.com/Zuo-Peng/axel-dashboard/internal/parse"
)

// maxEvents caps the in-memory feed; older events fall off the end.
const maxEvents = 500

// event is one entry of the live feed: either an activity record or a
// conversation message.
type event struct {
	kind     string // notify.TypeActivity or notify.TypeConversation
	received time.Time
	activity parse.ActivityRecord
	message  parse.Message
}

// summary is the one-line text shown in the list and matched by the filter.
func (e event) summary() string {
	if e.kind == notify.TypeActivity {
		return strings.TrimSpace(e.activity.Tool + " " + e.activity.Result)
	}
	v := parse.View(e.message)
	text := v.Text
	if text == "" {
		text = v.Thinking
	}
	if v.Role != "" {
		return v.Role + ": " + text
	}
	return text
}

// stamp is the event's own timestamp, falling back to arrival time.
func (e event) stamp() time.Time {
	var ts string
	if e.kind == notify.TypeActivity {
		ts = e.activity.Timestamp
	} else {
		ts = parse.View(e.message).Timestamp
	}
	if t := parse.ParseTimestamp(ts); !t.IsZero() {
		return t
	}
	return e.received
}

// payload is the JSON copied to the clipboard.
func (e event) payload() string {
	if e.kind == notify.TypeActivity {
		b, _ := json.Marshal(e.activity)
		return string(b)
	}
	return string(e.message)
}

func (e event) matches(filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.summary()), strings.ToLower(filter))
}

// wire is the push envelope as it arrives; data is decoded per type.
type wire struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// decodeEvent turns one pushed frame into an event.
func decodeEvent(frame []byte, now time.Time) (event, error) {
	var w wire
	if err := json.Unmarshal(frame, &w); err != nil {
		return event{}, fmt.Errorf("decode push: %w", err)
	}
	ev := event{kind: w.Type, received: now}
	switch w.Type {
	case notify.TypeActivity:
		if err := json.Unmarshal(w.Data, &ev.activity); err != nil {
			return event{}, fmt.Errorf("decode activity: %w", err)
		}
	case notify.TypeConversation:
		msg, ok := parse.ParseMessage(w.Data)
		if !ok {
			return event{}, fmt.Errorf("decode conversation: not an object")
		}
		ev.message = msg
	default:
		return event{}, fmt.Errorf("unknown push type %q", w.Type)
	}
	return ev, nil
}

// seedEvents converts the newest-first activity snapshot into feed events.
func seedEvents(records []parse.ActivityRecord, now time.Time) []event {
	events := make([]event, 0, len(records))
	for _, r := range records {
		events = append(events, event{kind: notify.TypeActivity, received: now, activity: r})
	}
	return events
}

// message types

type eventMsg struct{ ev event }

type connClosedMsg struct{ err error }

// readFeed forwards every frame from conn into the program until the
// connection fails.
func readFeed(conn *websocket.Conn, p *tea.Program) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			p.Send(connClosedMsg{err: err})
			return
		}
		ev, err := decodeEvent(frame, time.Now())
		if err != nil {
			continue
		}
		p.Send(eventMsg{ev: ev})
	}
}
