package parse

import "encoding/json"

// ActivityRecord is one line of the tool activity log: timestamp|tool|result.
// Fields missing from a short line are omitted from JSON; fields present
// but empty are kept as "".
type ActivityRecord struct {
	Timestamp string
	Tool      string
	Result    string

	missing int // trailing fields absent from the source line
}

type activityJSON struct {
	Timestamp *string `json:"timestamp,omitempty"`
	Tool      *string `json:"tool,omitempty"`
	Result    *string `json:"result,omitempty"`
}

func (r ActivityRecord) MarshalJSON() ([]byte, error) {
	var w activityJSON
	if r.missing < 3 {
		w.Timestamp = &r.Timestamp
	}
	if r.missing < 2 {
		w.Tool = &r.Tool
	}
	if r.missing < 1 {
		w.Result = &r.Result
	}
	return json.Marshal(w)
}

func (r *ActivityRecord) UnmarshalJSON(data []byte) error {
	var w activityJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = ActivityRecord{}
	if w.Timestamp != nil {
		r.Timestamp = *w.Timestamp
	}
	if w.Tool != nil {
		r.Tool = *w.Tool
	}
	if w.Result != nil {
		r.Result = *w.Result
	}
	switch {
	case w.Timestamp == nil && w.Tool == nil && w.Result == nil:
		r.missing = 3
	case w.Tool == nil && w.Result == nil:
		r.missing = 2
	case w.Result == nil:
		r.missing = 1
	}
	return nil
}

// Message is one conversation log line, kept verbatim.
type Message = json.RawMessage

// MessageView is the subset of a conversation message the terminal
// renderers know how to show.
type MessageView struct {
	Role      string
	Timestamp string
	Text      string
	Thinking  string
}
