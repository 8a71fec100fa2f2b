package parse

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ParseMessage returns the line as a JSON message. ok is false for
// anything that is not valid JSON, and for a bare null.
func ParseMessage(line []byte) (Message, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || !json.Valid(line) {
		return nil, false
	}
	if bytes.Equal(line, []byte("null")) {
		return nil, false
	}
	msg := make(Message, len(line))
	copy(msg, line)
	return msg, true
}

type messageRecord struct {
	Type      string          `json:"type"`
	Role      string          `json:"role"`
	Timestamp string          `json:"timestamp"`
	Ts        string          `json:"ts"`
	Content   json.RawMessage `json:"content"`
	Text      string          `json:"text"`
	Message   json.RawMessage `json:"message"`
}

type nestedMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Thinking string `json:"thinking"`
}

// View extracts role, timestamp and text from a conversation message.
// Both flat {"role","content"} lines and Claude-style
// {"type","message":{"role","content"}} lines are understood; content may
// be a string or an array of typed blocks. Unknown shapes yield an empty
// view.
func View(msg Message) MessageView {
	var rec messageRecord
	if err := json.Unmarshal(msg, &rec); err != nil {
		return MessageView{}
	}

	v := MessageView{Role: rec.Role, Timestamp: rec.Timestamp}
	if v.Timestamp == "" {
		v.Timestamp = rec.Ts
	}

	content := rec.Content
	if len(rec.Message) > 0 {
		var nested nestedMessage
		if err := json.Unmarshal(rec.Message, &nested); err == nil {
			if v.Role == "" {
				v.Role = nested.Role
			}
			if len(content) == 0 {
				content = nested.Content
			}
		} else if s, ok := decodeString(rec.Message); ok && rec.Text == "" {
			rec.Text = s
		}
	}
	if v.Role == "" {
		v.Role = rec.Type
	}

	ext := extractContent(content)
	v.Text = ext.Text
	v.Thinking = ext.Thinking
	if v.Text == "" {
		v.Text = strings.TrimSpace(rec.Text)
	}
	return v
}

type extractedContent struct {
	Text     string
	Thinking string
}

func extractContent(raw json.RawMessage) extractedContent {
	if len(raw) == 0 {
		return extractedContent{}
	}

	// try string first
	if s, ok := decodeString(raw); ok {
		return extractedContent{Text: strings.TrimSpace(s)}
	}

	// try array of content blocks
	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var textParts []string
		var thinkParts []string
		for _, b := range blocks {
			switch b.Type {
			case "thinking":
				t := b.Thinking
				if t == "" {
					t = b.Text
				}
				if t != "" {
					thinkParts = append(thinkParts, t)
				}
			case "text", "":
				if b.Text != "" {
					textParts = append(textParts, b.Text)
				}
			}
		}
		return extractedContent{
			Text:     strings.TrimSpace(strings.Join(textParts, "\n")),
			Thinking: strings.TrimSpace(strings.Join(thinkParts, "\n")),
		}
	}

	return extractedContent{}
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
