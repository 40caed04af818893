package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Message is one turn of a multi-message prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptContext is the rendered prompt sent to the models. Stored runs encode
// it either as a plain string or as a list of messages.
type PromptContext struct {
	Text     string
	Messages []Message
}

// UnmarshalJSON accepts either a JSON string or an array of messages.
func (p *PromptContext) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = PromptContext{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*p = PromptContext{Text: s}
		return nil
	case '[':
		var msgs []Message
		if err := json.Unmarshal(trimmed, &msgs); err != nil {
			return err
		}
		*p = PromptContext{Messages: msgs}
		return nil
	default:
		return fmt.Errorf("prompt context: unsupported JSON value %q", string(trimmed[:1]))
	}
}

// MarshalJSON writes the same shape that was read.
func (p PromptContext) MarshalJSON() ([]byte, error) {
	if p.Messages != nil {
		return json.Marshal(p.Messages)
	}
	return json.Marshal(p.Text)
}

// Rendered returns the prompt as one block of text.
func (p PromptContext) Rendered() string {
	if len(p.Messages) == 0 {
		return p.Text
	}
	parts := make([]string, 0, len(p.Messages))
	for _, m := range p.Messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}
