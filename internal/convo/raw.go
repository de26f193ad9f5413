package convo

import (
	"encoding/json"
	"fmt"
)

// RawConversation is one undecoded conversation record from the export's
// conversations.json array.
type RawConversation struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	CreateTime *float64           `json:"create_time"`
	UpdateTime *float64           `json:"update_time"`
	Mapping    map[string]RawNode `json:"mapping"`
}

// RawNode is one entry in a conversation's parent/child mapping. Nodes
// with a nil Parent are roots.
type RawNode struct {
	ID       string      `json:"id"`
	Parent   *string     `json:"parent"`
	Children []string    `json:"children"`
	Message  *RawMessage `json:"message"`
}

// RawMessage is the embedded message payload of a mapping node.
type RawMessage struct {
	ID         string         `json:"id"`
	Author     RawAuthor      `json:"author"`
	Content    *RawContent    `json:"content"`
	CreateTime *float64       `json:"create_time"`
	Metadata   map[string]any `json:"metadata"`
}

// RawAuthor carries the free-text author role from the export.
type RawAuthor struct {
	Role string `json:"role"`
}

// RawContent is a content payload of a declared content-type. Parts hold
// a mix of plain strings and per-type part objects, so they decode as
// untyped values.
type RawContent struct {
	ContentType string `json:"content_type"`
	Parts       []any  `json:"parts"`
	Text        string `json:"text"`
	Language    string `json:"language"`
	Result      string `json:"result"`
	URL         string `json:"url"`
	Title       string `json:"title"`
}

// ModelSlug reads the model identifier from message metadata. Exports
// have used both "model_slug" and "model" for this field.
func (m *RawMessage) ModelSlug() string {
	if m == nil || m.Metadata == nil {
		return ""
	}
	if s, ok := m.Metadata["model_slug"].(string); ok && s != "" {
		return s
	}
	if s, ok := m.Metadata["model"].(string); ok && s != "" {
		return s
	}
	return ""
}

// IsUserSystem reports whether a system message was explicitly authored
// by the user (custom instructions) rather than injected by the platform.
func (m *RawMessage) IsUserSystem() bool {
	if m == nil || m.Metadata == nil {
		return false
	}
	b, _ := m.Metadata["is_user_system_message"].(bool)
	return b
}

// DecodeConversations parses a conversations.json payload. The top level
// must be a JSON array; that failure is fatal. Individual records that do
// not decode are skipped so one malformed conversation cannot sink the
// rest of the archive.
func DecodeConversations(data []byte) ([]RawConversation, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("conversations data is not a JSON array: %w", err)
	}

	out := make([]RawConversation, 0, len(elems))
	for _, elem := range elems {
		var rc RawConversation
		if err := json.Unmarshal(elem, &rc); err != nil {
			continue
		}
		out = append(out, rc)
	}
	return out, nil
}
