package convo

import (
	"encoding/json"
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }

func sampleRaw() RawConversation {
	mapping := chainMapping(4)
	msg2 := mapping["msg-2"]
	msg2.Message.Metadata = map[string]any{"model_slug": "gpt-4"}
	mapping["msg-2"] = msg2
	msg4 := mapping["msg-4"]
	msg4.Message.Metadata = map[string]any{"model": "gpt-4"}
	mapping["msg-4"] = msg4

	return RawConversation{
		ID:         "conv-001",
		Title:      "Python async patterns",
		CreateTime: f64(1710081000),
		UpdateTime: f64(1710085500),
		Mapping:    mapping,
	}
}

func TestParseFullConversation(t *testing.T) {
	conv := ParseOne(sampleRaw())
	if conv.Title != "Python async patterns" {
		t.Errorf("title: %q", conv.Title)
	}
	if len(conv.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Role != RoleUser || conv.Messages[1].Role != RoleAssistant {
		t.Errorf("roles out of order: %v %v", conv.Messages[0].Role, conv.Messages[1].Role)
	}
	if _, ok := conv.ModelSlugs["gpt-4"]; !ok {
		t.Errorf("model slug not collected: %v", conv.ModelSlugs)
	}
	if conv.CreatedAt == nil || !conv.CreatedAt.Equal(time.Unix(1710081000, 0)) {
		t.Errorf("created_at: %v", conv.CreatedAt)
	}
}

func TestParseMetaCountsUserAssistantOnly(t *testing.T) {
	raw := sampleRaw()
	// Add a system node; it must not count.
	raw.Mapping["sys"] = RawNode{
		ID: "sys", Parent: strPtr("root"),
		Message: textMessage("sys", "system", "instructions"),
	}

	metas := ParseMeta([]RawConversation{raw})
	if len(metas) != 1 {
		t.Fatalf("expected 1 meta, got %d", len(metas))
	}
	m := metas[0]
	if m.MessageCount != 4 {
		t.Errorf("expected 4 user+assistant messages, got %d", m.MessageCount)
	}
	if _, ok := m.ModelSlugs["gpt-4"]; !ok {
		t.Errorf("meta slug scan missed gpt-4: %v", m.ModelSlugs)
	}
}

func TestParseEmptyMapping(t *testing.T) {
	conv := ParseOne(RawConversation{ID: "empty", Title: "Empty"})
	if len(conv.Messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(conv.Messages))
	}
}

func TestParseDefaultTitle(t *testing.T) {
	conv := ParseOne(RawConversation{ID: "x"})
	if conv.Title != "Untitled" {
		t.Errorf("expected Untitled, got %q", conv.Title)
	}
}

func TestParseTimestamp(t *testing.T) {
	if got := ParseTimestamp(nil); got != nil {
		t.Errorf("nil epoch should stay nil, got %v", got)
	}
	ts := ParseTimestamp(f64(1700000000))
	if ts == nil || ts.Year() != 2023 || ts.Month() != time.November {
		t.Errorf("1700000000 should be 2023-11 UTC, got %v", ts)
	}
}

func TestDecodeConversationsDegradesPerRecord(t *testing.T) {
	data := []byte(`[
		{"id": "good", "title": "ok", "mapping": {}},
		{"id": "bad", "mapping": "not-an-object"},
		{"id": "good-2", "title": "ok2", "mapping": {}}
	]`)
	raw, err := DecodeConversations(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected malformed record skipped, got %d records", len(raw))
	}
}

func TestDecodeConversationsRejectsNonArray(t *testing.T) {
	if _, err := DecodeConversations([]byte(`{"not": "an array"}`)); err == nil {
		t.Fatal("expected error for non-array payload")
	}
}

func TestRawMessageJSONRoundTrip(t *testing.T) {
	blob := []byte(`{
		"id": "m1",
		"author": {"role": "assistant"},
		"content": {"content_type": "text", "parts": ["hi"]},
		"create_time": 1710081060.5,
		"metadata": {"model_slug": "gpt-4", "is_user_system_message": false}
	}`)
	var rm RawMessage
	if err := json.Unmarshal(blob, &rm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rm.ModelSlug() != "gpt-4" {
		t.Errorf("model slug: %q", rm.ModelSlug())
	}
	if rm.IsUserSystem() {
		t.Error("is_user_system_message false should report false")
	}
	if ts := ParseTimestamp(rm.CreateTime); ts == nil || ts.Nanosecond() == 0 {
		t.Errorf("fractional seconds should survive: %v", ts)
	}
}
