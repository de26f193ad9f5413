package convo

import (
	"strings"
	"testing"
)

func TestRenderTextParts(t *testing.T) {
	frags := renderContent(&RawContent{
		ContentType: "text",
		Parts:       []any{"first", "  ", "second"},
	})
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(frags))
	}
	if frags[0].Text != "first" || frags[1].Text != "second" {
		t.Errorf("unexpected fragment text: %+v", frags)
	}
}

func TestRenderMultimodalParts(t *testing.T) {
	frags := renderContent(&RawContent{
		ContentType: "multimodal_text",
		Parts: []any{
			map[string]any{"content_type": "image_asset_pointer", "asset_pointer": "file-service://file-abc123"},
			"caption text",
			map[string]any{"name": "report.pdf"},
		},
	})
	if len(frags) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(frags))
	}
	if frags[0].Text != "[Image: file-service://file-abc123]" {
		t.Errorf("image pointer not preserved: %q", frags[0].Text)
	}
	if frags[2].Text != "[File: report.pdf]" {
		t.Errorf("file placeholder wrong: %q", frags[2].Text)
	}
}

func TestRenderCodeDefaultsLanguage(t *testing.T) {
	frags := renderContent(&RawContent{ContentType: "code", Text: "print('hi')"})
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(frags))
	}
	if frags[0].Kind != FragmentCode || frags[0].Language != "python" {
		t.Errorf("expected python-tagged code fragment, got %+v", frags[0])
	}

	frags = renderContent(&RawContent{ContentType: "code", Text: "fmt.Println()", Language: "go"})
	if frags[0].Language != "go" {
		t.Errorf("declared language should win, got %q", frags[0].Language)
	}
}

func TestRenderExecutionOutput(t *testing.T) {
	if frags := renderContent(&RawContent{ContentType: "execution_output"}); len(frags) != 0 {
		t.Fatalf("empty output should render no fragments, got %d", len(frags))
	}
	frags := renderContent(&RawContent{ContentType: "execution_output", Text: "42"})
	if len(frags) != 1 || frags[0].Kind != FragmentExecutionOutput {
		t.Fatalf("expected one execution-output fragment, got %+v", frags)
	}
}

func TestRenderBrowsingQuoteAlwaysEmits(t *testing.T) {
	frags := renderContent(&RawContent{ContentType: "tether_quote"})
	if len(frags) != 1 || frags[0].Kind != FragmentBrowsingQuote {
		t.Fatalf("quote must always emit one fragment, got %+v", frags)
	}

	frags = renderContent(&RawContent{
		ContentType: "tether_quote",
		Title:       "Example",
		URL:         "https://example.com",
		Text:        "quoted passage",
	})
	f := frags[0]
	if f.Title != "Example" || f.URL != "https://example.com" || f.Text != "quoted passage" {
		t.Errorf("quote fields not carried: %+v", f)
	}
}

func TestRenderUnknownTypeWithText(t *testing.T) {
	frags := renderContent(&RawContent{ContentType: "unknown_format", Text: "hello"})
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(frags))
	}
	if frags[0].Text != "hello" || frags[0].TypeName != "unknown_format" {
		t.Errorf("raw text should pass through regardless of declared type: %+v", frags[0])
	}
}

func TestRenderUnknownTypeNoText(t *testing.T) {
	frags := renderContent(&RawContent{ContentType: "unknown_format"})
	if len(frags) != 1 {
		t.Fatalf("expected exactly 1 placeholder fragment, got %d", len(frags))
	}
	if !strings.Contains(frags[0].Text, "unknown_format") {
		t.Errorf("placeholder must name the unsupported type: %q", frags[0].Text)
	}
}

func TestRenderUnknownTypeStringParts(t *testing.T) {
	frags := renderContent(&RawContent{
		ContentType: "mystery",
		Parts:       []any{"visible", "", "also visible"},
	})
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments from string parts, got %d", len(frags))
	}
	for _, f := range frags {
		if f.Kind != FragmentUnknown {
			t.Errorf("expected unknown kind, got %v", f.Kind)
		}
	}
}
