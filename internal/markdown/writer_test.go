package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/chatpack/chatpack/internal/convo"
)

func textMsg(role convo.AuthorRole, text string) convo.Message {
	return convo.Message{
		Role:      role,
		Fragments: []convo.Fragment{{Kind: convo.FragmentText, Text: text}},
	}
}

func sampleConversation() *convo.Conversation {
	created := time.Date(2023, 11, 5, 12, 30, 0, 0, time.UTC)
	updated := time.Date(2023, 11, 6, 8, 0, 0, 0, time.UTC)
	assistant := textMsg(convo.RoleAssistant, "Sure, here is how.")
	assistant.ModelSlug = "gpt-4"
	return &convo.Conversation{
		ID:        "c1",
		Title:     "Fix my /api route",
		CreatedAt: &created,
		UpdatedAt: &updated,
		Messages: []convo.Message{
			textMsg(convo.RoleUser, "How do I fix this route?"),
			assistant,
		},
		ModelSlugs: map[string]struct{}{"gpt-4": {}},
	}
}

func TestRenderConversationFrontmatter(t *testing.T) {
	doc := RenderConversation(sampleConversation(), DefaultOptions())

	for _, want := range []string{
		"---\n",
		"title: Fix my /api route\n",
		"source: chatgpt-export\n",
		"created: '2023-11-05T12:30:00Z'\n",
		"updated: '2023-11-06T08:00:00Z'\n",
		"models:\n- gpt-4\n",
		"message_count: 2\n",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestRenderConversationFrontmatterQuoting(t *testing.T) {
	c := sampleConversation()
	c.Title = "it's a title: yes"
	doc := RenderConversation(c, DefaultOptions())
	if !strings.Contains(doc, "title: 'it''s a title: yes'") {
		t.Fatalf("quoting wrong:\n%s", doc)
	}
}

func TestRenderConversationPlainTitleUnquoted(t *testing.T) {
	c := sampleConversation()
	c.Title = "Plain title"
	doc := RenderConversation(c, DefaultOptions())
	if !strings.Contains(doc, "title: Plain title\n") {
		t.Fatalf("plain title should not be quoted:\n%s", doc)
	}
}

func TestRenderConversationBody(t *testing.T) {
	doc := RenderConversation(sampleConversation(), DefaultOptions())

	if !strings.Contains(doc, "# Fix my /api route\n") {
		t.Errorf("missing H1:\n%s", doc)
	}
	if !strings.Contains(doc, "## User\n\nHow do I fix this route?\n") {
		t.Errorf("missing user section:\n%s", doc)
	}
	if !strings.Contains(doc, "## Assistant (gpt-4)\n\nSure, here is how.\n") {
		t.Errorf("missing assistant section:\n%s", doc)
	}
}

func TestRenderConversationNoFrontmatterNoModelInfo(t *testing.T) {
	doc := RenderConversation(sampleConversation(), Options{})
	if strings.Contains(doc, "---") {
		t.Errorf("unexpected frontmatter:\n%s", doc)
	}
	if !strings.Contains(doc, "## Assistant\n") || strings.Contains(doc, "(gpt-4)") {
		t.Errorf("model info should be off:\n%s", doc)
	}
}

func TestRenderConversationEmpty(t *testing.T) {
	if doc := RenderConversation(&convo.Conversation{Title: "x"}, DefaultOptions()); doc != "" {
		t.Fatalf("empty conversation should render to empty string, got %q", doc)
	}
}

func TestRenderFragments(t *testing.T) {
	cases := []struct {
		name string
		f    convo.Fragment
		want string
	}{
		{"code", convo.Fragment{Kind: convo.FragmentCode, Text: "print('hi')", Language: "python"},
			"```python\nprint('hi')\n```"},
		{"exec", convo.Fragment{Kind: convo.FragmentExecutionOutput, Text: "42"},
			"```\n[Output]\n42\n```"},
		{"display", convo.Fragment{Kind: convo.FragmentBrowsingDisplay, Text: "result"},
			"> [Web Browsing Result]\n> result"},
		{"quote linked", convo.Fragment{Kind: convo.FragmentBrowsingQuote, Title: "Docs", URL: "https://x", Text: "quoted"},
			"> **[Docs](https://x)**\n> quoted"},
		{"quote bare", convo.Fragment{Kind: convo.FragmentBrowsingQuote, Title: "Docs", Text: "quoted"},
			"> **Docs**\n> quoted"},
		{"unknown", convo.Fragment{Kind: convo.FragmentUnknown, Text: "[Unsupported content: x]"},
			"[Unsupported content: x]"},
	}
	for _, c := range cases {
		if got := renderFragment(c.f); got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestRenderIndexGroupsByMonth(t *testing.T) {
	nov := time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	a := &convo.Conversation{Title: "November chat", CreatedAt: &nov,
		Messages: []convo.Message{textMsg(convo.RoleUser, "hi")}}
	b := &convo.Conversation{Title: "December chat", CreatedAt: &dec,
		Messages:   []convo.Message{textMsg(convo.RoleUser, "hi")},
		ModelSlugs: map[string]struct{}{"gpt-4": {}}}
	undated := &convo.Conversation{Title: "No date",
		Messages: []convo.Message{textMsg(convo.RoleUser, "hi")}}
	empty := &convo.Conversation{Title: "Empty", CreatedAt: &nov}

	doc := RenderIndex([]*convo.Conversation{a, b, undated, empty})

	if !strings.Contains(doc, "**Total conversations**: 4") {
		t.Errorf("missing total:\n%s", doc)
	}
	decIdx := strings.Index(doc, "### December 2023")
	novIdx := strings.Index(doc, "### November 2023")
	unkIdx := strings.Index(doc, "### Unknown Date")
	if decIdx == -1 || novIdx == -1 || unkIdx == -1 {
		t.Fatalf("missing month sections:\n%s", doc)
	}
	if !(decIdx < novIdx && novIdx < unkIdx) {
		t.Errorf("months out of order:\n%s", doc)
	}
	if !strings.Contains(doc, "- **December chat** - 2023-12-01, 1 messages | gpt-4") {
		t.Errorf("missing entry line:\n%s", doc)
	}
	if strings.Contains(doc, "Empty") {
		t.Errorf("empty conversation should be skipped:\n%s", doc)
	}
}
