package knowledge

import (
	"strings"
	"testing"
	"time"

	"github.com/chatpack/chatpack/internal/convo"
	"github.com/chatpack/chatpack/internal/topics"
)

func userMsg(text string) convo.Message {
	return convo.Message{
		Role:      convo.RoleUser,
		Fragments: []convo.Fragment{{Kind: convo.FragmentText, Text: text}},
	}
}

func assistantMsg(text string) convo.Message {
	return convo.Message{
		Role:      convo.RoleAssistant,
		Fragments: []convo.Fragment{{Kind: convo.FragmentText, Text: text}},
	}
}

func datedConv(title string, at time.Time, msgs ...convo.Message) *convo.Conversation {
	return &convo.Conversation{ID: title, Title: title, CreatedAt: &at, Messages: msgs}
}

func TestFilename(t *testing.T) {
	cases := []struct {
		label, want string
	}{
		{"Your Python Projects", "topic_python_projects.md"},
		{"General", "topic_general.md"},
		{"Topic: Sourdough", "topic_topic_sourdough.md"},
		{"All Conversations", "topic_all_conversations.md"},
	}
	for _, c := range cases {
		if got := Filename(c.label); got != c.want {
			t.Errorf("Filename(%q) = %q, want %q", c.label, got, c.want)
		}
	}
}

func TestRenderHeadingAndByline(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	cl := topics.Cluster{
		Label: "Your Python Projects",
		Conversations: []*convo.Conversation{
			datedConv("a", jan, userMsg("hi")),
			datedConv("b", jun, userMsg("hi")),
		},
	}
	doc := Render(cl)
	if !strings.HasPrefix(doc, "# Your Python Projects\n") {
		t.Fatalf("missing heading:\n%s", doc)
	}
	if !strings.Contains(doc, "> Synthesized from 2 conversations (2024-01 to 2024-06)") {
		t.Fatalf("missing byline:\n%s", doc)
	}
}

func TestRenderBylineSingleMonth(t *testing.T) {
	at := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	cl := topics.Cluster{
		Label:         "General",
		Conversations: []*convo.Conversation{datedConv("a", at, userMsg("hi"))},
	}
	doc := Render(cl)
	if !strings.Contains(doc, "> Synthesized from 1 conversation (2024-03)") {
		t.Fatalf("byline wrong:\n%s", doc)
	}
}

func TestRenderBylineUndated(t *testing.T) {
	cl := topics.Cluster{
		Label: "General",
		Conversations: []*convo.Conversation{
			{Title: "a", Messages: []convo.Message{userMsg("hi")}},
		},
	}
	doc := Render(cl)
	if !strings.Contains(doc, "> Synthesized from 1 conversation\n") {
		t.Fatalf("byline wrong:\n%s", doc)
	}
}

func TestKeyPhrases(t *testing.T) {
	texts := []string{
		"my flask blueprint design needs work",
		"the flask blueprint pattern again",
		"and the flask blueprint once more",
		"unrelated sourdough starter here",
	}
	phrases := keyPhrases(texts)
	if len(phrases) == 0 || phrases[0] != "Flask Blueprint" {
		t.Fatalf("phrases = %v, want Flask Blueprint first", phrases)
	}
	for _, p := range phrases {
		if p == "Sourdough Starter" {
			t.Fatal("single-occurrence phrase should be dropped")
		}
	}
}

func TestKeyPhrasesSkipStopwordsAndShortWords(t *testing.T) {
	texts := []string{
		"go to the store now please",
		"go to the store now please",
	}
	for _, p := range keyPhrases(texts) {
		lower := strings.ToLower(p)
		if strings.Contains(lower, "the ") || strings.Contains(lower, " to") {
			t.Fatalf("stopword leaked into phrase %q", p)
		}
	}
}

func TestKeyPhrasesLongerPhraseSuppressesSub(t *testing.T) {
	texts := []string{
		"flask blueprint design matters",
		"flask blueprint design matters",
	}
	phrases := keyPhrases(texts)
	found := false
	for _, p := range phrases {
		if p == "Flask Blueprint" || p == "Blueprint Design" || p == "Design Matters" {
			t.Fatalf("sub-phrase %q survived alongside %v", p, phrases)
		}
		if p == "Flask Blueprint Design" {
			found = true
		}
	}
	if !found {
		t.Fatalf("phrases = %v, want Flask Blueprint Design present", phrases)
	}
}

func TestExtractDecisions(t *testing.T) {
	texts := []string{
		"I prefer tabs over spaces in my configs",
		"it is better to keep the schema flat",
		"I'll go with postgres for this one",
	}
	got := extractDecisions(texts)
	if len(got) != 3 {
		t.Fatalf("got %d decisions: %v", len(got), got)
	}
	if got[0] != "I prefer tabs over spaces in my configs" {
		t.Fatalf("got[0] = %q", got[0])
	}
	if got[1] != "Better to keep the schema flat" {
		t.Fatalf("got[1] = %q", got[1])
	}
}

func TestExtractDecisionsDedup(t *testing.T) {
	texts := []string{
		"I prefer tabs over spaces for indentation",
		"I prefer tabs over spaces always and forever",
	}
	if got := extractDecisions(texts); len(got) != 1 {
		t.Fatalf("got %v, want one deduplicated entry", got)
	}
}

func TestExtractDecisionsCap(t *testing.T) {
	var texts []string
	letters := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	for _, l := range letters {
		texts = append(texts, "I prefer "+l+" over everything else entirely")
	}
	if got := extractDecisions(texts); len(got) != maxDecisions {
		t.Fatalf("got %d, want %d", len(got), maxDecisions)
	}
}

func TestNotableConversations(t *testing.T) {
	at := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	big := datedConv("Big", at,
		userMsg("a"), assistantMsg("b"), userMsg("c"), assistantMsg("d"))
	small := datedConv("Small", at, userMsg("a"))
	empty := &convo.Conversation{Title: "Empty"}

	lines := notableConversations([]*convo.Conversation{small, empty, big})
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}
	if lines[0] != "**Big** - 2024-03-10, 4 messages" {
		t.Fatalf("lines[0] = %q", lines[0])
	}
	if lines[1] != "**Small** - 2024-03-10, 1 message" {
		t.Fatalf("lines[1] = %q", lines[1])
	}
}

func TestNotableConversationsCap(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var convs []*convo.Conversation
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		convs = append(convs, datedConv(name, at, userMsg("hi")))
	}
	if lines := notableConversations(convs); len(lines) != maxNotable {
		t.Fatalf("got %d lines", len(lines))
	}
}

func TestBuildDigests(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clusters := []topics.Cluster{
		{Label: "Your Python Projects", Conversations: []*convo.Conversation{datedConv("a", at, userMsg("hi"))}},
		{Label: "General", Conversations: []*convo.Conversation{datedConv("b", at, userMsg("hi"))}},
	}
	digests := BuildDigests(clusters)
	if len(digests) != 2 {
		t.Fatalf("got %d digests", len(digests))
	}
	if digests[0].Filename != "topic_python_projects.md" {
		t.Fatalf("filename = %q", digests[0].Filename)
	}
	if !strings.Contains(digests[1].Markdown, "# General") {
		t.Fatalf("markdown missing heading:\n%s", digests[1].Markdown)
	}
}
