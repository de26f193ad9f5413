// Package markdown renders conversations and the corpus index to
// Markdown documents with optional YAML frontmatter.
package markdown

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chatpack/chatpack/internal/convo"
)

// sourceTag marks every exported document's origin in frontmatter.
const sourceTag = "chatgpt-export"

// Options control per-document rendering.
type Options struct {
	Frontmatter bool
	ModelInfo   bool
}

// DefaultOptions enable frontmatter and per-message model info.
func DefaultOptions() Options {
	return Options{Frontmatter: true, ModelInfo: true}
}

// RenderConversation converts one conversation to a complete Markdown
// document. A conversation with no messages renders to "", which the
// caller treats as nothing to write.
func RenderConversation(c *convo.Conversation, opts Options) string {
	if len(c.Messages) == 0 {
		return ""
	}

	var sections []string
	if opts.Frontmatter {
		sections = append(sections, renderFrontmatter(c))
	}
	sections = append(sections, fmt.Sprintf("# %s\n", c.Title))
	for i := range c.Messages {
		sections = append(sections, renderMessage(&c.Messages[i], opts.ModelInfo))
	}
	return strings.Join(sections, "\n")
}

// renderFrontmatter emits the YAML metadata block. The serializer is
// deliberately minimal: scalar lines, bare-key lists, and single-quote
// escaping only where a value contains ':' or a quote.
func renderFrontmatter(c *convo.Conversation) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %s\n", yamlScalar(c.Title))
	fmt.Fprintf(&b, "source: %s\n", sourceTag)
	if c.CreatedAt != nil {
		fmt.Fprintf(&b, "created: %s\n", yamlScalar(c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")))
	}
	if c.UpdatedAt != nil {
		fmt.Fprintf(&b, "updated: %s\n", yamlScalar(c.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")))
	}
	if len(c.ModelSlugs) > 0 {
		b.WriteString("models:\n")
		for _, slug := range sortedSlugs(c.ModelSlugs) {
			fmt.Fprintf(&b, "- %s\n", yamlScalar(slug))
		}
	}
	fmt.Fprintf(&b, "message_count: %d\n", len(c.Messages))
	b.WriteString("---\n")
	return b.String()
}

// yamlScalar single-quotes values a bare YAML scalar cannot carry,
// doubling embedded quotes per YAML single-quote escaping.
func yamlScalar(s string) string {
	if !strings.ContainsAny(s, ":'") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func sortedSlugs(set map[string]struct{}) []string {
	slugs := make([]string, 0, len(set))
	for s := range set {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

func renderMessage(m *convo.Message, modelInfo bool) string {
	header := "## " + m.Role.Label()
	if modelInfo && m.Role == convo.RoleAssistant && m.ModelSlug != "" {
		header = fmt.Sprintf("## %s (%s)", m.Role.Label(), m.ModelSlug)
	}

	var parts []string
	for _, f := range m.Fragments {
		if rendered := renderFragment(f); rendered != "" {
			parts = append(parts, rendered)
		}
	}
	return fmt.Sprintf("%s\n\n%s\n", header, strings.Join(parts, "\n\n"))
}

func renderFragment(f convo.Fragment) string {
	switch f.Kind {
	case convo.FragmentCode:
		return fmt.Sprintf("```%s\n%s\n```", f.Language, f.Text)
	case convo.FragmentExecutionOutput:
		return fmt.Sprintf("```\n[Output]\n%s\n```", f.Text)
	case convo.FragmentBrowsingDisplay:
		return "> [Web Browsing Result]\n> " + f.Text
	case convo.FragmentBrowsingQuote:
		return renderQuote(f)
	default:
		return f.Text
	}
}

func renderQuote(f convo.Fragment) string {
	var lines []string
	if f.Title != "" {
		if f.URL != "" {
			lines = append(lines, fmt.Sprintf("> **[%s](%s)**", f.Title, f.URL))
		} else {
			lines = append(lines, fmt.Sprintf("> **%s**", f.Title))
		}
	}
	if f.Text != "" {
		lines = append(lines, "> "+f.Text)
	}
	return strings.Join(lines, "\n")
}
