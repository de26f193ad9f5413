package profile

import (
	"fmt"
	"strings"
)

// categoryOrder fixes the display order of expertise groups.
var categoryOrder = []string{
	CategoryLanguages,
	CategoryFrameworks,
	CategoryDataML,
	CategoryDatabases,
	CategoryDevOps,
	CategoryTools,
}

// RenderMarkdown renders the profile document. Custom instructions, when
// supplied, are folded in verbatim under their own heading.
func RenderMarkdown(p Profile, instructions string) string {
	var b strings.Builder

	b.WriteString("# Your Profile\n\n")
	b.WriteString("> Inferred automatically from your conversation history using keyword and pattern heuristics. Review before relying on it.\n\n")

	if p.Role != nil {
		b.WriteString("## Role\n\n")
		fmt.Fprintf(&b, "**%s** (mentioned %d times)\n\n", p.Role.Title, p.Role.Mentions)
	}

	if len(p.Expertise) > 0 {
		b.WriteString("## Technical Expertise\n\n")
		byCategory := make(map[string][]Expertise)
		for _, e := range p.Expertise {
			byCategory[e.Category] = append(byCategory[e.Category], e)
		}
		for _, cat := range categoryOrder {
			entries := byCategory[cat]
			if len(entries) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### %s\n\n", cat)
			for _, e := range entries {
				fmt.Fprintf(&b, "- %s - %d mentions\n", e.Name, e.Mentions)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Communication Style\n\n")
	fmt.Fprintf(&b, "- Verbosity: %s\n", p.Style.Verbosity)
	fmt.Fprintf(&b, "- Leads with code: %s\n", yesNo(p.Style.CodeFirst))
	fmt.Fprintf(&b, "- Uses Markdown formatting: %s\n", yesNo(p.Style.UsesMarkdown))
	fmt.Fprintf(&b, "- Question style: %s\n\n", p.Style.QuestionStyle)

	b.WriteString("## Writing Patterns\n\n")
	fmt.Fprintf(&b, "- Average message length: %d characters\n", p.Writing.AvgMessageLength)
	fmt.Fprintf(&b, "- Uses code blocks: %s\n", yesNo(p.Writing.UsesCodeBlocks))
	fmt.Fprintf(&b, "- Average conversation length: %.1f messages\n\n", p.Writing.AvgConversationLength)

	if len(p.RecurringTopics) > 0 {
		b.WriteString("## Recurring Topics\n\n")
		for _, t := range p.RecurringTopics {
			fmt.Fprintf(&b, "- %s - %d conversations\n", t.Label, t.Conversations)
		}
		b.WriteString("\n")
	}

	if strings.TrimSpace(instructions) != "" {
		b.WriteString("## Custom Instructions\n\n")
		b.WriteString(strings.TrimSpace(instructions))
		b.WriteString("\n")
	}

	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
