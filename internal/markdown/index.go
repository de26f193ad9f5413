package markdown

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chatpack/chatpack/internal/convo"
)

// RenderIndex builds the table-of-contents document: conversations
// grouped by month, newest first, one line per conversation. Empty
// conversations are skipped; undated ones group under "Unknown Date"
// at the end.
func RenderIndex(convs []*convo.Conversation) string {
	var b strings.Builder
	b.WriteString("# Conversation Index\n\n")
	b.WriteString("Converted for use with Claude Projects.\n\n")
	fmt.Fprintf(&b, "**Total conversations**: %d\n\n---\n", len(convs))

	ordered := make([]*convo.Conversation, len(convs))
	copy(ordered, convs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return indexSortTime(ordered[i]).After(indexSortTime(ordered[j]))
	})

	currentMonth := ""
	for _, c := range ordered {
		if len(c.Messages) == 0 {
			continue
		}

		monthLabel := "Unknown Date"
		dateStr := "?"
		if c.CreatedAt != nil {
			monthLabel = c.CreatedAt.UTC().Format("January 2006")
			dateStr = c.CreatedAt.UTC().Format("2006-01-02")
		}
		if monthLabel != currentMonth {
			currentMonth = monthLabel
			fmt.Fprintf(&b, "\n### %s\n\n", monthLabel)
		}

		modelInfo := ""
		if len(c.ModelSlugs) > 0 {
			modelInfo = " | " + strings.Join(sortedSlugs(c.ModelSlugs), ", ")
		}
		fmt.Fprintf(&b, "- **%s** - %s, %d messages%s\n", c.Title, dateStr, len(c.Messages), modelInfo)
	}

	return b.String()
}

func indexSortTime(c *convo.Conversation) time.Time {
	if c.CreatedAt != nil {
		return c.CreatedAt.UTC()
	}
	return time.Time{}
}
