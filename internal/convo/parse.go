package convo

import (
	"math"
	"time"
)

// Parse assembles full Conversation values from raw records, invoking
// tree traversal and content rendering per message. Records that degrade
// (empty mapping, missing root) still produce a Conversation, just with
// no messages.
func Parse(raw []RawConversation) []Conversation {
	out := make([]Conversation, 0, len(raw))
	for _, rc := range raw {
		out = append(out, ParseOne(rc))
	}
	return out
}

// ParseOne assembles a single conversation.
func ParseOne(rc RawConversation) Conversation {
	messages := parseMessages(rc.Mapping)

	slugs := make(map[string]struct{})
	for _, m := range messages {
		if m.ModelSlug != "" {
			slugs[m.ModelSlug] = struct{}{}
		}
	}

	return Conversation{
		ID:         rc.ID,
		Title:      titleOrDefault(rc.Title),
		CreatedAt:  ParseTimestamp(rc.CreateTime),
		UpdatedAt:  ParseTimestamp(rc.UpdateTime),
		Messages:   messages,
		ModelSlugs: slugs,
	}
}

// ParseMeta produces lightweight metadata without rendering any content —
// a cheap scan over the mapping for list views on large archives.
func ParseMeta(raw []RawConversation) []Meta {
	out := make([]Meta, 0, len(raw))
	for _, rc := range raw {
		out = append(out, Meta{
			ID:           rc.ID,
			Title:        titleOrDefault(rc.Title),
			CreatedAt:    ParseTimestamp(rc.CreateTime),
			UpdatedAt:    ParseTimestamp(rc.UpdateTime),
			MessageCount: countMessages(rc.Mapping),
			ModelSlugs:   scanModelSlugs(rc.Mapping),
		})
	}
	return out
}

func parseMessages(mapping map[string]RawNode) []Message {
	rawMessages := traverseTree(mapping)
	messages := make([]Message, 0, len(rawMessages))
	for _, rm := range rawMessages {
		messages = append(messages, Message{
			ID:        rm.ID,
			Role:      ParseRole(rm.Author.Role),
			Fragments: renderContent(rm.Content),
			CreatedAt: ParseTimestamp(rm.CreateTime),
			ModelSlug: rm.ModelSlug(),
		})
	}
	return messages
}

// countMessages counts user and assistant messages across the whole
// mapping, without resolving branches.
func countMessages(mapping map[string]RawNode) int {
	count := 0
	for _, node := range mapping {
		if node.Message == nil {
			continue
		}
		role := node.Message.Author.Role
		if role == string(RoleUser) || role == string(RoleAssistant) {
			count++
		}
	}
	return count
}

func scanModelSlugs(mapping map[string]RawNode) map[string]struct{} {
	slugs := make(map[string]struct{})
	for _, node := range mapping {
		if node.Message == nil {
			continue
		}
		if slug := node.Message.ModelSlug(); slug != "" {
			slugs[slug] = struct{}{}
		}
	}
	return slugs
}

func titleOrDefault(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}

// ParseTimestamp converts epoch seconds to a UTC time. Nil or
// out-of-range input yields nil, never an error.
func ParseTimestamp(epoch *float64) *time.Time {
	if epoch == nil {
		return nil
	}
	sec := *epoch
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < math.MinInt64 || sec > math.MaxInt64 {
		return nil
	}
	whole, frac := math.Modf(sec)
	t := time.Unix(int64(whole), int64(frac*1e9)).UTC()
	return &t
}
