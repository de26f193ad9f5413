// Package split subdivides oversized conversations at message
// boundaries so every rendered document stays under the platform's
// per-file ingestion limit.
package split

import (
	"fmt"

	"github.com/chatpack/chatpack/internal/convo"
	"github.com/chatpack/chatpack/internal/markdown"
)

// DefaultMaxSize is the character threshold above which a rendered
// conversation is split (just under the ~100K per-file import limit).
const DefaultMaxSize = 90_000

// messageOverhead is the rough per-message rendering cost beyond
// fragment text (header and spacing).
const messageOverhead = 50

// MaybeSplit returns the conversation unchanged when its Markdown fits
// within maxSize characters, otherwise parts with "_partN" id and
// "(Part N)" title suffixes. maxSize <= 0 uses DefaultMaxSize.
func MaybeSplit(c *convo.Conversation, maxSize int) []*convo.Conversation {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if len(markdown.RenderConversation(c, markdown.DefaultOptions())) <= maxSize {
		return []*convo.Conversation{c}
	}
	return splitAtMessages(c, maxSize)
}

// splitAtMessages greedily packs messages into parts by estimated size.
// A part always accepts at least one message so a single oversized
// message still makes progress.
func splitAtMessages(c *convo.Conversation, maxSize int) []*convo.Conversation {
	if len(c.Messages) == 0 {
		return []*convo.Conversation{c}
	}

	var parts []*convo.Conversation
	var current []convo.Message
	currentSize := 0

	for _, msg := range c.Messages {
		msgSize := msg.TextLength() + messageOverhead
		if currentSize+msgSize > maxSize && len(current) > 0 {
			parts = append(parts, makePart(c, current, len(parts)+1))
			current = nil
			currentSize = 0
		}
		current = append(current, msg)
		currentSize += msgSize
	}
	if len(current) > 0 {
		parts = append(parts, makePart(c, current, len(parts)+1))
	}

	if len(parts) == 1 {
		return []*convo.Conversation{c}
	}
	return parts
}

func makePart(original *convo.Conversation, messages []convo.Message, n int) *convo.Conversation {
	slugs := make(map[string]struct{})
	for _, m := range messages {
		if m.ModelSlug != "" {
			slugs[m.ModelSlug] = struct{}{}
		}
	}
	return &convo.Conversation{
		ID:         fmt.Sprintf("%s_part%d", original.ID, n),
		Title:      fmt.Sprintf("%s (Part %d)", original.Title, n),
		CreatedAt:  original.CreatedAt,
		UpdatedAt:  original.UpdatedAt,
		Messages:   messages,
		ModelSlugs: slugs,
	}
}
