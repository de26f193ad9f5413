// Package stats computes single-pass rollups over a conversation set.
// Records are built from either fully parsed conversations or lightweight
// metadata projections, so the pipeline can report archive-level numbers
// before the expensive full parse completes.
package stats

import (
	"sort"
	"time"

	"github.com/chatpack/chatpack/internal/convo"
)

// Record is one summarizable conversation. Exactly one of the two input
// variants backs it: FromConversation fills role and model counts from
// the message list, FromMeta carries the precomputed count and registers
// model slugs at zero usage.
type Record struct {
	CreatedAt    *time.Time
	MessageCount int
	RoleCounts   map[string]int
	ModelCounts  map[string]int
	ModelSlugs   map[string]struct{}
}

// FromConversation builds a Record from a fully parsed conversation.
func FromConversation(c convo.Conversation) Record {
	roles := make(map[string]int)
	models := make(map[string]int)
	for _, m := range c.Messages {
		roles[string(m.Role)]++
		if m.ModelSlug != "" {
			models[m.ModelSlug]++
		}
	}
	return Record{
		CreatedAt:    c.CreatedAt,
		MessageCount: len(c.Messages),
		RoleCounts:   roles,
		ModelCounts:  models,
	}
}

// FromMeta builds a Record from a metadata projection. Per-role and
// per-model usage counts are unavailable at this granularity; model slugs
// are still registered so the models list is complete.
func FromMeta(m convo.Meta) Record {
	return Record{
		CreatedAt:    m.CreatedAt,
		MessageCount: m.MessageCount,
		ModelSlugs:   m.ModelSlugs,
	}
}

// Export holds the aggregate statistics for one archive.
type Export struct {
	TotalConversations   int
	TotalMessages        int
	MessagesByRole       map[string]int
	ModelsUsed           map[string]int
	EarliestConversation *time.Time
	LatestConversation   *time.Time
	ConversationsByMonth map[string]int
}

// Compute aggregates all records in one pass.
func Compute(records []Record) Export {
	out := Export{
		MessagesByRole:       make(map[string]int),
		ModelsUsed:           make(map[string]int),
		ConversationsByMonth: make(map[string]int),
	}

	for _, r := range records {
		out.TotalConversations++
		out.TotalMessages += r.MessageCount

		for role, n := range r.RoleCounts {
			out.MessagesByRole[role] += n
		}
		for model, n := range r.ModelCounts {
			out.ModelsUsed[model] += n
		}
		for slug := range r.ModelSlugs {
			if _, ok := out.ModelsUsed[slug]; !ok {
				out.ModelsUsed[slug] = 0
			}
		}

		if r.CreatedAt != nil {
			out.ConversationsByMonth[r.CreatedAt.Format("2006-01")]++
			if out.EarliestConversation == nil || r.CreatedAt.Before(*out.EarliestConversation) {
				out.EarliestConversation = r.CreatedAt
			}
			if out.LatestConversation == nil || r.CreatedAt.After(*out.LatestConversation) {
				out.LatestConversation = r.CreatedAt
			}
		}
	}
	return out
}

// Months returns the month buckets in ascending key order.
func (e Export) Months() []string {
	keys := make([]string, 0, len(e.ConversationsByMonth))
	for k := range e.ConversationsByMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
