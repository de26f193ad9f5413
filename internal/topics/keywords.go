package topics

import (
	"math"
	"sort"
	"strings"

	"github.com/chatpack/chatpack/internal/convo"
)

const (
	// titleWeight triples title tokens; titles are short and dense with
	// topical signal compared to message bodies.
	titleWeight = 3

	// userTextSample bounds how much of each user message feeds term
	// extraction. The opening of a message states the topic; the tail is
	// mostly detail.
	userTextSample = 500

	// keywordsPerConversation caps each conversation's keyword set.
	keywordsPerConversation = 20
)

// termFrequencies extracts a weighted term-frequency map for one
// conversation: title tokens at triple weight, plus the first 500
// characters of every user-authored message.
func termFrequencies(c *convo.Conversation) map[string]int {
	tf := make(map[string]int)
	for _, tok := range Tokenize(c.Title) {
		tf[tok] += titleWeight
	}
	for _, m := range c.Messages {
		if m.Role != convo.RoleUser {
			continue
		}
		var b strings.Builder
		for _, f := range m.Fragments {
			if b.Len() >= userTextSample {
				break
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(f.Text)
		}
		text := b.String()
		if len(text) > userTextSample {
			text = text[:userTextSample]
		}
		for _, tok := range Tokenize(text) {
			tf[tok]++
		}
	}
	return tf
}

// extractKeywords runs TF-IDF over the corpus and keeps the top terms per
// conversation. Ordering is deterministic: score descending, then term
// ascending.
func extractKeywords(convs []*convo.Conversation) []conversationTerms {
	perConv := make([]map[string]int, len(convs))
	df := make(map[string]int)
	for i, c := range convs {
		tf := termFrequencies(c)
		perConv[i] = tf
		for term := range tf {
			df[term]++
		}
	}

	n := float64(len(convs))
	out := make([]conversationTerms, len(convs))
	for i, tf := range perConv {
		type scored struct {
			term  string
			score float64
		}
		terms := make([]scored, 0, len(tf))
		for term, count := range tf {
			idf := math.Log(n / float64(df[term]))
			terms = append(terms, scored{term, float64(count) * idf})
		}
		sort.Slice(terms, func(a, b int) bool {
			if terms[a].score != terms[b].score {
				return terms[a].score > terms[b].score
			}
			return terms[a].term < terms[b].term
		})
		if len(terms) > keywordsPerConversation {
			terms = terms[:keywordsPerConversation]
		}

		ct := conversationTerms{
			keywords: make([]string, 0, len(terms)),
			set:      make(map[string]struct{}, len(terms)),
		}
		for _, t := range terms {
			ct.keywords = append(ct.keywords, t.term)
			ct.set[t.term] = struct{}{}
		}
		out[i] = ct
	}
	return out
}

// conversationTerms is one conversation's keyword set, both as an ordered
// list (score rank) and a set (similarity lookups).
type conversationTerms struct {
	keywords []string
	set      map[string]struct{}
}

// Jaccard is intersection over union of two keyword sets. Two empty sets
// have zero similarity.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
