// Package knowledge synthesizes per-cluster Markdown digests: recurring
// phrases, stated decisions and preferences, and notable conversations.
package knowledge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/chatpack/chatpack/internal/convo"
	"github.com/chatpack/chatpack/internal/organize"
	"github.com/chatpack/chatpack/internal/topics"
)

const (
	maxKeyPhrases    = 8
	minPhraseFreq    = 2
	maxDecisions     = 6
	maxNotable       = 8
	decisionDedupLen = 20
)

// decisionPatterns match explicit preference or choice statements in
// user text. The capture group is the stated decision.
var decisionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bi prefer ([^.!?\n]{3,120})`),
	regexp.MustCompile(`(?i)\bbetter to ([^.!?\n]{3,120})`),
	regexp.MustCompile(`(?i)\bi'?ll go with ([^.!?\n]{3,120})`),
}

var wordPattern = regexp.MustCompile(`[a-z0-9][a-z0-9'+#.-]*`)

// Digest is one rendered knowledge-base document.
type Digest struct {
	Label    string
	Filename string
	Markdown string
}

// BuildDigests renders one digest per cluster, in cluster order.
func BuildDigests(clusters []topics.Cluster) []Digest {
	digests := make([]Digest, 0, len(clusters))
	for _, cl := range clusters {
		digests = append(digests, Digest{
			Label:    cl.Label,
			Filename: Filename(cl.Label),
			Markdown: Render(cl),
		})
	}
	return digests
}

// Filename derives the knowledge-base filename for a cluster label:
// lowercased, "your " prefix dropped, sanitized, prefixed "topic_".
func Filename(label string) string {
	slug := strings.ToLower(label)
	slug = strings.TrimPrefix(slug, "your ")
	return "topic_" + organize.SanitizeFilename(slug) + ".md"
}

// Render produces the Markdown digest for one cluster.
func Render(cl topics.Cluster) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", cl.Label)
	fmt.Fprintf(&b, "> Synthesized from %d conversation%s%s\n\n",
		len(cl.Conversations), plural(len(cl.Conversations)), dateRange(cl.Conversations))

	userTexts := collectUserTexts(cl.Conversations)

	if phrases := keyPhrases(userTexts); len(phrases) > 0 {
		b.WriteString("## Key Topics Discussed\n\n")
		for _, p := range phrases {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}

	if decisions := extractDecisions(userTexts); len(decisions) > 0 {
		b.WriteString("## Key Decisions & Preferences\n\n")
		for _, d := range decisions {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}

	if notable := notableConversations(cl.Conversations); len(notable) > 0 {
		b.WriteString("## Notable Conversations\n\n")
		for _, line := range notable {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// dateRange renders " (2024-01 to 2024-06)" over member creation
// times, collapsing to a single month when start and end coincide.
// Returns "" when no member carries a timestamp.
func dateRange(convs []*convo.Conversation) string {
	var earliest, latest *time.Time
	for _, c := range convs {
		if c.CreatedAt == nil {
			continue
		}
		if earliest == nil || c.CreatedAt.Before(*earliest) {
			earliest = c.CreatedAt
		}
		if latest == nil || c.CreatedAt.After(*latest) {
			latest = c.CreatedAt
		}
	}
	if earliest == nil {
		return ""
	}
	from := earliest.UTC().Format("2006-01")
	to := latest.UTC().Format("2006-01")
	if from == to {
		return fmt.Sprintf(" (%s)", from)
	}
	return fmt.Sprintf(" (%s to %s)", from, to)
}

func collectUserTexts(convs []*convo.Conversation) []string {
	var texts []string
	for _, c := range convs {
		for _, m := range c.Messages {
			if m.Role != convo.RoleUser {
				continue
			}
			for _, f := range m.Fragments {
				if f.Kind == convo.FragmentText && strings.TrimSpace(f.Text) != "" {
					texts = append(texts, f.Text)
				}
			}
		}
	}
	return texts
}

// keyPhrases extracts frequency-ranked 2-3 word phrases of consecutive
// non-stopword tokens, title-cased. Phrases already covered by a
// higher-ranked selection are skipped.
func keyPhrases(texts []string) []string {
	counts := make(map[string]int)
	for _, text := range texts {
		tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
		for i := range tokens {
			for n := 2; n <= 3 && i+n <= len(tokens); n++ {
				window := tokens[i : i+n]
				if !phraseWorthy(window) {
					continue
				}
				counts[strings.Join(window, " ")]++
			}
		}
	}

	type ranked struct {
		phrase string
		count  int
		words  int
	}
	var all []ranked
	for p, n := range counts {
		if n >= minPhraseFreq {
			all = append(all, ranked{p, n, strings.Count(p, " ") + 1})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		if all[i].words != all[j].words {
			return all[i].words > all[j].words
		}
		return all[i].phrase < all[j].phrase
	})

	var out []string
	for _, r := range all {
		if len(out) == maxKeyPhrases {
			break
		}
		if coveredBy(out, r.phrase) {
			continue
		}
		out = append(out, titleCase(r.phrase))
	}
	return out
}

func phraseWorthy(words []string) bool {
	for _, w := range words {
		if len(w) < 3 || topics.IsStopword(w) {
			return false
		}
	}
	return true
}

// coveredBy reports whether phrase is a sub-phrase of any already
// selected phrase, compared case-insensitively on word boundaries.
func coveredBy(selected []string, phrase string) bool {
	for _, s := range selected {
		if strings.Contains(" "+strings.ToLower(s)+" ", " "+phrase+" ") {
			return true
		}
	}
	return false
}

func titleCase(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// extractDecisions pulls preference statements from user text,
// deduplicated on a short normalized prefix so rephrasings of the same
// decision collapse to one entry.
func extractDecisions(texts []string) []string {
	var out []string
	var keys []string
	for _, text := range texts {
		for _, pat := range decisionPatterns {
			for _, m := range pat.FindAllStringSubmatch(text, -1) {
				statement := strings.TrimSpace(m[0])
				key := dedupKey(statement)
				if hasOverlap(keys, key) {
					continue
				}
				keys = append(keys, key)
				out = append(out, capitalize(statement))
				if len(out) == maxDecisions {
					return out
				}
			}
		}
	}
	return out
}

func dedupKey(s string) string {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if len(key) > decisionDedupLen {
		key = key[:decisionDedupLen]
	}
	return key
}

func hasOverlap(keys []string, key string) bool {
	for _, k := range keys {
		if strings.HasPrefix(k, key) || strings.HasPrefix(key, k) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// notableConversations lists up to 8 members by descending message
// count, with date and message count.
func notableConversations(convs []*convo.Conversation) []string {
	members := make([]*convo.Conversation, 0, len(convs))
	for _, c := range convs {
		if len(c.Messages) > 0 {
			members = append(members, c)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		if len(members[i].Messages) != len(members[j].Messages) {
			return len(members[i].Messages) > len(members[j].Messages)
		}
		return members[i].Title < members[j].Title
	})
	if len(members) > maxNotable {
		members = members[:maxNotable]
	}

	lines := make([]string, 0, len(members))
	for _, c := range members {
		date := "undated"
		if c.CreatedAt != nil {
			date = c.CreatedAt.UTC().Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("**%s** - %s, %d message%s",
			c.Title, date, len(c.Messages), plural(len(c.Messages))))
	}
	return lines
}
