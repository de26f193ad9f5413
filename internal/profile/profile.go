// Package profile infers a user profile from conversation history using
// deterministic pattern-table heuristics: first-person role declarations,
// whole-word technology mentions, and surface features of the user's
// writing. Nothing here understands language — it counts patterns, and
// the output says so.
package profile

import (
	"math"
	"sort"
	"strings"

	"github.com/chatpack/chatpack/internal/convo"
	"github.com/chatpack/chatpack/internal/topics"
)

const (
	maxExpertiseEntries  = 20
	minExpertiseMentions = 2

	verbosityConciseMax = 50
	verbosityModerate   = 200

	codeFirstThreshold    = 0.15
	markdownThreshold     = 0.10
	imperativeThreshold   = 0.30
	codeBlocksThreshold   = 0.10
	minRecurringClusterSz = 2
)

// Role is the detected professional role, if any.
type Role struct {
	Title    string
	Mentions int
}

// Expertise is one ranked technology mention.
type Expertise struct {
	Name     string
	Keyword  string
	Category string
	Mentions int
}

// Style describes how the user communicates.
type Style struct {
	Verbosity     string
	CodeFirst     bool
	UsesMarkdown  bool
	QuestionStyle string
}

// RecurringTopic is a topic cluster the user returns to.
type RecurringTopic struct {
	Label         string
	Conversations int
}

// WritingPatterns are surface metrics of the user's writing.
type WritingPatterns struct {
	AvgMessageLength      int
	UsesCodeBlocks        bool
	AvgConversationLength float64
}

// Profile is the full heuristic profile.
type Profile struct {
	Role            *Role
	Expertise       []Expertise
	Style           Style
	RecurringTopics []RecurringTopic
	Writing         WritingPatterns
}

// Build infers a profile from all conversations and the topic clusters
// derived from them.
func Build(convs []*convo.Conversation, clusters []topics.Cluster) Profile {
	userTexts := collectUserTexts(convs)

	return Profile{
		Role:            detectRole(userTexts),
		Expertise:       detectExpertise(userTexts),
		Style:           detectStyle(userTexts),
		RecurringTopics: recurringTopics(clusters),
		Writing:         writingPatterns(userTexts, convs),
	}
}

// collectUserTexts flattens every user-authored message into one string
// per message.
func collectUserTexts(convs []*convo.Conversation) []string {
	var out []string
	for _, c := range convs {
		for _, m := range c.Messages {
			if m.Role != convo.RoleUser {
				continue
			}
			var sb strings.Builder
			for _, f := range m.Fragments {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(f.Text)
			}
			if sb.Len() > 0 {
				out = append(out, sb.String())
			}
		}
	}
	return out
}

func detectRole(userTexts []string) *Role {
	tally := make(map[string]int)
	for _, text := range userTexts {
		for _, rp := range rolePatterns {
			for _, match := range rp.Pattern.FindAllStringSubmatch(text, -1) {
				phrase := cleanRolePhrase(match[rp.Group])
				if len(phrase) < minRoleLength || len(phrase) > maxRoleLength {
					continue
				}
				tally[phrase]++
			}
		}
	}
	if len(tally) == 0 {
		return nil
	}

	phrases := make([]string, 0, len(tally))
	for p := range tally {
		phrases = append(phrases, p)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if tally[phrases[i]] != tally[phrases[j]] {
			return tally[phrases[i]] > tally[phrases[j]]
		}
		return phrases[i] < phrases[j]
	})

	best := phrases[0]
	return &Role{Title: titleCase(best), Mentions: tally[best]}
}

// cleanRolePhrase lowercases a captured role phrase, truncates it at the
// first connective, and trims punctuation noise.
func cleanRolePhrase(phrase string) string {
	p := strings.ToLower(strings.TrimSpace(phrase))
	for _, cut := range roleCutoffs {
		if idx := strings.Index(p, cut); idx >= 0 {
			p = p[:idx]
		}
	}
	return strings.Trim(p, " -/&+")
}

func detectExpertise(userTexts []string) []Expertise {
	all := strings.ToLower(strings.Join(userTexts, "\n"))

	// Aggregate per display name so "postgres" and "postgresql" tally
	// into one PostgreSQL entry.
	type agg struct {
		keyword  string
		category string
		mentions int
	}
	byName := make(map[string]*agg)
	var order []string

	for i, tk := range techKeywords {
		n := len(techMatchers[i].FindAllStringIndex(all, -1))
		if n == 0 {
			continue
		}
		if a, ok := byName[tk.Name]; ok {
			a.mentions += n
			continue
		}
		byName[tk.Name] = &agg{keyword: tk.Keyword, category: tk.Category, mentions: n}
		order = append(order, tk.Name)
	}

	var out []Expertise
	for _, name := range order {
		a := byName[name]
		if a.mentions < minExpertiseMentions {
			continue
		}
		out = append(out, Expertise{
			Name:     name,
			Keyword:  a.keyword,
			Category: a.category,
			Mentions: a.mentions,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Mentions != out[j].Mentions {
			return out[i].Mentions > out[j].Mentions
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > maxExpertiseEntries {
		out = out[:maxExpertiseEntries]
	}
	return out
}

func detectStyle(userTexts []string) Style {
	n := len(userTexts)
	if n == 0 {
		return Style{
			Verbosity:     "concise, direct",
			QuestionStyle: "exploratory and open-ended",
		}
	}

	totalLen := 0
	codeLike, markdown, imperative := 0, 0, 0
	for _, text := range userTexts {
		totalLen += len(text)
		if codeFencePattern.MatchString(text) || codeTokenPattern.MatchString(text) {
			codeLike++
		}
		if markdownPattern.MatchString(text) {
			markdown++
		}
		if m := firstWordPattern.FindStringSubmatch(text); m != nil {
			if _, ok := imperativeVerbs[strings.ToLower(m[1])]; ok {
				imperative++
			}
		}
	}

	mean := float64(totalLen) / float64(n)
	verbosity := "detailed, context-rich"
	switch {
	case mean < verbosityConciseMax:
		verbosity = "concise, direct"
	case mean < verbosityModerate:
		verbosity = "moderate-length"
	}

	questionStyle := "exploratory and open-ended"
	if float64(imperative)/float64(n) > imperativeThreshold {
		questionStyle = "specific and action-oriented"
	}

	return Style{
		Verbosity:     verbosity,
		CodeFirst:     float64(codeLike)/float64(n) > codeFirstThreshold,
		UsesMarkdown:  float64(markdown)/float64(n) > markdownThreshold,
		QuestionStyle: questionStyle,
	}
}

func recurringTopics(clusters []topics.Cluster) []RecurringTopic {
	var out []RecurringTopic
	for _, c := range clusters {
		if len(c.Conversations) < minRecurringClusterSz {
			continue
		}
		out = append(out, RecurringTopic{Label: c.Label, Conversations: len(c.Conversations)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Conversations > out[j].Conversations
	})
	return out
}

func writingPatterns(userTexts []string, convs []*convo.Conversation) WritingPatterns {
	wp := WritingPatterns{}
	if len(userTexts) > 0 {
		total := 0
		fenced := 0
		for _, text := range userTexts {
			total += len(text)
			if codeFencePattern.MatchString(text) {
				fenced++
			}
		}
		wp.AvgMessageLength = int(math.Round(float64(total) / float64(len(userTexts))))
		wp.UsesCodeBlocks = float64(fenced)/float64(len(userTexts)) > codeBlocksThreshold
	}

	nonEmpty, totalMessages := 0, 0
	for _, c := range convs {
		if len(c.Messages) == 0 {
			continue
		}
		nonEmpty++
		totalMessages += len(c.Messages)
	}
	if nonEmpty > 0 {
		wp.AvgConversationLength = float64(totalMessages) / float64(nonEmpty)
	}
	return wp
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
