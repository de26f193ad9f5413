// Package topics derives an unsupervised topical organization over a
// conversation corpus: TF-IDF keyword extraction per conversation, then
// agglomerative clustering by pairwise Jaccard similarity between keyword
// sets, then template-based label assignment. Everything is deterministic
// lexical heuristics — no trained models.
package topics

import (
	"sort"
	"strings"

	"github.com/chatpack/chatpack/internal/convo"
)

const (
	// mergeThreshold is the minimum Jaccard similarity for two clusters
	// to merge. Below it, conversations are considered unrelated.
	mergeThreshold = 0.15

	// clusterKeywordCap bounds the keyword list attached to a cluster.
	clusterKeywordCap = 10
)

// Cluster is one labeled topic group.
type Cluster struct {
	Label         string
	Conversations []*convo.Conversation
	Keywords      []string
}

// BuildClusters partitions the corpus into labeled topic clusters. Fewer
// than two conversations cannot be meaningfully partitioned and return a
// single catch-all cluster.
func BuildClusters(convs []*convo.Conversation) []Cluster {
	if len(convs) < 2 {
		if len(convs) == 0 {
			return nil
		}
		return []Cluster{{
			Label:         "All Conversations",
			Conversations: convs,
			Keywords:      extractKeywords(convs)[0].keywords,
		}}
	}

	terms := extractKeywords(convs)

	// Start from singletons and greedily merge the most similar pair
	// until nothing clears the threshold. Similarity between clusters is
	// the maximum pairwise similarity between member keyword sets
	// (single-linkage), so a cluster grows around its closest member.
	groups := make([][]int, len(convs))
	for i := range convs {
		groups[i] = []int{i}
	}

	for {
		bestA, bestB := -1, -1
		bestScore := 0.0
		for a := 0; a < len(groups); a++ {
			for b := a + 1; b < len(groups); b++ {
				score := linkageSimilarity(groups[a], groups[b], terms)
				if score > bestScore {
					bestScore = score
					bestA, bestB = a, b
				}
			}
		}
		if bestScore < mergeThreshold {
			break
		}
		groups[bestA] = append(groups[bestA], groups[bestB]...)
		groups = append(groups[:bestB], groups[bestB+1:]...)
	}

	// Singletons pool into one residual group instead of being dropped.
	var kept [][]int
	var residual []int
	for _, g := range groups {
		if len(g) < 2 {
			residual = append(residual, g...)
			continue
		}
		kept = append(kept, g)
	}

	clusters := make([]Cluster, 0, len(kept)+1)
	for _, g := range kept {
		sort.Ints(g)
		clusters = append(clusters, makeCluster(g, convs, terms, ""))
	}
	if len(residual) > 0 {
		sort.Ints(residual)
		clusters = append(clusters, makeCluster(residual, convs, terms, "General"))
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].Label == "General" {
			return false
		}
		if clusters[j].Label == "General" {
			return true
		}
		return len(clusters[i].Conversations) > len(clusters[j].Conversations)
	})
	return clusters
}

// linkageSimilarity is the maximum pairwise Jaccard similarity between
// any two member keyword sets across the two groups.
func linkageSimilarity(a, b []int, terms []conversationTerms) float64 {
	best := 0.0
	for _, i := range a {
		for _, j := range b {
			if s := Jaccard(terms[i].set, terms[j].set); s > best {
				best = s
			}
		}
	}
	return best
}

func makeCluster(members []int, convs []*convo.Conversation, terms []conversationTerms, forcedLabel string) Cluster {
	keywords := aggregateKeywords(members, terms)
	label := forcedLabel
	if label == "" {
		label = labelFor(keywords)
	}
	convList := make([]*convo.Conversation, 0, len(members))
	for _, i := range members {
		convList = append(convList, convs[i])
	}
	return Cluster{Label: label, Conversations: convList, Keywords: keywords}
}

// aggregateKeywords ranks a cluster's keywords by how many member
// conversations carry each one, descending, ties broken lexically.
func aggregateKeywords(members []int, terms []conversationTerms) []string {
	freq := make(map[string]int)
	for _, i := range members {
		for _, kw := range terms[i].keywords {
			freq[kw]++
		}
	}
	keywords := make([]string, 0, len(freq))
	for kw := range freq {
		keywords = append(keywords, kw)
	}
	sort.Slice(keywords, func(a, b int) bool {
		if freq[keywords[a]] != freq[keywords[b]] {
			return freq[keywords[a]] > freq[keywords[b]]
		}
		return keywords[a] < keywords[b]
	})
	if len(keywords) > clusterKeywordCap {
		keywords = keywords[:clusterKeywordCap]
	}
	return keywords
}

// labelTemplates maps a driving keyword to a human display label. The
// cluster's frequency-ranked keyword list is matched in order; the first
// keyword with a template names the cluster.
var labelTemplates = map[string]string{
	"python":     "Your Python Projects",
	"javascript": "Your JavaScript Work",
	"typescript": "Your TypeScript Work",
	"react":      "Your React Work",
	"golang":     "Your Go Projects",
	"rust":       "Your Rust Projects",
	"java":       "Your Java Work",
	"sql":        "Database Work",
	"database":   "Database Work",
	"postgres":   "Database Work",
	"docker":     "DevOps & Infrastructure",
	"kubernetes": "DevOps & Infrastructure",
	"aws":        "Cloud & Deployment",
	"cloud":      "Cloud & Deployment",
	"api":        "API Development",
	"data":       "Data Analysis",
	"pandas":     "Data Analysis",
	"machine":    "Machine Learning",
	"learning":   "Machine Learning",
	"model":      "Machine Learning",
	"writing":    "Writing & Editing",
	"essay":      "Writing & Editing",
	"resume":     "Career & Job Search",
	"interview":  "Career & Job Search",
	"career":     "Career & Job Search",
	"recipe":     "Cooking & Recipes",
	"cooking":    "Cooking & Recipes",
	"travel":     "Travel Planning",
	"trip":       "Travel Planning",
	"health":     "Health & Fitness",
	"fitness":    "Health & Fitness",
	"workout":    "Health & Fitness",
	"marketing":  "Marketing & Growth",
	"design":     "Design Work",
	"linux":      "Linux & Shell",
	"bash":       "Linux & Shell",
	"excel":      "Spreadsheets & Office",
	"math":       "Math & Problem Solving",
	"finance":    "Finance & Investing",
	"investing":  "Finance & Investing",
	"email":      "Email & Communication",
	"game":       "Games & Entertainment",
	"music":      "Music",
	"language":   "Language Learning",
	"spanish":    "Language Learning",
	"history":    "History & Research",
}

func labelFor(keywords []string) string {
	for _, kw := range keywords {
		if label, ok := labelTemplates[kw]; ok {
			return label
		}
	}
	if len(keywords) > 0 {
		return "Topic: " + capitalize(keywords[0])
	}
	return "General"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
