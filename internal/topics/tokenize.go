package topics

import (
	"regexp"
	"strings"
)

// minTokenLength drops noise tokens; two-letter words are almost never
// topical.
const minTokenLength = 3

var tokenSplit = regexp.MustCompile(`\W+`)

// stopwords covers common English plus the filler and assistant-register
// terms that dominate chat transcripts and carry no topical signal.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// common English
		"the", "and", "for", "are", "but", "not", "you", "all", "can",
		"had", "her", "was", "one", "our", "out", "day", "get", "has",
		"him", "his", "how", "man", "new", "now", "old", "see", "two",
		"way", "who", "boy", "did", "its", "let", "put", "say", "she",
		"too", "use", "that", "with", "have", "this", "will", "your",
		"from", "they", "know", "want", "been", "good", "much", "some",
		"time", "very", "when", "come", "here", "just", "like", "long",
		"make", "many", "more", "most", "only", "over", "such", "take",
		"than", "them", "well", "were", "what", "which", "while", "about",
		"after", "again", "also", "because", "before", "being", "between",
		"both", "could", "does", "doing", "down", "during", "each", "few",
		"further", "having", "into", "itself", "once", "other", "should",
		"same", "then", "there", "these", "those", "through", "under",
		"until", "where", "why", "would", "their", "thing", "things",
		"something", "anything", "everything", "nothing", "someone",
		"anyone", "really", "still", "even", "going", "back", "around",
		"first", "last", "next", "every", "another", "within", "without",
		"against", "above", "below", "might", "must", "shall", "ought",
		// chat filler and assistant-register terms
		"please", "thanks", "thank", "hello", "okay", "yes", "yeah",
		"sure", "right", "actually", "basically", "maybe", "kind", "sort",
		"lot", "bit", "need", "needs", "help", "helped", "using", "used",
		"uses", "give", "gives", "tell", "show", "explain", "example",
		"examples", "question", "questions", "answer", "answers", "write",
		"create", "look", "looks", "looking", "work", "works", "working",
		"better", "best", "great", "different", "possible", "trying",
		"understand", "mean", "means", "said", "says", "think", "thought",
		"chatgpt", "gpt",
	} {
		stopwords[w] = struct{}{}
	}
}

// Tokenize lowercases, splits on non-word runs, and drops short tokens
// and stopwords.
func Tokenize(text string) []string {
	var out []string
	for _, tok := range tokenSplit.Split(strings.ToLower(text), -1) {
		if len(tok) < minTokenLength {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// IsStopword reports whether a token is in the fixed stopword set.
func IsStopword(tok string) bool {
	_, ok := stopwords[strings.ToLower(tok)]
	return ok
}
