package enhance

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatpack/chatpack/internal/convo"
	"github.com/chatpack/chatpack/internal/topics"
)

const (
	excerptLen         = 300
	profileSampleConvs = 5
	clusterSampleConvs = 3

	profileSystem = "You rewrite a heuristic user profile into polished Markdown. " +
		"Keep the same headings and facts, improve the prose, do not invent details."
	clusterSystem = "You rewrite a topic digest into polished Markdown. " +
		"Keep the heading and factual content, improve the prose, do not invent details."
)

// EnhanceProfile asks the provider to rewrite the heuristic profile
// document. On any failure the heuristic document is returned
// unchanged; enhancement is strictly best-effort.
func EnhanceProfile(ctx context.Context, p Provider, heuristic string, convs []*convo.Conversation) string {
	var b strings.Builder
	b.WriteString("Heuristic profile:\n\n")
	b.WriteString(heuristic)
	b.WriteString("\n\nConversation excerpts:\n")
	for i, c := range convs {
		if i == profileSampleConvs {
			break
		}
		fmt.Fprintf(&b, "\n[%s]\n%s\n", c.Title, excerpt(c))
	}

	out, err := p.Complete(ctx, b.String(), CompletionOpts{System: profileSystem})
	if err != nil || strings.TrimSpace(out) == "" {
		return heuristic
	}
	return out
}

// EnhanceCluster asks the provider to rewrite one cluster digest. On
// failure it synthesizes a minimal fallback document naming the
// failure, so the knowledge base stays complete, and reports the error
// for logging. One cluster failing never stops the others.
func EnhanceCluster(ctx context.Context, p Provider, cl topics.Cluster, heuristic string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nKeywords: %s\n\nHeuristic digest:\n\n%s\n\nExcerpts:\n",
		cl.Label, strings.Join(cl.Keywords, ", "), heuristic)
	for i, c := range cl.Conversations {
		if i == clusterSampleConvs {
			break
		}
		fmt.Fprintf(&b, "\n[%s]\n%s\n", c.Title, excerpt(c))
	}

	out, err := p.Complete(ctx, b.String(), CompletionOpts{System: clusterSystem})
	if err != nil {
		return fallbackDigest(cl, err), err
	}
	if strings.TrimSpace(out) == "" {
		err := fmt.Errorf("empty enhancement result")
		return fallbackDigest(cl, err), err
	}
	return out, nil
}

// fallbackDigest is the minimal document written when enhancement of a
// cluster fails.
func fallbackDigest(cl topics.Cluster, cause error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cl.Label)
	fmt.Fprintf(&b, "> Enhancement unavailable: %v\n\n", cause)
	fmt.Fprintf(&b, "Conversations in this topic: %d\n", len(cl.Conversations))
	if len(cl.Keywords) > 0 {
		fmt.Fprintf(&b, "\nKeywords: %s\n", strings.Join(cl.Keywords, ", "))
	}
	return b.String()
}

// excerpt returns the first stretch of user text in a conversation,
// truncated to a fixed length.
func excerpt(c *convo.Conversation) string {
	for _, m := range c.Messages {
		if m.Role != convo.RoleUser {
			continue
		}
		for _, f := range m.Fragments {
			text := strings.TrimSpace(f.Text)
			if f.Kind == convo.FragmentText && text != "" {
				if len(text) > excerptLen {
					text = text[:excerptLen]
				}
				return text
			}
		}
	}
	return ""
}
