// Package pipeline runs the full conversion: raw export JSON in, a set
// of named virtual files (profile, knowledge base, conversations,
// index) out. Run is synchronous; Start wraps it with progress events
// for interactive callers.
package pipeline

import (
	"context"
	"fmt"

	"github.com/chatpack/chatpack/internal/convo"
	"github.com/chatpack/chatpack/internal/enhance"
	"github.com/chatpack/chatpack/internal/knowledge"
	"github.com/chatpack/chatpack/internal/organize"
	"github.com/chatpack/chatpack/internal/profile"
	"github.com/chatpack/chatpack/internal/split"
	"github.com/chatpack/chatpack/internal/stats"
	"github.com/chatpack/chatpack/internal/topics"
)

// Options is the caller-facing configuration surface.
type Options struct {
	Organize     organize.Mode
	Frontmatter  bool
	SplitSize    int // characters; <= 0 uses the default
	Memories     string
	Instructions string

	// Enhancer, when set, rewrites the profile and digests through an
	// external provider. Failures fall back to heuristic output.
	Enhancer enhance.Provider
}

// DefaultOptions are the settings used when the caller specifies none.
func DefaultOptions() Options {
	return Options{
		Organize:    organize.ModeMonthly,
		Frontmatter: true,
		SplitSize:   split.DefaultMaxSize,
	}
}

// Result is everything one conversion run produces.
type Result struct {
	Conversations []*convo.Conversation
	Stats         stats.Export
	Clusters      []topics.Cluster
	Profile       profile.Profile

	// ProfileMarkdown is the rendered (possibly enhanced) profile doc.
	ProfileMarkdown string
	Digests         []knowledge.Digest
	Files           []File
}

// File is one named output document.
type File struct {
	Path    string
	Content []byte
}

// Run executes every stage synchronously. Per-conversation problems
// degrade; only unusable input fails the run.
func Run(ctx context.Context, data []byte, opts Options) (*Result, error) {
	raws, err := convo.DecodeConversations(data)
	if err != nil {
		return nil, err
	}
	return RunRaws(ctx, raws, opts), nil
}

// RunRaws runs the pipeline over already-decoded records, as used by
// callers that decode once and convert a selected subset.
func RunRaws(ctx context.Context, raws []convo.RawConversation, opts Options) *Result {
	res := &Result{Conversations: parsePointers(raws)}
	res.Stats = statsFromConversations(res.Conversations)
	res.Clusters = topics.BuildClusters(res.Conversations)
	res.Profile = profile.Build(res.Conversations, res.Clusters)
	res.ProfileMarkdown = profile.RenderMarkdown(res.Profile, opts.Instructions)
	res.Digests = knowledge.BuildDigests(res.Clusters)

	if opts.Enhancer != nil {
		applyEnhancement(ctx, res, opts)
	}

	res.Files = BuildFiles(res, opts)
	return res
}

func parsePointers(raws []convo.RawConversation) []*convo.Conversation {
	convs := convo.Parse(raws)
	out := make([]*convo.Conversation, len(convs))
	for i := range convs {
		out[i] = &convs[i]
	}
	return out
}

func statsFromConversations(convs []*convo.Conversation) stats.Export {
	records := make([]stats.Record, 0, len(convs))
	for _, c := range convs {
		records = append(records, stats.FromConversation(*c))
	}
	return stats.Compute(records)
}

func applyEnhancement(ctx context.Context, res *Result, opts Options) {
	res.ProfileMarkdown = enhance.EnhanceProfile(ctx, opts.Enhancer, res.ProfileMarkdown, res.Conversations)

	for i := range res.Digests {
		out, err := enhance.EnhanceCluster(ctx, opts.Enhancer, res.Clusters[i], res.Digests[i].Markdown)
		res.Digests[i].Markdown = out
		_ = err // a failure already produced a fallback document
	}
}

// Progress is one worker notification. The terminal event carries
// exactly one of Result or Err; progress events carry neither and
// arrive with non-decreasing percentages.
type Progress struct {
	Percent int
	Label   string
	Result  *Result
	Err     error
}

// Start runs the pipeline on its own goroutine, reporting stage
// progress followed by one terminal event, then closing the channel.
func Start(ctx context.Context, data []byte, opts Options) <-chan Progress {
	ch := make(chan Progress, 16)
	go func() {
		defer close(ch)

		emit := func(pct int, label string) {
			select {
			case ch <- Progress{Percent: pct, Label: label}:
			case <-ctx.Done():
			}
		}

		raws, err := convo.DecodeConversations(data)
		if err != nil {
			ch <- Progress{Percent: 100, Err: err}
			return
		}
		emit(10, "Decoding conversations")

		res := &Result{Conversations: parsePointers(raws)}
		emit(40, fmt.Sprintf("Parsed %d conversations", len(res.Conversations)))

		res.Stats = statsFromConversations(res.Conversations)
		emit(50, "Computed statistics")

		res.Clusters = topics.BuildClusters(res.Conversations)
		emit(65, fmt.Sprintf("Grouped into %d topics", len(res.Clusters)))

		res.Profile = profile.Build(res.Conversations, res.Clusters)
		res.ProfileMarkdown = profile.RenderMarkdown(res.Profile, opts.Instructions)
		emit(75, "Inferred profile")

		res.Digests = knowledge.BuildDigests(res.Clusters)
		emit(85, "Synthesized knowledge base")

		if opts.Enhancer != nil {
			applyEnhancement(ctx, res, opts)
			emit(90, "Enhanced summaries")
		}

		res.Files = BuildFiles(res, opts)
		emit(95, "Assembled documents")

		select {
		case ch <- Progress{Percent: 100, Result: res}:
		case <-ctx.Done():
		}
	}()
	return ch
}
