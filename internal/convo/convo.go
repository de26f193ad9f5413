// Package convo reconstructs linear conversations from exported chat
// archives. An export stores each conversation as a branching tree of
// message nodes (edits and regenerations fork the tree); this package
// resolves one linear path through that tree, normalizes the heterogeneous
// content payloads into typed fragments, and produces immutable
// Conversation values for the rest of the pipeline.
package convo

import "time"

// AuthorRole identifies who authored a message. Unknown roles in the
// source data collapse to RoleUser.
type AuthorRole string

const (
	RoleUser      AuthorRole = "user"
	RoleAssistant AuthorRole = "assistant"
	RoleSystem    AuthorRole = "system"
	RoleTool      AuthorRole = "tool"
)

// ParseRole validates a role string against the closed role set.
func ParseRole(s string) AuthorRole {
	switch AuthorRole(s) {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return AuthorRole(s)
	default:
		return RoleUser
	}
}

// Label returns the display label used in rendered Markdown headers.
func (r AuthorRole) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	}
	return string(r)
}

// FragmentKind tags one variant of normalized message content.
type FragmentKind int

const (
	FragmentText FragmentKind = iota
	FragmentCode
	FragmentExecutionOutput
	FragmentBrowsingDisplay
	FragmentBrowsingQuote
	FragmentUnknown
)

// Fragment is one normalized unit of renderable content within a message.
// Text is always populated, possibly with a placeholder for non-text
// assets. The remaining fields are meaningful only for the kinds that
// carry them.
type Fragment struct {
	Kind     FragmentKind
	Text     string
	Language string // FragmentCode
	Title    string // FragmentBrowsingQuote
	URL      string // FragmentBrowsingQuote
	TypeName string // FragmentUnknown: the unrecognized content-type name
}

// Message is one reconstructed message. Immutable once built.
type Message struct {
	ID        string
	Role      AuthorRole
	Fragments []Fragment
	CreatedAt *time.Time
	ModelSlug string
}

// TextLength is the total fragment text length, used by the splitter's
// size estimate.
func (m Message) TextLength() int {
	n := 0
	for _, f := range m.Fragments {
		n += len(f.Text)
	}
	return n
}

// Conversation is a fully reconstructed conversation. Messages are in
// chronological order, oldest first. A conversation with zero messages is
// valid but excluded from most downstream rendering.
type Conversation struct {
	ID         string
	Title      string
	CreatedAt  *time.Time
	UpdatedAt  *time.Time
	Messages   []Message
	ModelSlugs map[string]struct{}
}

// Meta is a lightweight projection of a conversation for list views.
// MessageCount covers user and assistant messages only.
type Meta struct {
	ID           string
	Title        string
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
	MessageCount int
	ModelSlugs   map[string]struct{}
}
