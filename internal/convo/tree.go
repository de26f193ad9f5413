package convo

import (
	"sort"
	"strings"
)

// traverseTree resolves one linear message path through a conversation's
// branching mapping.
//
// Two passes are required: children arrays only support forward traversal,
// and only the deepest branch reflects the final edited state. So the walk
// goes forward from the root taking the last child at every branch point
// (edits and regenerations append siblings, making the last child the most
// recent branch), then backward from that leaf via parent pointers
// collecting messages, then reverses for chronological order.
//
// Malformed mappings degrade to an empty slice rather than failing: a
// missing root yields nothing, and a dangling node id stops the walk at
// that point.
func traverseTree(mapping map[string]RawNode) []*RawMessage {
	if len(mapping) == 0 {
		return nil
	}

	rootID, ok := findRoot(mapping)
	if !ok {
		return nil
	}

	// Forward walk: last child at every branch until a leaf.
	leafID := rootID
	for {
		node, ok := mapping[leafID]
		if !ok || len(node.Children) == 0 {
			break
		}
		leafID = node.Children[len(node.Children)-1]
	}

	// Backward walk: leaf to root via parent pointers.
	var messages []*RawMessage
	currentID := leafID
	for {
		node, ok := mapping[currentID]
		if !ok {
			break
		}
		if msg := node.Message; msg != nil && keepMessage(msg) {
			messages = append(messages, msg)
		}
		if node.Parent == nil {
			break
		}
		currentID = *node.Parent
	}

	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages
}

// findRoot locates the node with no parent. The export format guarantees
// a unique root per conversation; if that assumption is ever violated the
// lexicographically first root id wins, keeping the walk deterministic
// under Go's randomized map iteration.
func findRoot(mapping map[string]RawNode) (string, bool) {
	ids := make([]string, 0, len(mapping))
	for id, node := range mapping {
		if node.Parent == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", false
	}
	sort.Strings(ids)
	return ids[0], true
}

// keepMessage applies the traversal drop rules: platform-injected system
// messages go (user-authored ones stay), tool output always goes, and so
// do messages with no payload, no parts, or text parts that are all
// whitespace.
func keepMessage(msg *RawMessage) bool {
	if msg.Author.Role == string(RoleSystem) && !msg.IsUserSystem() {
		return false
	}
	if msg.Author.Role == string(RoleTool) {
		return false
	}
	content := msg.Content
	if content == nil || len(content.Parts) == 0 {
		return false
	}
	if content.ContentType == "text" && !hasVisibleParts(content.Parts) {
		return false
	}
	return true
}

// hasVisibleParts reports whether any part is a non-whitespace string or
// an embedded object (images, files).
func hasVisibleParts(parts []any) bool {
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return true
			}
		case map[string]any:
			return true
		}
	}
	return false
}
