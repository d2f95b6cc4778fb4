package corpus

import (
	"testing"
)

// msg builds a test message with sane defaults.
func msg(id, parent string, role Role) Message {
	return Message{ID: id, ParentID: parent, Role: role, Text: "text " + id, PassedReview: true}
}

func TestBuildTreeReconstructsEdges(t *testing.T) {
	// Pre-order, grouped by parent:
	//   a (root)
	//   ├── b
	//   │   ├── d
	//   │   └── e
	//   └── c
	//   f (root)
	messages := []Message{
		msg("a", "", RoleHuman),
		msg("b", "a", RoleAssistant),
		msg("d", "b", RoleHuman),
		msg("e", "b", RoleHuman),
		msg("c", "a", RoleAssistant),
		msg("f", "", RoleHuman),
	}

	tree := BuildTree(messages)

	// Every message visited exactly once: arena = messages + synthetic root.
	if got := len(tree.Nodes); got != len(messages)+1 {
		t.Fatalf("expected %d nodes, got %d", len(messages)+1, got)
	}

	byID := make(map[string]Node)
	for _, n := range tree.Nodes {
		byID[n.ID] = n
	}

	edges := map[string][]string{
		"root_node": {"a", "f"},
		"a":         {"b", "c"},
		"b":         {"d", "e"},
		"c":         {},
		"d":         {},
		"e":         {},
		"f":         {},
	}
	for id, wantChildren := range edges {
		node, ok := byID[id]
		if !ok {
			t.Fatalf("node %s missing from arena", id)
		}
		if len(node.Replies) != len(wantChildren) {
			t.Fatalf("node %s: expected %d replies, got %d", id, len(wantChildren), len(node.Replies))
		}
		for i, childIdx := range node.Replies {
			if got := tree.Nodes[childIdx].ID; got != wantChildren[i] {
				t.Errorf("node %s reply %d: expected %s, got %s", id, i, wantChildren[i], got)
			}
		}
	}
}

func TestBuildTreeParentReferences(t *testing.T) {
	messages := []Message{
		msg("a", "", RoleHuman),
		msg("b", "a", RoleAssistant),
	}
	tree := BuildTree(messages)

	for _, idx := range tree.Roots() {
		if tree.Nodes[idx].ParentID != "root_node" {
			t.Errorf("top-level node %s: parent = %q, want root_node",
				tree.Nodes[idx].ID, tree.Nodes[idx].ParentID)
		}
	}
}

func TestBuildTreeStopsOnOrderingViolation(t *testing.T) {
	// "c" references a parent that is no longer an open ancestor, so it and
	// everything after it are dropped.
	messages := []Message{
		msg("a", "", RoleHuman),
		msg("b", "a", RoleAssistant),
		msg("c", "missing", RoleHuman),
		msg("d", "a", RoleAssistant),
	}
	tree := BuildTree(messages)

	if got := len(tree.Nodes); got != 3 { // root + a + b
		t.Errorf("expected 3 nodes after the violation, got %d", got)
	}
}

func TestTerminal(t *testing.T) {
	deleted := msg("b", "a", RoleAssistant)
	deleted.Deleted = true
	messages := []Message{
		msg("a", "", RoleHuman),
		deleted,
		msg("c", "", RoleHuman),
	}
	tree := BuildTree(messages)

	// a's only reply is deleted; c has no replies.
	roots := tree.Roots()
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	for _, idx := range roots {
		if !tree.terminal(idx) {
			t.Errorf("node %s: expected terminal", tree.Nodes[idx].ID)
		}
	}
}
