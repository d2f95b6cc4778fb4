package corpus

// Role of a conversation message.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Node is one message in a conversation tree. Nodes live in the Tree arena
// and reference their replies by index, so deep threads never translate into
// deep call stacks during construction.
type Node struct {
	ID           string
	ParentID     string
	Role         Role
	Text         string
	Deleted      bool
	PassedReview bool
	// Rank is nil when the corpus carries no rank for the message.
	Rank *int
	// Replies holds arena indices of the direct replies, corpus order.
	Replies []int
}

// Tree is an index arena of conversation nodes. Nodes[0] is a synthetic
// root; messages without a parent reference attach under it.
type Tree struct {
	Nodes []Node
}

const rootIndex = 0

// Message is the flat input to BuildTree: one corpus message with its
// parent reference (empty for top-level messages).
type Message struct {
	ID           string
	ParentID     string
	Role         Role
	Text         string
	Deleted      bool
	PassedReview bool
	Rank         *int
}

// BuildTree reconstructs a conversation tree from a flat message sequence.
//
// Precondition (assumed, not verified): all descendants of a message appear
// contiguously immediately after it. Under that ordering every message is
// consumed exactly once with a single forward cursor. When a message's
// parent matches no open ancestor, scanning stops and the remaining
// messages are silently dropped.
func BuildTree(messages []Message) *Tree {
	t := &Tree{Nodes: []Node{{ID: "root_node"}}}

	// stack holds the chain of open ancestors, root at the bottom.
	stack := []int{rootIndex}
	for _, msg := range messages {
		parentID := msg.ParentID
		if parentID == "" {
			parentID = t.Nodes[rootIndex].ID
		}

		// Close finished subtrees until the parent is on top.
		for len(stack) > 0 && t.Nodes[stack[len(stack)-1]].ID != parentID {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			break
		}

		parent := stack[len(stack)-1]
		idx := len(t.Nodes)
		t.Nodes = append(t.Nodes, Node{
			ID:           msg.ID,
			ParentID:     parentID,
			Role:         msg.Role,
			Text:         msg.Text,
			Deleted:      msg.Deleted,
			PassedReview: msg.PassedReview,
			Rank:         msg.Rank,
		})
		t.Nodes[parent].Replies = append(t.Nodes[parent].Replies, idx)
		stack = append(stack, idx)
	}
	return t
}

// Roots returns the arena indices of the top-level messages.
func (t *Tree) Roots() []int {
	return t.Nodes[rootIndex].Replies
}

// terminal reports whether a node ends its conversation branch: it has no
// replies, or every reply is marked deleted.
func (t *Tree) terminal(idx int) bool {
	for _, r := range t.Nodes[idx].Replies {
		if !t.Nodes[r].Deleted {
			return false
		}
	}
	return true
}
