package corpus

import (
	"github.com/prefdata/pkg/models"
)

// ExtractThreads walks every top-level human message of the tree and emits
// canonical threads into the set. A thread is emitted at every human-turn
// branch point where at least one direct assistant reply both passed review
// and terminates the conversation, so one raw conversation can yield several
// overlapping threads.
func ExtractThreads(t *Tree, set *models.ThreadSet) {
	for _, root := range t.Roots() {
		t.fillThreads(root, "", set)
	}
}

func (t *Tree) fillThreads(idx int, conversation string, set *models.ThreadSet) {
	node := &t.Nodes[idx]

	roleLabel := "Assistant"
	if node.Role == RoleHuman {
		roleLabel = "Human"
	}
	separator := "\n\n"
	if conversation == "" {
		separator = ""
	}
	extended := conversation + separator + roleLabel + ": " + node.Text

	if t.terminal(idx) {
		return
	}

	if node.Role == RoleAssistant {
		// Assistant turns always continue into the following human turns.
		for _, reply := range node.Replies {
			t.fillThreads(reply, extended, set)
		}
		return
	}

	// Human turn. First demote dead ends one level up: a human reply two
	// layers down whose assistant children are all deleted or unreviewed
	// would leave the conversation hanging on a human turn, so it is
	// treated as deleted.
	for _, asstReply := range node.Replies {
		for _, humanReply := range t.Nodes[asstReply].Replies {
			found := false
			for _, asst := range t.Nodes[humanReply].Replies {
				if !t.Nodes[asst].Deleted && t.Nodes[asst].PassedReview {
					found = true
					break
				}
			}
			if !found {
				t.Nodes[humanReply].Deleted = true
			}
		}
	}

	// Replies without a rank are treated as rank 0, the lowest.
	zero := 0
	for _, reply := range node.Replies {
		if t.Nodes[reply].Rank == nil {
			t.Nodes[reply].Rank = &zero
		}
	}

	// Emit a thread only when at least one direct reply is a reviewed,
	// terminating response.
	hasEnding := false
	for _, reply := range node.Replies {
		if t.Nodes[reply].PassedReview && t.terminal(reply) {
			hasEnding = true
			break
		}
	}

	if hasEnding {
		prompt := extended + "\n\nAssistant: "
		thread := set.Get(prompt)
		thread.Responses = nil
		thread.Pairs = nil

		bestRank := -1
		bestReply := ""
		for i, reply := range node.Replies {
			ri := &t.Nodes[reply]
			// Replies are included verbatim, regardless of their own
			// deleted/review status.
			thread.Responses = append(thread.Responses, ri.Text)
			if *ri.Rank > bestRank {
				bestRank = *ri.Rank
				bestReply = ri.Text
			}
			for j := i + 1; j < len(node.Replies); j++ {
				rj := &t.Nodes[node.Replies[j]]
				if *ri.Rank > *rj.Rank {
					thread.Pairs = append(thread.Pairs, models.Pair{Preferred: i, Other: j})
				} else {
					thread.Pairs = append(thread.Pairs, models.Pair{Preferred: j, Other: i})
				}
			}
		}

		// A lone reply still yields a trainable pair against an empty
		// filler response.
		if len(node.Replies) == 1 {
			thread.Responses = append(thread.Responses, "")
			thread.Pairs = append(thread.Pairs, models.Pair{Preferred: 0, Other: 1})
		}

		thread.SFTTarget = bestReply
	}

	// Continue into every reviewed reply that is not itself an ending,
	// whether or not a thread was emitted here.
	for _, reply := range node.Replies {
		if !t.terminal(reply) && t.Nodes[reply].PassedReview {
			t.fillThreads(reply, extended, set)
		}
	}
}
