package corpus

import (
	"encoding/json"
	"fmt"

	"github.com/prefdata/pkg/models"
)

// loadOA converts the OpenAssistant corpus: the flat message dump is
// reconstructed into conversation trees, then canonical threads are
// extracted at every qualifying human-turn branch point.
func loadOA(src RowSource, split string, opts Options) (*models.ThreadSet, error) {
	rows, err := src.Rows("oa", split)
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(rows))
	for i, raw := range rows {
		var row oaRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		role := RoleAssistant
		if row.Role == "prompter" {
			role = RoleHuman
		}
		parentID := ""
		if row.ParentID != nil {
			parentID = *row.ParentID
		}
		messages = append(messages, Message{
			ID:           row.MessageID,
			ParentID:     parentID,
			Role:         role,
			Text:         row.Text,
			Deleted:      row.Deleted,
			PassedReview: row.ReviewResult,
			Rank:         row.Rank,
		})
	}

	tree := BuildTree(messages)
	set := models.NewThreadSet()
	ExtractThreads(tree, set)
	return set, nil
}
