package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefdata/pkg/models"
)

func TestCollatePadsRightAndPromptsLeft(t *testing.T) {
	elements := []map[string]any{
		{
			"chosen_input_ids": []int{1, 2, 3},
			"prompt_input_ids": []int{7, 8},
			"prompt":           "p1",
		},
		{
			"chosen_input_ids": []int{1, 2, 3, 4, 5},
			"prompt_input_ids": []int{7, 8, 9, 10},
			"prompt":           "p2",
		},
		{
			"chosen_input_ids": []int{1, 2, 3, 4},
			"prompt_input_ids": []int{7, 8, 9},
			"prompt":           "p3",
		},
	}

	batch, err := Collate(elements, 0)
	require.NoError(t, err)

	// Non-prompt token fields pad on the right.
	assert.Equal(t, [][]int{
		{1, 2, 3, 0, 0},
		{1, 2, 3, 4, 5},
		{1, 2, 3, 4, 0},
	}, batch["chosen_input_ids"])

	// Prompt token fields pad on the left so the last tokens align.
	promptRows := batch["prompt_input_ids"].([][]int)
	assert.Equal(t, [][]int{
		{0, 0, 7, 8},
		{7, 8, 9, 10},
		{0, 7, 8, 9},
	}, promptRows)

	// Stripping the left padding recovers each original sequence exactly.
	originals := [][]int{{7, 8}, {7, 8, 9, 10}, {7, 8, 9}}
	for i, row := range promptRows {
		assert.Equal(t, originals[i], row[len(row)-len(originals[i]):])
	}

	// Raw strings pass through unpadded.
	assert.Equal(t, []string{"p1", "p2", "p3"}, batch["prompt"])
}

func TestCollateFillValues(t *testing.T) {
	elements := []map[string]any{
		{
			"chosen_input_ids":      []int{5},
			"chosen_attention_mask": []int{1},
			"chosen_labels":         []int{5},
		},
		{
			"chosen_input_ids":      []int{5, 6},
			"chosen_attention_mask": []int{1, 1},
			"chosen_labels":         []int{5, 6},
		},
	}

	batch, err := Collate(elements, 42)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{5, 42}, {5, 6}}, batch["chosen_input_ids"])
	assert.Equal(t, [][]int{{1, 0}, {1, 1}}, batch["chosen_attention_mask"])
	assert.Equal(t, [][]int{{5, models.LabelMaskValue}, {5, 6}}, batch["chosen_labels"])
}

func TestCollateEmptyBatch(t *testing.T) {
	_, err := Collate(nil, 0)
	assert.Error(t, err)
}

func TestCollateRejectsWrongTypes(t *testing.T) {
	_, err := Collate([]map[string]any{{"chosen_input_ids": "not ids"}}, 0)
	assert.Error(t, err)

	_, err = Collate([]map[string]any{{"prompt": 5}}, 0)
	assert.Error(t, err)
}
