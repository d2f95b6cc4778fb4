package batch

import (
	"fmt"
	"strings"

	"github.com/prefdata/pkg/models"
)

// Collate pads a list of tokenized elements into one batch. Token fields
// are padded to the longest row with a fill value chosen by field-name
// suffix: input ids pad with padID, labels with the loss-mask sentinel,
// attention masks with zero. Fields whose name contains "prompt" are
// reversed before padding and reversed back after, which puts the padding
// on the left so every prompt in the batch ends at the same column. All
// other fields pass through as raw string lists.
func Collate(elements []map[string]any, padID int) (models.Batch, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("cannot collate an empty batch")
	}

	padded := make(models.Batch, len(elements[0]))
	for key := range elements[0] {
		if !isTokenField(key) {
			texts := make([]string, len(elements))
			for i, el := range elements {
				s, ok := el[key].(string)
				if !ok {
					return nil, fmt.Errorf("field %q is not a string", key)
				}
				texts[i] = s
			}
			padded[key] = texts
			continue
		}

		var fill int
		switch {
		case strings.HasSuffix(key, models.SuffixInputIDs):
			fill = padID
		case strings.HasSuffix(key, models.SuffixLabels):
			fill = models.LabelMaskValue
		case strings.HasSuffix(key, models.SuffixAttentionMask):
			fill = 0
		default:
			return nil, fmt.Errorf("unexpected key in batch %q", key)
		}

		leftAlign := strings.Contains(key, models.PromptFieldMarker)
		rows := make([][]int, len(elements))
		maxLen := 0
		for i, el := range elements {
			ids, ok := el[key].([]int)
			if !ok {
				return nil, fmt.Errorf("field %q is not a token sequence", key)
			}
			if leftAlign {
				ids = reversed(ids)
			}
			rows[i] = ids
			if len(ids) > maxLen {
				maxLen = len(ids)
			}
		}
		for i, row := range rows {
			out := make([]int, maxLen)
			copy(out, row)
			for j := len(row); j < maxLen; j++ {
				out[j] = fill
			}
			if leftAlign {
				out = reversed(out)
			}
			rows[i] = out
		}
		padded[key] = rows
	}
	return padded, nil
}

func isTokenField(key string) bool {
	return strings.HasSuffix(key, models.SuffixInputIDs) ||
		strings.HasSuffix(key, models.SuffixAttentionMask) ||
		strings.HasSuffix(key, models.SuffixLabels)
}

func reversed(ids []int) []int {
	out := make([]int, len(ids))
	for i, v := range ids {
		out[len(ids)-1-i] = v
	}
	return out
}
