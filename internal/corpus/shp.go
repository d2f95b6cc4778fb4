package corpus

import (
	"encoding/json"
	"fmt"

	"github.com/prefdata/pkg/models"
)

// minScoreRatio discards low-confidence SHP pairs: the higher score must be
// at least twice the lower one.
const minScoreRatio = 2.0

// loadSHP converts the Stanford Human Preferences corpus. Responses for the
// same prompt accumulate across rows; each surviving row appends one pair
// directed by its labels field. The SFT target is the accumulated response
// with the highest score, first occurrence winning ties.
func loadSHP(src RowSource, split string, opts Options) (*models.ThreadSet, error) {
	rows, err := src.Rows("shp", split)
	if err != nil {
		return nil, err
	}

	set := models.NewThreadSet()
	scores := make(map[string][]float64)
	for i, raw := range rows {
		var row shpRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		ratio := row.ScoreA / row.ScoreB
		if inverse := row.ScoreB / row.ScoreA; inverse > ratio {
			ratio = inverse
		}
		if ratio < minScoreRatio {
			continue
		}

		prompt := "\n\nHuman: " + row.History + "\n\nAssistant:"
		t := set.Get(prompt)
		n := len(t.Responses)
		if row.Labels == 1 {
			t.Pairs = append(t.Pairs, models.Pair{Preferred: n, Other: n + 1})
		} else {
			t.Pairs = append(t.Pairs, models.Pair{Preferred: n + 1, Other: n})
		}
		t.Responses = append(t.Responses, " "+row.HumanRefA, " "+row.HumanRefB)
		scores[prompt] = append(scores[prompt], row.ScoreA, row.ScoreB)
	}

	for _, t := range set.Threads() {
		t.SFTTarget = t.Responses[argmax(scores[t.Prompt])]
	}
	return set, nil
}

// argmax returns the index of the largest value, first occurrence on ties.
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
