package corpus

import (
	"encoding/json"
	"fmt"

	"github.com/prefdata/pkg/models"
)

// loadSE converts the StackExchange preferences corpus: one row per
// question, all answers as responses. Every index pair is directed by the
// answers' pm_score, equal scores resolving to the later index. Answer text
// runs through the sanitizer (upstream answers carry HTML).
func loadSE(src RowSource, split string, opts Options) (*models.ThreadSet, error) {
	rows, err := src.Rows("se", split)
	if err != nil {
		return nil, err
	}
	clean := opts.sanitizer()

	set := models.NewThreadSet()
	for n, raw := range rows {
		var row seRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}

		prompt := "\n\nHuman: " + clean.Clean(row.Question) + "\n\nAssistant:"
		responses := make([]string, len(row.Answers))
		scores := make([]float64, len(row.Answers))
		for i, a := range row.Answers {
			responses[i] = " " + clean.Clean(a.Text)
			scores[i] = a.PMScore
		}

		var pairs []models.Pair
		for i := 0; i < len(responses); i++ {
			for j := i + 1; j < len(responses); j++ {
				if scores[i] > scores[j] {
					pairs = append(pairs, models.Pair{Preferred: i, Other: j})
				} else {
					pairs = append(pairs, models.Pair{Preferred: j, Other: i})
				}
			}
		}

		t := set.Get(prompt)
		t.Responses = responses
		t.Pairs = pairs
		t.SFTTarget = responses[argmax(scores)]
	}
	return set, nil
}
