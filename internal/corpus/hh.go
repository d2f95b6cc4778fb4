package corpus

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prefdata/pkg/models"
)

const assistantMarker = "\n\nAssistant:"

// ExtractAssistantPrompt splits a combined prompt+response dump at the last
// assistant-turn marker and returns the prompt, marker included.
func ExtractAssistantPrompt(promptAndResponse string) (string, error) {
	idx := strings.LastIndex(promptAndResponse, assistantMarker)
	if idx == -1 {
		return "", fmt.Errorf("prompt and response does not contain %q", assistantMarker)
	}
	return promptAndResponse[:idx+len(assistantMarker)], nil
}

// loadHH converts the helpful-harmless corpus: each row carries a full
// chosen and rejected dialogue over the same prompt. Every row contributes
// one fixed two-way pair, with no filtering; the chosen response is the SFT
// target (the last row wins when a prompt repeats).
func loadHH(src RowSource, split string, opts Options) (*models.ThreadSet, error) {
	rows, err := src.Rows("hh", split)
	if err != nil {
		return nil, err
	}

	set := models.NewThreadSet()
	for i, raw := range rows {
		var row hhRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		prompt, err := ExtractAssistantPrompt(row.Chosen)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		chosen := row.Chosen[len(prompt):]
		rejected := row.Rejected[len(prompt):]

		t := set.Get(prompt)
		n := len(t.Responses)
		t.Pairs = append(t.Pairs, models.Pair{Preferred: n, Other: n + 1})
		t.Responses = append(t.Responses, chosen, rejected)
		t.SFTTarget = chosen
	}
	return set, nil
}
