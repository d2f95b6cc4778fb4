package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prefdata/pkg/models"
)

// memSource serves in-memory rows keyed by corpus/split.
type memSource struct {
	rows map[string][]json.RawMessage
}

func (m *memSource) Rows(corpus, split string) ([]json.RawMessage, error) {
	rows, ok := m.rows[corpus+"/"+split]
	if !ok {
		return nil, fmt.Errorf("no rows for %s/%s", corpus, split)
	}
	return rows, nil
}

// hhSource builds an hh corpus with the given number of distinct prompts,
// each contributing pairsPerPrompt preference pairs.
func hhSource(t *testing.T, prompts, pairsPerPrompt int) *memSource {
	t.Helper()
	var rows []json.RawMessage
	for p := 0; p < prompts; p++ {
		prompt := fmt.Sprintf("\n\nHuman: question %d\n\nAssistant:", p)
		for q := 0; q < pairsPerPrompt; q++ {
			row := map[string]string{
				"chosen":   fmt.Sprintf("%s good answer %d", prompt, q),
				"rejected": fmt.Sprintf("%s bad answer %d", prompt, q),
			}
			data, err := json.Marshal(row)
			require.NoError(t, err)
			rows = append(rows, data)
		}
	}
	return &memSource{rows: map[string][]json.RawMessage{"hh/train": rows}}
}

func baseOptions(src *memSource) Options {
	return Options{
		Corpora:         []string{"hh"},
		Split:           "train",
		Source:          src,
		BatchSize:       3,
		MaxLength:       512,
		MaxPromptLength: 128,
		Silent:          true,
	}
}

func drain(t *testing.T, it *Iterator) []models.Batch {
	t.Helper()
	var batches []models.Batch
	for {
		b, err := it.Next()
		if errors.Is(err, ErrExhausted) {
			return batches
		}
		require.NoError(t, err)
		batches = append(batches, b)
	}
}

func TestIteratorStoppingConfigRequired(t *testing.T) {
	opts := baseOptions(hhSource(t, 2, 2))
	_, err := New(runeTokenizer{}, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "epoch limit")
}

func TestIteratorExampleLimit(t *testing.T) {
	// Two threads with 2 pairs each: 4 examples total. With batch size 3
	// and an example limit of 3, exactly one batch is yielded and the
	// iterator halts before forming a second.
	opts := baseOptions(hhSource(t, 2, 2))
	opts.Examples = 3

	it, err := New(runeTokenizer{}, opts)
	require.NoError(t, err)

	batches := drain(t, it)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0]["prompt"].([]string), 3)

	// Exhaustion is sticky.
	_, err = it.Next()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestIteratorPartialBatchDiscarded(t *testing.T) {
	// One epoch over 4 examples with batch size 3: the trailing partial
	// batch of 1 is discarded, never yielded.
	opts := baseOptions(hhSource(t, 2, 2))
	opts.Epochs = 1

	it, err := New(runeTokenizer{}, opts)
	require.NoError(t, err)

	batches := drain(t, it)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0]["prompt"].([]string), 3)
}

func TestIteratorResumeOffset(t *testing.T) {
	// Resume offset converts to an example limit of threads - offset.
	opts := baseOptions(hhSource(t, 3, 1))
	opts.BatchSize = 1
	opts.ResumeOffset = 1

	it, err := New(runeTokenizer{}, opts)
	require.NoError(t, err)

	batches := drain(t, it)
	assert.Len(t, batches, 2)
}

func TestIteratorResumeOffsetPastEnd(t *testing.T) {
	// An offset at or beyond the total example count leaves a non-positive
	// limit: the first yielded batch already satisfies it, so the iterator
	// stops after one batch instead of looping forever.
	opts := baseOptions(hhSource(t, 3, 1))
	opts.BatchSize = 1
	opts.ResumeOffset = 3

	it, err := New(runeTokenizer{}, opts)
	require.NoError(t, err)

	batches := drain(t, it)
	assert.Len(t, batches, 1)

	_, err = it.Next()
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestIteratorSFTModeDropsRejectedFields(t *testing.T) {
	opts := baseOptions(hhSource(t, 2, 1))
	opts.BatchSize = 2
	opts.Epochs = 1
	opts.SFTMode = true

	it, err := New(runeTokenizer{}, opts)
	require.NoError(t, err)

	batches := drain(t, it)
	require.Len(t, batches, 1)

	for key := range batches[0] {
		assert.NotContains(t, key, "rejected")
	}
	// The chosen side carries the SFT target.
	chosen := batches[0]["chosen"].([]string)
	for _, text := range chosen {
		assert.Contains(t, text, " good answer 0")
	}
}

func TestIteratorDeterministicAcrossRuns(t *testing.T) {
	makeRun := func() []models.Batch {
		opts := baseOptions(hhSource(t, 6, 2))
		opts.BatchSize = 4
		opts.Epochs = 2
		opts.Shuffle = true
		opts.Seed = 7

		it, err := New(runeTokenizer{}, opts)
		require.NoError(t, err)
		return drain(t, it)
	}

	first := makeRun()
	second := makeRun()
	require.NotEmpty(t, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed produced different batches (-first +second):\n%s", diff)
	}
}

func TestIteratorSeedChangesOrder(t *testing.T) {
	run := func(seed int64) []models.Batch {
		opts := baseOptions(hhSource(t, 8, 1))
		opts.BatchSize = 4
		opts.Epochs = 1
		opts.Shuffle = true
		opts.Seed = seed

		it, err := New(runeTokenizer{}, opts)
		require.NoError(t, err)
		return drain(t, it)
	}

	a := run(1)
	b := run(2)
	require.NotEmpty(t, a)
	if diff := cmp.Diff(a, b); diff == "" {
		t.Errorf("different seeds produced identical batch order")
	}
}

func TestIteratorEpochLimitCountsFullEpochs(t *testing.T) {
	// 2 threads x 1 pair, batch size 1: each epoch yields 2 batches.
	opts := baseOptions(hhSource(t, 2, 1))
	opts.BatchSize = 1
	opts.Epochs = 3

	it, err := New(runeTokenizer{}, opts)
	require.NoError(t, err)

	batches := drain(t, it)
	assert.Len(t, batches, 6)
}

func TestIteratorUnknownCorpus(t *testing.T) {
	opts := baseOptions(hhSource(t, 1, 1))
	opts.Corpora = []string{"bogus"}
	opts.Epochs = 1

	_, err := New(runeTokenizer{}, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown corpus")
}

func TestIteratorBatchShape(t *testing.T) {
	opts := baseOptions(hhSource(t, 3, 1))
	opts.BatchSize = 3
	opts.Epochs = 1

	it, err := New(runeTokenizer{}, opts)
	require.NoError(t, err)

	batches := drain(t, it)
	require.Len(t, batches, 1)
	b := batches[0]

	for _, key := range []string{
		"prompt_input_ids", "prompt_attention_mask",
		"chosen_input_ids", "chosen_attention_mask", "chosen_labels",
		"rejected_input_ids", "rejected_attention_mask", "rejected_labels",
	} {
		rows, ok := b[key].([][]int)
		require.True(t, ok, "field %s should be a padded matrix", key)
		require.Len(t, rows, 3, "field %s", key)
		for i := 1; i < len(rows); i++ {
			assert.Len(t, rows[i], len(rows[0]), "field %s rows should be padded to equal length", key)
		}
	}
	for _, key := range []string{"prompt", "chosen", "rejected", "chosen_response_only", "rejected_response_only"} {
		_, ok := b[key].([]string)
		require.True(t, ok, "field %s should pass through as strings", key)
	}
}
