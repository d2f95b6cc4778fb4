package batch

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/prefdata/internal/corpus"
	"github.com/prefdata/internal/tokenizer"
	"github.com/prefdata/pkg/models"
)

// ErrExhausted signals that the iterator has produced its last batch.
var ErrExhausted = errors.New("batch iterator exhausted")

// Options configures one batch iterator.
type Options struct {
	// Corpora are the corpus names to load and concatenate.
	Corpora []string
	// Split selects the corpus split ("train", "test", ...).
	Split string
	// Source supplies raw corpus rows; see corpus.RowSource.
	Source corpus.RowSource
	// Sanitizer is passed through to the adapters that clean raw text.
	Sanitizer corpus.Sanitizer

	BatchSize       int
	Shuffle         bool
	MaxLength       int
	MaxPromptLength int

	// SFTMode tokenizes the thread's SFT target as both sides and drops
	// the rejected fields, instead of expanding preference pairs.
	SFTMode bool

	// Stopping criteria: at least one must be set (> 0). ResumeOffset is
	// the number of examples completed by a previous run and converts to
	// an example limit of total-threads minus the offset, overriding
	// Examples when both are set.
	Epochs       int
	Examples     int
	ResumeOffset int

	Seed   int64
	Silent bool
}

// flatThread is one canonical thread with its corpus-fixed truncation mode,
// ready for per-epoch shuffling.
type flatThread struct {
	prompt     string
	responses  []string
	pairs      []models.Pair
	sftTarget  string
	truncation TruncationMode
}

type iterState int

const (
	stateNotStarted iterState = iota
	stateInEpoch
	stateExhausted
)

// Iterator is a pull-based source of collated batches. Each Next call
// produces exactly one batch; abandoning the iterator at any point is safe
// and needs no teardown. The flat thread list and the seed sequence are
// owned exclusively by one iterator, so concurrent iterators over the same
// corpora never share state. Randomness never touches the process-wide
// generator: the iterator holds a private seed source and derives a fresh
// rand.Rand per epoch shuffle from it.
type Iterator struct {
	opts Options
	tok  tokenizer.Tokenizer

	flat       []flatThread
	seedSource *rand.Rand

	exampleLimit     int
	haveExampleLimit bool
	epochLimit       int // 0 = no epoch limit

	state      iterState
	epochIdx   int
	exampleIdx int
	threadIdx  int
	pairIdx    int
	pending    []map[string]any
}

// New loads the requested corpora and prepares an iterator. Stopping
// configuration and corpus names are validated up front; any error here is
// fatal to the caller (fix the inputs, there is nothing to retry).
func New(tok tokenizer.Tokenizer, opts Options) (*Iterator, error) {
	if opts.Epochs <= 0 && opts.Examples <= 0 && opts.ResumeOffset <= 0 {
		return nil, fmt.Errorf("must specify an epoch limit, an example limit, or a resume offset")
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}

	it := &Iterator{
		opts:       opts,
		tok:        tok,
		seedSource: rand.New(rand.NewSource(opts.Seed)),
		epochLimit: opts.Epochs,
	}

	loadOpts := corpus.Options{Silent: opts.Silent, Sanitizer: opts.Sanitizer}
	for _, name := range opts.Corpora {
		set, err := corpus.Load(name, opts.Split, opts.Source, loadOpts)
		if err != nil {
			return nil, err
		}
		mode := TruncationModeFor(name)
		for _, t := range set.Threads() {
			it.flat = append(it.flat, flatThread{
				prompt:     t.Prompt,
				responses:  t.Responses,
				pairs:      t.Pairs,
				sftTarget:  t.SFTTarget,
				truncation: mode,
			})
		}
	}

	if len(it.flat) == 0 {
		return nil, fmt.Errorf("no threads loaded from corpora %v (%s split)", opts.Corpora, opts.Split)
	}

	if opts.Examples > 0 {
		it.exampleLimit = opts.Examples
		it.haveExampleLimit = true
	}
	if opts.ResumeOffset > 0 {
		// A resume offset at or past the end leaves a limit of zero or
		// less; the first yielded batch then satisfies it immediately.
		it.exampleLimit = len(it.flat) - opts.ResumeOffset
		it.haveExampleLimit = true
	}
	return it, nil
}

// Next returns the next collated batch, or ErrExhausted once the stopping
// criterion has been met. Any other error is fatal to the iteration.
func (it *Iterator) Next() (models.Batch, error) {
	switch it.state {
	case stateExhausted:
		return nil, ErrExhausted
	case stateNotStarted:
		it.startEpoch()
	}

	for {
		if it.threadIdx >= len(it.flat) {
			// Epoch complete. A trailing partial batch is discarded.
			it.pending = nil
			it.epochIdx++
			if it.epochLimit > 0 && it.epochIdx >= it.epochLimit {
				it.state = stateExhausted
				if !it.opts.Silent {
					log.Info().Int("epochs", it.epochLimit).Str("split", it.opts.Split).
						Msg("finished generating epochs")
				}
				return nil, ErrExhausted
			}
			it.startEpoch()
			continue
		}

		element, err := it.nextElement()
		if errors.Is(err, errEpochDone) {
			// Ran past the last thread while skipping pairless threads;
			// the loop top handles the epoch boundary.
			continue
		}
		if err != nil {
			it.state = stateExhausted
			return nil, err
		}
		it.pending = append(it.pending, element)
		it.exampleIdx++

		if len(it.pending) == it.opts.BatchSize {
			collated, err := Collate(it.pending, it.tok.PadID())
			it.pending = nil
			if err != nil {
				it.state = stateExhausted
				return nil, err
			}
			if it.haveExampleLimit && it.exampleIdx >= it.exampleLimit {
				it.state = stateExhausted
				if !it.opts.Silent {
					log.Info().Int("examples", it.exampleLimit).Str("split", it.opts.Split).
						Msg("finished generating examples")
				}
			}
			return collated, nil
		}
	}
}

// nextElement tokenizes the next example from the flat list, advancing the
// thread/pair cursor. In SFT mode each thread yields one example; in
// preference mode it yields one per pair.
func (it *Iterator) nextElement() (map[string]any, error) {
	for {
		th := &it.flat[it.threadIdx]

		if it.opts.SFTMode {
			it.threadIdx++
			element, err := TokenizeElement(it.tok, th.prompt, th.sftTarget, th.sftTarget,
				th.truncation, it.opts.MaxLength, it.opts.MaxPromptLength)
			if err != nil {
				return nil, err
			}
			for key := range element {
				if strings.Contains(key, "rejected") {
					delete(element, key)
				}
			}
			return element, nil
		}

		if it.pairIdx >= len(th.pairs) {
			it.pairIdx = 0
			it.threadIdx++
			if it.threadIdx >= len(it.flat) {
				// Caller notices the epoch boundary.
				return nil, errEpochDone
			}
			continue
		}

		p := th.pairs[it.pairIdx]
		it.pairIdx++
		if it.pairIdx >= len(th.pairs) {
			it.pairIdx = 0
			it.threadIdx++
		}
		return TokenizeElement(it.tok, th.prompt, th.responses[p.Preferred], th.responses[p.Other],
			th.truncation, it.opts.MaxLength, it.opts.MaxPromptLength)
	}
}

var errEpochDone = errors.New("epoch done")

// startEpoch reshuffles the flat list (when enabled) with a rand.Rand
// derived from the next pre-drawn epoch seed and resets the cursor.
func (it *Iterator) startEpoch() {
	if it.opts.Shuffle {
		epochSeed := it.seedSource.Int63()
		shuffler := rand.New(rand.NewSource(epochSeed))
		shuffler.Shuffle(len(it.flat), func(i, j int) {
			it.flat[i], it.flat[j] = it.flat[j], it.flat[i]
		})
	}
	it.threadIdx = 0
	it.pairIdx = 0
	it.state = stateInEpoch
}
