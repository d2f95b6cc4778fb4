package models

import (
	"fmt"
	"strings"
)

// Pair is an ordered preference between two responses of the same thread.
// Both values index into Thread.Responses.
type Pair struct {
	Preferred int `json:"preferred"`
	Other     int `json:"other"`
}

// Thread is the canonical record every corpus adapter produces: one
// turn-structured prompt, its candidate responses, the preference pairs
// between them, and the single response used as the supervised target.
type Thread struct {
	Prompt    string   `json:"prompt"`
	Responses []string `json:"responses"`
	Pairs     []Pair   `json:"pairs"`
	SFTTarget string   `json:"sft_target"`
}

// Validate checks the canonical-schema invariants: at least one response,
// every pair index in range, and the SFT target drawn from the responses.
func (t *Thread) Validate() error {
	if len(t.Responses) == 0 {
		return fmt.Errorf("thread %q has no responses", truncatePrompt(t.Prompt))
	}
	for _, p := range t.Pairs {
		if p.Preferred < 0 || p.Preferred >= len(t.Responses) ||
			p.Other < 0 || p.Other >= len(t.Responses) {
			return fmt.Errorf("thread %q has pair (%d, %d) out of range for %d responses",
				truncatePrompt(t.Prompt), p.Preferred, p.Other, len(t.Responses))
		}
	}
	found := false
	for _, r := range t.Responses {
		if r == t.SFTTarget {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("thread %q has an sft_target that is not one of its responses",
			truncatePrompt(t.Prompt))
	}
	return nil
}

func truncatePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if len(prompt) > 60 {
		return prompt[:60] + "..."
	}
	return prompt
}

// ThreadSet is an insertion-ordered collection of threads keyed by prompt.
// Go maps iterate in randomized order, so the set keeps an explicit order
// slice: corpus load order must be reproducible for the shuffle seeds to
// mean anything.
type ThreadSet struct {
	threads []*Thread
	index   map[string]int
}

// NewThreadSet returns an empty set.
func NewThreadSet() *ThreadSet {
	return &ThreadSet{index: make(map[string]int)}
}

// Get returns the thread for a prompt, creating and appending it if absent.
func (s *ThreadSet) Get(prompt string) *Thread {
	if i, ok := s.index[prompt]; ok {
		return s.threads[i]
	}
	t := &Thread{Prompt: prompt}
	s.index[prompt] = len(s.threads)
	s.threads = append(s.threads, t)
	return t
}

// Has reports whether a thread exists for the prompt.
func (s *ThreadSet) Has(prompt string) bool {
	_, ok := s.index[prompt]
	return ok
}

// Len returns the number of threads.
func (s *ThreadSet) Len() int {
	return len(s.threads)
}

// Threads returns the threads in insertion order. The slice is shared with
// the set; callers must not reorder it.
func (s *ThreadSet) Threads() []*Thread {
	return s.threads
}

// Validate runs the canonical-schema check over the whole set.
func (s *ThreadSet) Validate() error {
	for _, t := range s.threads {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Batch is one collated training batch: a mapping from field name to either
// a padded 2-D token matrix ([][]int) or the raw strings ([]string) passed
// through unpadded.
type Batch map[string]any

// Field-name suffixes that select the padding treatment, and the substring
// that selects left-aligned padding.
const (
	SuffixInputIDs      = "_input_ids"
	SuffixAttentionMask = "_attention_mask"
	SuffixLabels        = "_labels"

	PromptFieldMarker = "prompt"
)

// LabelMaskValue marks label positions excluded from the loss (the prompt
// span of chosen/rejected sequences).
const LabelMaskValue = -100
