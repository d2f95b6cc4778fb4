// Package batch turns canonical preference threads into padded training
// batches: per-example tokenization with truncation and label masking, a
// suffix-driven collator, and a deterministic resumable batch iterator.
package batch

import (
	"fmt"

	"github.com/prefdata/internal/tokenizer"
	"github.com/prefdata/pkg/models"
)

// TruncationMode selects which end of an over-length prompt survives.
type TruncationMode string

const (
	TruncKeepStart TruncationMode = "keep_start"
	TruncKeepEnd   TruncationMode = "keep_end"
)

// TruncationModeFor returns the truncation mode fixed for a corpus name:
// hh dialogues overflow at the front (long histories), everything else at
// the back.
func TruncationModeFor(corpus string) TruncationMode {
	if corpus == "hh" {
		return TruncKeepEnd
	}
	return TruncKeepStart
}

// TokenizeElement tokenizes one (prompt, chosen, rejected) triple into the
// field map consumed by the collator.
//
// The prompt is truncated first when prompt + the longer response exceeds
// maxLength; if that is not enough, both responses are cut to
// maxLength - maxPromptLength, keeping their start. Labels equal the input
// ids with the prompt span overwritten by the mask sentinel.
//
// Raw text that already tokenizes to the end-of-sequence id is rejected:
// the pipeline appends EOS itself and a stray one would corrupt the labels.
func TokenizeElement(tok tokenizer.Tokenizer, prompt, chosen, rejected string,
	mode TruncationMode, maxLength, maxPromptLength int) (map[string]any, error) {

	promptIDs, promptMask := tok.Encode(prompt)
	chosenIDs, chosenMask := tok.Encode(chosen)
	rejectedIDs, rejectedMask := tok.Encode(rejected)

	eos := tok.EOSID()
	if containsID(promptIDs, eos) {
		return nil, fmt.Errorf("prompt contains EOS token: %s", prompt)
	}
	if containsID(chosenIDs, eos) {
		return nil, fmt.Errorf("chosen response contains EOS token: %s", chosen)
	}
	if containsID(rejectedIDs, eos) {
		return nil, fmt.Errorf("rejected response contains EOS token: %s", rejected)
	}

	chosenIDs = append(chosenIDs, eos)
	chosenMask = append(chosenMask, 1)
	rejectedIDs = append(rejectedIDs, eos)
	rejectedMask = append(rejectedMask, 1)

	longer := len(chosenIDs)
	if len(rejectedIDs) > longer {
		longer = len(rejectedIDs)
	}

	// Combined sequence too long: truncate the prompt.
	if len(promptIDs)+longer > maxLength {
		switch mode {
		case TruncKeepStart:
			promptIDs = promptIDs[:min(len(promptIDs), maxPromptLength)]
			promptMask = promptMask[:min(len(promptMask), maxPromptLength)]
		case TruncKeepEnd:
			promptIDs = promptIDs[max(0, len(promptIDs)-maxPromptLength):]
			promptMask = promptMask[max(0, len(promptMask)-maxPromptLength):]
		default:
			return nil, fmt.Errorf("unknown truncation mode: %s", mode)
		}
	}

	// Still too long: truncate the responses, keeping their start. The
	// budget is clamped at zero so a prompt budget exceeding maxLength
	// yields empty responses rather than a negative slice bound.
	if len(promptIDs)+longer > maxLength {
		keep := max(0, maxLength-maxPromptLength)
		chosenIDs = chosenIDs[:min(len(chosenIDs), keep)]
		chosenMask = chosenMask[:min(len(chosenMask), keep)]
		rejectedIDs = rejectedIDs[:min(len(rejectedIDs), keep)]
		rejectedMask = rejectedMask[:min(len(rejectedMask), keep)]
	}

	chosenSeqIDs := concat(promptIDs, chosenIDs)
	chosenSeqMask := concat(promptMask, chosenMask)
	rejectedSeqIDs := concat(promptIDs, rejectedIDs)
	rejectedSeqMask := concat(promptMask, rejectedMask)

	element := map[string]any{
		"prompt":                 prompt,
		"chosen":                 prompt + chosen,
		"rejected":               prompt + rejected,
		"chosen_response_only":   chosen,
		"rejected_response_only": rejected,

		"prompt_input_ids":      promptIDs,
		"prompt_attention_mask": promptMask,

		"chosen_input_ids":      chosenSeqIDs,
		"chosen_attention_mask": chosenSeqMask,
		"chosen_labels":         maskedLabels(chosenSeqIDs, len(promptIDs)),

		"rejected_input_ids":      rejectedSeqIDs,
		"rejected_attention_mask": rejectedSeqMask,
		"rejected_labels":         maskedLabels(rejectedSeqIDs, len(promptIDs)),
	}
	return element, nil
}

// maskedLabels copies the input ids with the first promptLen positions
// replaced by the loss-mask sentinel.
func maskedLabels(ids []int, promptLen int) []int {
	labels := make([]int, len(ids))
	copy(labels, ids)
	for i := 0; i < promptLen && i < len(labels); i++ {
		labels[i] = models.LabelMaskValue
	}
	return labels
}

func concat(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
