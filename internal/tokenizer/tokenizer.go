// Package tokenizer defines the text tokenization collaborator used by the
// batching pipeline. The pipeline never inspects token ids beyond equality
// with the special ids exposed here; how text maps to ids belongs to the
// implementation.
package tokenizer

// Tokenizer converts text into token ids without inserting special tokens,
// and exposes the two special ids the pipeline needs: the pad id used to
// fill batches and the end-of-sequence id appended to responses.
//
// Implementations are treated as read-only collaborators; sequential calls
// from a single iterator are the only access pattern guaranteed safe.
type Tokenizer interface {
	// Encode tokenizes text with no automatic special tokens. The returned
	// attention mask is the same length as the ids, all ones.
	Encode(text string) (ids []int, attentionMask []int)

	// PadID returns the padding token id.
	PadID() int

	// EOSID returns the end-of-sequence token id.
	EOSID() int
}
