package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

var _ Tokenizer = (*Tiktoken)(nil)

// Tiktoken wraps a tiktoken BPE encoding as a Tokenizer. GPT-style
// encodings have no distinct pad token, so the end-of-text id doubles as
// the pad id unless a caller overrides it.
type Tiktoken struct {
	enc   *tiktoken.Tiktoken
	padID int
	eosID int
}

// NewTiktoken loads the named encoding (e.g. "cl100k_base").
func NewTiktoken(encoding string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %s: %w", encoding, err)
	}
	eot := enc.Encode("<|endoftext|>", []string{"<|endoftext|>"}, nil)
	if len(eot) != 1 {
		return nil, fmt.Errorf("encoding %s does not expose a single end-of-text id", encoding)
	}
	return &Tiktoken{enc: enc, padID: eot[0], eosID: eot[0]}, nil
}

// SetPadID overrides the pad token id.
func (t *Tiktoken) SetPadID(id int) { t.padID = id }

// Encode implements Tokenizer. Special-token text is not allowed to slip
// through as special ids: everything is encoded as ordinary text.
func (t *Tiktoken) Encode(text string) ([]int, []int) {
	ids := t.enc.Encode(text, nil, nil)
	mask := make([]int, len(ids))
	for i := range mask {
		mask[i] = 1
	}
	return ids, mask
}

// PadID implements Tokenizer.
func (t *Tiktoken) PadID() int { return t.padID }

// EOSID implements Tokenizer.
func (t *Tiktoken) EOSID() int { return t.eosID }
