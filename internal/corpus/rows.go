package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RowSource supplies the ordered raw rows of a corpus split. Retrieval and
// caching of the rows (remote downloads, local caches) live behind this
// interface; the adapters only see rows that are already local and ordered.
// Tree-shaped corpora additionally require that every message's descendants
// appear contiguously after it; the source is trusted, not verified.
type RowSource interface {
	Rows(corpus, split string) ([]json.RawMessage, error)
}

// Sanitizer cleans raw response text (e.g. HTML stripping for StackExchange
// answers). The actual markup handling is an external collaborator; the
// default keeps text as-is.
type Sanitizer interface {
	Clean(text string) string
}

// PassthroughSanitizer returns text unchanged.
type PassthroughSanitizer struct{}

// Clean implements Sanitizer.
func (PassthroughSanitizer) Clean(text string) string { return text }

// FileSource reads corpus rows from JSONL files named <corpus>_<split>.jsonl
// under a cache directory.
type FileSource struct {
	Dir string
}

// Rows implements RowSource.
func (s *FileSource) Rows(corpus, split string) ([]json.RawMessage, error) {
	path := filepath.Join(s.Dir, fmt.Sprintf("%s_%s.jsonl", corpus, split))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	defer f.Close()

	var rows []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		row := make(json.RawMessage, len(line))
		copy(row, line)
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus file %s: %w", path, err)
	}
	return rows, nil
}

// Row schemas per corpus. The field names follow the upstream dumps.

type hhRow struct {
	Chosen   string `json:"chosen"`
	Rejected string `json:"rejected"`
}

type shpRow struct {
	History   string  `json:"history"`
	HumanRefA string  `json:"human_ref_A"`
	HumanRefB string  `json:"human_ref_B"`
	ScoreA    float64 `json:"score_A"`
	ScoreB    float64 `json:"score_B"`
	Labels    int     `json:"labels"`
}

type seAnswer struct {
	Text    string  `json:"text"`
	PMScore float64 `json:"pm_score"`
}

type seRow struct {
	Question string     `json:"question"`
	Answers  []seAnswer `json:"answers"`
}

type oaRow struct {
	MessageID    string  `json:"message_id"`
	ParentID     *string `json:"parent_id"`
	Role         string  `json:"role"`
	Text         string  `json:"text"`
	Deleted      bool    `json:"deleted"`
	ReviewResult bool    `json:"review_result"`
	Rank         *int    `json:"rank"`
}
