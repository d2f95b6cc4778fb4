package corpus

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/prefdata/pkg/models"
)

// Options controls corpus loading behavior shared by all adapters.
type Options struct {
	// Silent suppresses per-corpus progress logging.
	Silent bool
	// Sanitizer cleans raw response text where a corpus needs it (se).
	// Nil means passthrough.
	Sanitizer Sanitizer
}

func (o Options) sanitizer() Sanitizer {
	if o.Sanitizer == nil {
		return PassthroughSanitizer{}
	}
	return o.Sanitizer
}

// Load builds the canonical thread set for one corpus split. Unknown corpus
// names are a configuration error. The canonical schema is validated once
// per corpus before the set is returned; a violation is fatal to the caller,
// never skipped.
func Load(name, split string, src RowSource, opts Options) (*models.ThreadSet, error) {
	if !opts.Silent {
		log.Info().Str("corpus", name).Str("split", split).Msg("loading corpus")
	}

	var (
		set *models.ThreadSet
		err error
	)
	switch name {
	case "hh":
		set, err = loadHH(src, split, opts)
	case "shp":
		set, err = loadSHP(src, split, opts)
	case "se":
		set, err = loadSE(src, split, opts)
	case "oa":
		// The OA dump has no "test" split; it aliases to validation.
		if split == "test" {
			split = "validation"
		}
		set, err = loadOA(src, split, opts)
	default:
		return nil, fmt.Errorf("unknown corpus %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus %s: %w", name, err)
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("corpus %s produced invalid threads: %w", name, err)
	}

	if !opts.Silent {
		log.Info().Str("corpus", name).Int("threads", set.Len()).Msg("corpus loaded")
	}
	return set, nil
}
