package cmd

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/prefdata/internal/batch"
	"github.com/prefdata/internal/config"
	"github.com/prefdata/internal/corpus"
	"github.com/prefdata/internal/tokenizer"
)

// IterateCommand returns the iterate command
func IterateCommand() *cli.Command {
	return &cli.Command{
		Name:  "iterate",
		Usage: "Run the batch iterator over the configured corpora and report throughput",
		Flags: append(iterateFlags(),
			&cli.IntFlag{
				Name:  "max-batches",
				Usage: "Stop after this many batches regardless of the configured limits",
			},
		),
		Action: runIterate,
	}
}

// iterateFlags are the overrides shared by the iterate and export commands.
func iterateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "corpus",
			Aliases: []string{"n"},
			Usage:   "Corpus name to load (repeatable; overrides config)",
		},
		&cli.StringFlag{
			Name:    "split",
			Aliases: []string{"s"},
			Usage:   "Corpus split to use",
		},
		&cli.IntFlag{
			Name:    "batch-size",
			Aliases: []string{"b"},
			Usage:   "Examples per batch",
		},
		&cli.IntFlag{
			Name:  "epochs",
			Usage: "Stop after this many full epochs",
		},
		&cli.IntFlag{
			Name:  "examples",
			Usage: "Stop after this many examples",
		},
		&cli.IntFlag{
			Name:  "resume-offset",
			Usage: "Examples already completed by a previous run",
		},
		&cli.Int64Flag{
			Name:  "seed",
			Usage: "Shuffle seed",
		},
		&cli.BoolFlag{
			Name:  "sft",
			Usage: "SFT mode: tokenize only the supervised target",
		},
		&cli.BoolFlag{
			Name:  "no-shuffle",
			Usage: "Disable per-epoch shuffling",
		},
	}
}

// buildIterator assembles a batch iterator from the config file plus any
// command-line overrides.
func buildIterator(c *cli.Context) (*batch.Iterator, *config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if names := c.StringSlice("corpus"); len(names) > 0 {
		cfg.Iterate.Corpora = names
	}
	if split := c.String("split"); split != "" {
		cfg.Iterate.Split = split
	}
	if c.IsSet("batch-size") {
		cfg.Iterate.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("epochs") {
		cfg.Iterate.Epochs = c.Int("epochs")
	}
	if c.IsSet("examples") {
		cfg.Iterate.Examples = c.Int("examples")
	}
	if c.IsSet("resume-offset") {
		cfg.Iterate.ResumeOffset = c.Int("resume-offset")
	}
	if c.IsSet("seed") {
		cfg.Iterate.Seed = c.Int64("seed")
	}
	if c.Bool("sft") {
		cfg.Iterate.SFTMode = true
	}
	if c.Bool("no-shuffle") {
		cfg.Iterate.Shuffle = false
	}
	if c.Bool("quiet") {
		cfg.General.Quiet = true
	}

	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tok, err := tokenizer.NewTiktoken(cfg.Tokenizer.Encoding)
	if err != nil {
		return nil, nil, err
	}

	it, err := batch.New(tok, batch.Options{
		Corpora:         cfg.Iterate.Corpora,
		Split:           cfg.Iterate.Split,
		Source:          &corpus.FileSource{Dir: cfg.General.CacheDir},
		BatchSize:       cfg.Iterate.BatchSize,
		Shuffle:         cfg.Iterate.Shuffle,
		MaxLength:       cfg.Iterate.MaxLength,
		MaxPromptLength: cfg.Iterate.MaxPromptLength,
		SFTMode:         cfg.Iterate.SFTMode,
		Epochs:          cfg.Iterate.Epochs,
		Examples:        cfg.Iterate.Examples,
		ResumeOffset:    cfg.Iterate.ResumeOffset,
		Seed:            cfg.Iterate.Seed,
		Silent:          cfg.General.Quiet,
	})
	if err != nil {
		return nil, nil, err
	}
	return it, cfg, nil
}

func runIterate(c *cli.Context) error {
	runID := uuid.NewString()[:8]
	logger := log.With().Str("run", runID).Logger()

	it, cfg, err := buildIterator(c)
	if err != nil {
		return err
	}

	maxBatches := c.Int("max-batches")
	batches, examples := 0, 0
	for {
		b, err := it.Next()
		if errors.Is(err, batch.ErrExhausted) {
			break
		}
		if err != nil {
			return fmt.Errorf("iteration failed: %w", err)
		}
		batches++
		if prompts, ok := b["prompt"].([]string); ok {
			examples += len(prompts)
		}
		if maxBatches > 0 && batches >= maxBatches {
			break
		}
	}

	logger.Info().
		Int("batches", batches).
		Int("examples", examples).
		Str("split", cfg.Iterate.Split).
		Msg("iteration complete")
	return nil
}
