package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/prefdata/internal/config"
	"github.com/prefdata/internal/corpus"
	"github.com/prefdata/pkg/models"
)

// StatsCommand returns the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Load corpora and print canonical thread statistics",
		Flags: []cli.Flag{
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
			&cli.BoolFlag{
				Name:  "near-duplicates",
				Usage: "Also count response pairs that differ only by spacing",
			},
		},
		Action: runStats,
	}
}

func runStats(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	names := cfg.Iterate.Corpora
	if override := c.StringSlice("corpus"); len(override) > 0 {
		names = override
	}
	split := cfg.Iterate.Split
	if override := c.String("split"); override != "" {
		split = override
	}

	src := &corpus.FileSource{Dir: cfg.General.CacheDir}
	opts := corpus.Options{Silent: cfg.General.Quiet || c.Bool("quiet")}

	for _, name := range names {
		set, err := corpus.Load(name, split, src, opts)
		if err != nil {
			return err
		}

		threads := set.Len()
		responses, pairs := 0, 0
		for _, t := range set.Threads() {
			responses += len(t.Responses)
			pairs += len(t.Pairs)
		}
		fmt.Printf("%s (%s): %d threads, %d responses, %d pairs\n",
			name, split, threads, responses, pairs)

		if c.Bool("near-duplicates") {
			fmt.Printf("%s (%s): %d near-duplicate response pairs\n",
				name, split, countNearDuplicates(set))
		}
	}
	return nil
}

// countNearDuplicates counts, per thread, response pairs that match once
// spacing differences are ignored. Upstream re-encoding sometimes yields
// the same answer twice with drifted whitespace.
func countNearDuplicates(set *models.ThreadSet) int {
	count := 0
	for _, t := range set.Threads() {
		for i := 0; i < len(t.Responses); i++ {
			for j := i + 1; j < len(t.Responses); j++ {
				if corpus.StringsMatchUpToSpaces(t.Responses[i], t.Responses[j]) {
					count++
				}
			}
		}
	}
	return count
}
