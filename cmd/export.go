package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/prefdata/internal/batch"
)

// ExportCommand returns the export command
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Stream collated batches to a JSONL file",
		Flags: append(iterateFlags(),
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Output JSONL file path",
				Required: true,
			},
		),
		Action: runExport,
	}
}

func runExport(c *cli.Context) error {
	it, _, err := buildIterator(c)
	if err != nil {
		return err
	}

	out, err := os.Create(c.String("output"))
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	batches := 0
	for {
		b, err := it.Next()
		if errors.Is(err, batch.ErrExhausted) {
			break
		}
		if err != nil {
			return fmt.Errorf("iteration failed: %w", err)
		}
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("failed to write batch: %w", err)
		}
		batches++
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	log.Info().Int("batches", batches).Str("path", c.String("output")).Msg("export complete")
	return nil
}
