package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/prefdata/internal/config"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "prefdata.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: runConfigValidate,
			},
			{
				Name:   "show",
				Usage:  "Print the effective iteration settings",
				Action: runConfigShow,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	configPath := c.String("config")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println("Configuration is valid")
	return nil
}

// runConfigShow prints the settings the iterate command would run with
// after defaults, file, and environment are merged.
func runConfigShow(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("cache dir:         %s\n", cfg.General.CacheDir)
	fmt.Printf("corpora:           %s\n", strings.Join(cfg.Iterate.Corpora, ", "))
	fmt.Printf("split:             %s\n", cfg.Iterate.Split)
	fmt.Printf("batch size:        %d\n", cfg.Iterate.BatchSize)
	fmt.Printf("shuffle:           %t\n", cfg.Iterate.Shuffle)
	fmt.Printf("max length:        %d\n", cfg.Iterate.MaxLength)
	fmt.Printf("max prompt length: %d\n", cfg.Iterate.MaxPromptLength)
	fmt.Printf("sft mode:          %t\n", cfg.Iterate.SFTMode)
	fmt.Printf("epochs:            %d\n", cfg.Iterate.Epochs)
	fmt.Printf("examples:          %d\n", cfg.Iterate.Examples)
	fmt.Printf("resume offset:     %d\n", cfg.Iterate.ResumeOffset)
	fmt.Printf("seed:              %d\n", cfg.Iterate.Seed)
	fmt.Printf("encoding:          %s\n", cfg.Tokenizer.Encoding)
	return nil
}
