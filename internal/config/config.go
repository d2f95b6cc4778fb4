package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	General struct {
		CacheDir string `koanf:"cache_dir"`
		Quiet    bool   `koanf:"quiet"`
	} `koanf:"general"`

	Iterate struct {
		Corpora         []string `koanf:"corpora"`
		Split           string   `koanf:"split"`
		BatchSize       int      `koanf:"batch_size"`
		Shuffle         bool     `koanf:"shuffle"`
		MaxLength       int      `koanf:"max_length"`
		MaxPromptLength int      `koanf:"max_prompt_length"`
		SFTMode         bool     `koanf:"sft_mode"`
		Epochs          int      `koanf:"epochs"`
		Examples        int      `koanf:"examples"`
		ResumeOffset    int      `koanf:"resume_offset"`
		Seed            int64    `koanf:"seed"`
	} `koanf:"iterate"`

	Tokenizer struct {
		Encoding string `koanf:"encoding"`
	} `koanf:"tokenizer"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"general.cache_dir":         "./pdata",
		"iterate.split":             "train",
		"iterate.batch_size":        1,
		"iterate.shuffle":           true,
		"iterate.max_length":        512,
		"iterate.max_prompt_length": 128,
		"tokenizer.encoding":        "cl100k_base",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./pdata/prefdata.toml", "./prefdata.toml", "$HOME/.prefdata.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix PREFDATA_. Only the
	// first underscore separates section from key; the rest stay as-is
	// so snake_case keys like max_length resolve.
	k.Load(env.Provider("PREFDATA_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "PREFDATA_"))
		return strings.Replace(s, "_", ".", 1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# prefdata configuration

[general]
cache_dir = "./pdata"
quiet = false

[iterate]
corpora = ["hh"]
split = "train"
batch_size = 4
shuffle = true
max_length = 512
max_prompt_length = 128
sft_mode = false
epochs = 1
seed = 0

[tokenizer]
encoding = "cl100k_base"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.General.CacheDir == "" {
		return fmt.Errorf("cache directory is required")
	}

	if len(config.Iterate.Corpora) == 0 {
		return fmt.Errorf("at least one corpus is required")
	}

	if config.Iterate.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	if config.Iterate.MaxPromptLength > config.Iterate.MaxLength {
		return fmt.Errorf("max prompt length cannot exceed max length")
	}

	if config.Tokenizer.Encoding == "" {
		return fmt.Errorf("tokenizer encoding is required")
	}

	return nil
}
