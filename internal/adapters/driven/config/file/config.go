// Package file provides TOML-backed configuration loading for the docquery
// config directory.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

// ConfigFileName is the configuration file inside the config directory.
const ConfigFileName = "config.toml"

// DefaultConfigDirName is the directory under the user's home.
const DefaultConfigDirName = ".docquery"

// Environment variables consulted for secrets. Keys never live in the
// config file.
const (
	EnvOpenAIAPIKey       = "OPENAI_API_KEY"
	EnvUnstructuredAPIKey = "UNSTRUCTURED_API_KEY"
)

// Config is the typed application configuration.
type Config struct {
	Chunking ChunkingConfig `toml:"chunking"`
	OpenAI   OpenAIConfig   `toml:"openai"`
	Parser   ParserConfig   `toml:"parser"`
	Index    IndexConfig    `toml:"index"`
	Ask      AskConfig      `toml:"ask"`
}

// ChunkingConfig controls the title-bounded chunker.
type ChunkingConfig struct {
	MaxCharacters          int `toml:"max_characters"`
	NewAfterNChars         int `toml:"new_after_n_chars"`
	CombineTextUnderNChars int `toml:"combine_text_under_n_chars"`
	OverlapChars           int `toml:"overlap_chars"`
}

// OpenAIConfig selects the embedding and completion models. The API key
// comes from the environment, never from this file.
type OpenAIConfig struct {
	BaseURL        string `toml:"base_url"`
	EmbeddingModel string `toml:"embedding_model"`
	ChatModel      string `toml:"chat_model"`
}

// ParserConfig points at the partition API.
type ParserConfig struct {
	BaseURL  string `toml:"base_url"`
	Strategy string `toml:"strategy"`
	Workers  int    `toml:"workers"`
}

// IndexConfig locates the persisted index.
type IndexConfig struct {
	DataDir string `toml:"data_dir"`
}

// AskConfig controls retrieval.
type AskConfig struct {
	TopK int `toml:"top_k"`
}

// DefaultConfigDir returns ~/.docquery.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDirName), nil
}

// Default returns the configuration used when no file exists. The data
// directory is left empty here and resolved against the config directory
// by Load.
func Default() Config {
	return Config{
		Chunking: ChunkingConfig{
			MaxCharacters:          1000,
			NewAfterNChars:         800,
			CombineTextUnderNChars: 200,
			OverlapChars:           50,
		},
		OpenAI: OpenAIConfig{
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-3.5-turbo",
		},
		Parser: ParserConfig{
			Strategy: string(domain.StrategyAuto),
		},
		Ask: AskConfig{
			TopK: 3,
		},
	}
}

// Load reads configDir/config.toml over the defaults. A missing file is not
// an error; a malformed one is. If configDir is empty, ~/.docquery is used.
func Load(configDir string) (Config, error) {
	cfg := Default()

	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return cfg, err
		}
		configDir = dir
	}

	path := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults apply.
	case err != nil:
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if cfg.Index.DataDir == "" {
		cfg.Index.DataDir = filepath.Join(configDir, "data")
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to configDir/config.toml, creating the
// directory if needed.
func Save(configDir string, cfg Config) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// Restricted permissions, same as the rest of the config directory.
	return os.WriteFile(filepath.Join(configDir, ConfigFileName), data, 0600)
}

// OpenAIAPIKey returns the embedding/completion API key from the environment.
func OpenAIAPIKey() string {
	return os.Getenv(EnvOpenAIAPIKey)
}

// UnstructuredAPIKey returns the partition API key from the environment.
func UnstructuredAPIKey() string {
	return os.Getenv(EnvUnstructuredAPIKey)
}

func (c Config) validate() error {
	if !domain.PartitionStrategy(c.Parser.Strategy).Valid() {
		return fmt.Errorf("unknown parser strategy %q", c.Parser.Strategy)
	}
	if c.Ask.TopK <= 0 {
		return fmt.Errorf("ask top_k must be positive, got %d", c.Ask.TopK)
	}
	return nil
}
