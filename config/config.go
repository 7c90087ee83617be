// Package config holds the typed configuration for a vecstore binary.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hubenschmidt/go-vecstore/core"
)

// Embedder providers.
const (
	ProviderHash   = "hash"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config configures a store, its embedder, and the surrounding layers.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Server   ServerConfig   `yaml:"server"`
	Rerank   RerankConfig   `yaml:"rerank"`
}

// StoreConfig locates the persisted files and sets chunking defaults.
// IndexPath and MetadataPath override Dir when set; otherwise the two
// companion files live under Dir with their default names.
type StoreConfig struct {
	Dir          string `yaml:"dir"`
	IndexPath    string `yaml:"index_path"`
	MetadataPath string `yaml:"metadata_path"`
	ChunkSize    int    `yaml:"chunk_size_words"`
	ChunkOverlap int    `yaml:"chunk_overlap_words"`
	DefaultTopK  int    `yaml:"default_top_k"`
	Metric       string `yaml:"metric"`
}

type EmbedderConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"` // hash provider only
}

type CatalogConfig struct {
	DSN string `yaml:"dsn"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type RerankConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default file names inside the store directory, matching the layout
// this store has always used on disk.
const (
	DefaultIndexFile    = "faiss.index"
	DefaultMetadataFile = "metadata.json"
)

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Dir:          ".",
			ChunkSize:    500,
			ChunkOverlap: 50,
			DefaultTopK:  3,
			Metric:       "l2",
		},
		Embedder: EmbedderConfig{
			Provider: ProviderHash,
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
	}
}

// LoadFile reads a YAML config file over the defaults. Unknown fields
// are rejected so a typo fails loudly instead of being ignored.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w: %w", path, core.ErrIO, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w: %w", path, core.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// FromEnv applies environment overrides on top of cfg.
func FromEnv(cfg Config) Config {
	cfg.Store.Dir = getEnvOr("VECSTORE_DIR", cfg.Store.Dir)
	cfg.Store.Metric = getEnvOr("VECSTORE_METRIC", cfg.Store.Metric)
	cfg.Store.ChunkSize = getEnvIntOr("VECSTORE_CHUNK_SIZE", cfg.Store.ChunkSize)
	cfg.Store.ChunkOverlap = getEnvIntOr("VECSTORE_CHUNK_OVERLAP", cfg.Store.ChunkOverlap)
	cfg.Store.DefaultTopK = getEnvIntOr("VECSTORE_TOP_K", cfg.Store.DefaultTopK)
	cfg.Embedder.Provider = getEnvOr("VECSTORE_EMBED_PROVIDER", cfg.Embedder.Provider)
	cfg.Embedder.Model = getEnvOr("VECSTORE_EMBED_MODEL", cfg.Embedder.Model)
	cfg.Embedder.BaseURL = getEnvOr("VECSTORE_EMBED_URL", cfg.Embedder.BaseURL)
	cfg.Catalog.DSN = getEnvOr("VECSTORE_CATALOG_DSN", cfg.Catalog.DSN)
	cfg.Server.Addr = getEnvOr("VECSTORE_ADDR", cfg.Server.Addr)
	return cfg
}

// Validate checks the parts of the config a store cannot construct
// from.
func (c Config) Validate() error {
	if c.Store.ChunkSize <= 0 {
		return fmt.Errorf("chunk size %d: %w", c.Store.ChunkSize, core.ErrInvalidConfig)
	}
	if c.Store.ChunkOverlap < 0 || c.Store.ChunkOverlap >= c.Store.ChunkSize {
		return fmt.Errorf("chunk overlap %d for size %d: %w",
			c.Store.ChunkOverlap, c.Store.ChunkSize, core.ErrInvalidConfig)
	}
	if c.Store.DefaultTopK <= 0 {
		return fmt.Errorf("default top_k %d: %w", c.Store.DefaultTopK, core.ErrInvalidConfig)
	}
	switch c.Embedder.Provider {
	case ProviderHash, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("embedder provider %q: %w", c.Embedder.Provider, core.ErrInvalidConfig)
	}
	if c.Embedder.Provider != ProviderHash && c.Embedder.Model == "" {
		return fmt.Errorf("embedder provider %q requires a model: %w", c.Embedder.Provider, core.ErrInvalidConfig)
	}
	return nil
}

// ResolvedIndexPath resolves the index file location.
func (c StoreConfig) ResolvedIndexPath() string {
	if c.IndexPath != "" {
		return c.IndexPath
	}
	return filepath.Join(c.Dir, DefaultIndexFile)
}

// ResolvedMetadataPath resolves the metadata file location.
func (c StoreConfig) ResolvedMetadataPath() string {
	if c.MetadataPath != "" {
		return c.MetadataPath
	}
	return filepath.Join(c.Dir, DefaultMetadataFile)
}

// APIKey reads the configured API key environment variable.
func (c EmbedderConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return os.Getenv("OPENAI_API_KEY")
	}
	return os.Getenv(c.APIKeyEnv)
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
