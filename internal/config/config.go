package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type           string                `yaml:"type"`
	BatchSize      int                   `yaml:"batch_size"`
	QueryCacheSize int                   `yaml:"query_cache_size"`
	OpenAI         *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how narratives are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	MaxSize           int    `yaml:"max_size"`
	Overlap           int    `yaml:"overlap"`
	Lookahead         int    `yaml:"lookahead"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// FeedConfig describes how complaint records are read.
type FeedConfig struct {
	NarrativeFields    []string `yaml:"narrative_fields"`
	MinNarrativeLength int      `yaml:"min_narrative_length"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SQLiteConfig locates the on-disk vector index.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IndexConfig names the logical collection and its manifest.
type IndexConfig struct {
	Collection     string `yaml:"collection"`
	ManifestPath   string `yaml:"manifest_path"`
	WriteBatchSize int    `yaml:"write_batch_size"`
}

// RetrieverConfig configures nearest-neighbour lookups.
type RetrieverConfig struct {
	K int `yaml:"k"`
}

// Theme is a named group of keywords searched for in retrieved chunks.
type Theme struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// AnswererConfig configures the heuristic answer renderer.
type AnswererConfig struct {
	Themes          []Theme `yaml:"themes"`
	MaxThemes       int     `yaml:"max_themes"`
	MaxExcerpts     int     `yaml:"max_excerpts"`
	ExcerptWords    int     `yaml:"excerpt_words"`
	ExcerptChars    int     `yaml:"excerpt_chars"`
	DigestSentences int     `yaml:"digest_sentences"`
}

// CannedTopic is a fixed answer served when no index is available.
type CannedTopic struct {
	Match    string              `yaml:"match"`
	Answer   string              `yaml:"answer"`
	Chunks   []string            `yaml:"chunks"`
	Metadata []map[string]string `yaml:"metadata"`
}

// FallbackConfig holds the canned responses for degraded mode.
type FallbackConfig struct {
	Topics []CannedTopic `yaml:"topics"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Feed        FeedConfig        `yaml:"feed"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Index       IndexConfig       `yaml:"index"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	Answerer    AnswererConfig    `yaml:"answerer"`
	Fallback    FallbackConfig    `yaml:"fallback"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/complaintrag/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "complaintrag", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{Type: "tfidf"},
		Chunker:  ChunkerConfig{Type: "char"},
		VectorStore: VectorStoreConfig{
			Type:   "sqlite",
			SQLite: &SQLiteConfig{Path: filepath.Join("vector_store", "index.db")},
		},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 50
	}
	if cfg.Embedder.QueryCacheSize == 0 {
		cfg.Embedder.QueryCacheSize = 256
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.RequestsPerSecond == 0 {
			o.RequestsPerSecond = 5
		}
		if o.Burst == 0 {
			o.Burst = 1
		}
	}

	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "char"
	}
	if cfg.Chunker.MaxSize == 0 {
		cfg.Chunker.MaxSize = 500
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 50
	}
	if cfg.Chunker.Lookahead == 0 {
		cfg.Chunker.Lookahead = 100
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}

	if len(cfg.Feed.NarrativeFields) == 0 {
		cfg.Feed.NarrativeFields = []string{"cleaned_narrative", "Consumer complaint narrative", "narrative"}
	}
	if cfg.Feed.MinNarrativeLength == 0 {
		cfg.Feed.MinNarrativeLength = 20
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Type == "sqlite" && cfg.VectorStore.SQLite == nil {
		cfg.VectorStore.SQLite = &SQLiteConfig{Path: filepath.Join("vector_store", "index.db")}
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil && cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
		cfg.VectorStore.Qdrant.TimeoutSecs = 15
	}

	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "complaint_chunks"
	}
	if cfg.Index.ManifestPath == "" {
		cfg.Index.ManifestPath = filepath.Join("vector_store", "index_info.json")
	}
	if cfg.Index.WriteBatchSize == 0 {
		cfg.Index.WriteBatchSize = 500
	}

	if cfg.Retriever.K == 0 {
		cfg.Retriever.K = 3
	}

	if len(cfg.Answerer.Themes) == 0 {
		cfg.Answerer.Themes = DefaultThemes()
	}
	if cfg.Answerer.MaxThemes == 0 {
		cfg.Answerer.MaxThemes = 3
	}
	if cfg.Answerer.MaxExcerpts == 0 {
		cfg.Answerer.MaxExcerpts = 2
	}
	if cfg.Answerer.ExcerptWords == 0 {
		cfg.Answerer.ExcerptWords = 20
	}
	if cfg.Answerer.ExcerptChars == 0 {
		cfg.Answerer.ExcerptChars = 200
	}
	if cfg.Answerer.DigestSentences == 0 {
		cfg.Answerer.DigestSentences = 3
	}

	if len(cfg.Fallback.Topics) == 0 {
		cfg.Fallback.Topics = DefaultCannedTopics()
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
