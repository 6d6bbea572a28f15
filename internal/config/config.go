package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the venuesearch service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Reranker  RerankerConfig  `yaml:"reranker"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the offer store settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // sqlite file
}

// CacheConfig holds cache sizes and the optional shared answer tier.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	AnswerTTLSec     int      `yaml:"answer_ttl_sec"`
	AnswerCapacity   int      `yaml:"answer_capacity"`
	ResultTTLSec     int      `yaml:"result_ttl_sec"`
	ResultCapacity   int      `yaml:"result_capacity"`
	QueryTTLSec      int      `yaml:"query_embedding_ttl_sec"`
	QueryCapacity    int      `yaml:"query_embedding_capacity"`
}

// LLMConfig holds the completion provider and the model per tier.
type LLMConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	SmallModel string `yaml:"small_model"`
	MidModel   string `yaml:"mid_model"`
	LargeModel string `yaml:"large_model"`
}

// EmbeddingConfig holds the dense index embedding settings.
type EmbeddingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	APIKey      string `yaml:"api_key"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	Instruction string `yaml:"instruction"`   // prefix applied to both offers and queries
	CacheTTLSec int    `yaml:"cache_ttl_sec"` // shared vector cache, redis driver only
}

// RetrievalConfig tunes hybrid retrieval.
type RetrievalConfig struct {
	ANNTopK        int     `yaml:"ann_top_k"`
	BM25TopK       int     `yaml:"bm25_top_k"`
	RRFK           int     `yaml:"rrf_k"`
	KeepTopN       int     `yaml:"keep_top_n"`
	ContextTopN    int     `yaml:"context_top_n"`
	AmbiguityDelta float64 `yaml:"ambiguity_delta"`
	UseReranker    bool    `yaml:"use_reranker"`
}

// PipelineConfig tunes the search workflow.
type PipelineConfig struct {
	ToolTimeoutSec int    `yaml:"tool_timeout_sec"`
	Currency       string `yaml:"currency"`
}

// RerankerConfig holds the cross-encoder service settings.
type RerankerConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// IngestConfig lists the CSV files loaded at startup.
type IngestConfig struct {
	ReseedOnStart bool   `yaml:"reseed_on_start"`
	StablePath    string `yaml:"stable_path"`
	HotPath       string `yaml:"hot_path"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/venuesearch.db"
	}
	c.applyCacheDefaults()
	if c.LLM.SmallModel == "" {
		c.LLM.SmallModel = "gpt-4o-mini"
	}
	if c.LLM.MidModel == "" {
		c.LLM.MidModel = "gpt-4o-mini"
	}
	if c.LLM.LargeModel == "" {
		c.LLM.LargeModel = "gpt-4o"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.CacheTTLSec == 0 {
		c.Embedding.CacheTTLSec = 604800
	}
	c.applyRetrievalDefaults()
	if c.Pipeline.ToolTimeoutSec <= 0 {
		c.Pipeline.ToolTimeoutSec = 30
	}
	if c.Pipeline.Currency == "" {
		c.Pipeline.Currency = "AED"
	}
	if c.Reranker.TimeoutSec <= 0 {
		c.Reranker.TimeoutSec = 10
	}
}

func (c *Config) applyCacheDefaults() {
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.AnswerTTLSec <= 0 {
		c.Cache.AnswerTTLSec = 86400
	}
	if c.Cache.AnswerCapacity <= 0 {
		c.Cache.AnswerCapacity = 256
	}
	if c.Cache.ResultTTLSec <= 0 {
		c.Cache.ResultTTLSec = 21600
	}
	if c.Cache.ResultCapacity <= 0 {
		c.Cache.ResultCapacity = 512
	}
	if c.Cache.QueryTTLSec <= 0 {
		c.Cache.QueryTTLSec = 86400
	}
	if c.Cache.QueryCapacity <= 0 {
		c.Cache.QueryCapacity = 1024
	}
}

func (c *Config) applyRetrievalDefaults() {
	if c.Retrieval.ANNTopK <= 0 {
		c.Retrieval.ANNTopK = 24
	}
	if c.Retrieval.BM25TopK <= 0 {
		c.Retrieval.BM25TopK = 24
	}
	if c.Retrieval.RRFK <= 0 {
		c.Retrieval.RRFK = 60
	}
	if c.Retrieval.KeepTopN <= 0 {
		c.Retrieval.KeepTopN = 15
	}
	if c.Retrieval.ContextTopN <= 0 {
		c.Retrieval.ContextTopN = 3
	}
	if c.Retrieval.AmbiguityDelta <= 0 {
		c.Retrieval.AmbiguityDelta = 0.06
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be \"memory\" or \"redis\", got %q", c.Cache.Driver)
	}
	if c.Embedding.Enabled && c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Retrieval.UseReranker && c.Reranker.BaseURL == "" {
		return fmt.Errorf("reranker.base_url is required when retrieval.use_reranker is set")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
