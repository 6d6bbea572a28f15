package venuesearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dbPath string

	apiKey    string
	baseURL   string
	completer Completer
	small     string
	mid       string
	large     string

	embedder Embedder

	redisAddr     string
	redisPassword string

	rerankURL   string
	rerankModel string

	callTimeout time.Duration
	currency    string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithSQLite sets the offer database file. Required.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dbPath = path
	})
}

// WithOpenAI uses an OpenAI-compatible endpoint for slot extraction and
// answer composition. An empty baseURL means the public API.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
	})
}

// WithCompleter sets a custom completion provider. It takes precedence over WithOpenAI.
func WithCompleter(cmp Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cmp
	})
}

// WithModels sets the model per tier: small for extraction, mid for
// composition, large for anything else.
// Defaults: gpt-4o-mini, gpt-4o-mini, gpt-4o.
func WithModels(small, mid, large string) Option {
	return optionFunc(func(c *clientConfig) {
		c.small, c.mid, c.large = small, mid, large
	})
}

// WithEmbedder enables the dense indexes.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithRedis shares composed answers through a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddr = addr
		c.redisPassword = password
	})
}

// WithReranker enables cross-encoder reranking of ambiguous results.
func WithReranker(baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.rerankURL = baseURL
		c.rerankModel = model
	})
}

// WithCallTimeout bounds every external call. Default: 30s.
func WithCallTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.callTimeout = d
	})
}

// WithCurrency sets the currency used in prompts and answers. Default: AED.
func WithCurrency(code string) Option {
	return optionFunc(func(c *clientConfig) {
		c.currency = code
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
