package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/domain"
	"github.com/sahraevent/venuesearch/internal/domain/search/filter"
	"github.com/sahraevent/venuesearch/internal/domain/slots"
	"github.com/sahraevent/venuesearch/internal/logger"
	"github.com/sahraevent/venuesearch/internal/metrics"
)

// Search outcomes reported in metrics.
const (
	outcomeAnswered  = "answered"
	outcomeNoResults = "no_results"
	outcomeApology   = "apology"
	outcomeNotReady  = "not_ready"
)

// Config tunes the pipeline.
type Config struct {
	CallTimeout time.Duration
	Currency    string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{CallTimeout: 30 * time.Second, Currency: "AED"}
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the clock used for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline runs extract_slots, retrieve, validate and compose in order.
type Pipeline struct {
	ready     Readiness
	retriever Retriever
	llm       Completer
	answers   AnswerCache
	cfg       Config
	now       func() time.Time
	stages    []Stage
}

// New creates a pipeline. Zero config fields take their defaults.
func New(ready Readiness, retriever Retriever, llm Completer, answers AnswerCache, cfg Config, opts ...Option) *Pipeline {
	def := DefaultConfig()
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	if cfg.Currency == "" {
		cfg.Currency = def.Currency
	}

	p := &Pipeline{
		ready:     ready,
		retriever: retriever,
		llm:       llm,
		answers:   answers,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.stages = []Stage{
		{Name: StageExtractSlots, Run: p.extractSlots},
		{Name: StageRetrieve, Run: p.retrieve},
		{Name: StageValidate, Run: p.validate},
		{Name: StageCompose, Run: p.compose},
	}
	return p
}

// Search answers a free-text venue query. Stage failures degrade to fallbacks;
// the only error is domain.ErrIndexNotBuilt, returned before any stage runs.
func (p *Pipeline) Search(ctx context.Context, query string, applied filter.Applied) (Result, error) {
	if !p.ready.Ready() {
		metrics.SearchesTotal.WithLabelValues(outcomeNotReady).Inc()
		return Result{}, fmt.Errorf("search: %w", domain.ErrIndexNotBuilt)
	}

	runID := newRunID()
	ctx, log := logger.With(ctx, zap.String("run_id", runID))
	start := time.Now()

	s := State{RunID: runID, Query: query, Applied: applied}
	for _, st := range p.stages {
		s = runStage(ctx, st, s)
	}

	outcome := outcomeAnswered
	switch {
	case s.Answer == "":
		s.Answer = genericApology
		outcome = outcomeApology
	case len(s.Docs) == 0:
		outcome = outcomeNoResults
	}
	if s.Slots.Intent == "" {
		s.Slots = slots.FromApplied(applied)
	}
	metrics.SearchesTotal.WithLabelValues(outcome).Inc()

	log.Info("Search finished",
		zap.String("outcome", outcome),
		zap.Int("docs", len(s.Docs)),
		zap.Duration("duration", time.Since(start)),
	)
	return s.result(), nil
}

// newRunID returns a time-ordered UUIDv7, or a random UUID if the clock source fails.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
