package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/logger"
	"github.com/sahraevent/venuesearch/internal/metrics"
)

// completer is the consumer interface for a chat provider (ISP).
type completer interface {
	Complete(ctx context.Context, model, system, user string) (string, error)
}

// InstrumentedCompleter routes a task to its model and records logs and metrics.
type InstrumentedCompleter struct {
	inner  completer
	router Router
}

// NewInstrumentedCompleter wraps a provider with routing and observability.
func NewInstrumentedCompleter(inner completer, router Router) *InstrumentedCompleter {
	return &InstrumentedCompleter{inner: inner, router: router}
}

// Complete runs task on its routed model.
func (c *InstrumentedCompleter) Complete(ctx context.Context, task Task, system, user string) (string, error) {
	model := c.router.ModelFor(task)
	log := logger.FromContext(ctx).With(zap.String("task", string(task)), zap.String("model", model))

	start := time.Now()
	out, err := c.inner.Complete(ctx, model, system, user)
	duration := time.Since(start)

	metrics.LLMRequestDuration.WithLabelValues(string(task), model).Observe(duration.Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(string(task), model, "error").Inc()
		log.Warn("Completion failed", zap.Duration("duration", duration), zap.Error(err))
		return "", fmt.Errorf("complete %s: %w", task, err)
	}

	metrics.LLMRequestsTotal.WithLabelValues(string(task), model, "success").Inc()
	log.Debug("Completion finished", zap.Duration("duration", duration), zap.Int("chars", len(out)))
	return out, nil
}
