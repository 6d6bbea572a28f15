package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/domain"
	"github.com/sahraevent/venuesearch/internal/logger"
	"github.com/sahraevent/venuesearch/internal/metrics"
)

// Stage names.
const (
	StageExtractSlots = "extract_slots"
	StageRetrieve     = "retrieve"
	StageValidate     = "validate"
	StageCompose      = "compose"
)

// Fallback reasons reported in metrics.
const (
	reasonTimeout = "timeout"
	reasonError   = "error"
	reasonPanic   = "panic"
)

// Stage is one step of the workflow. Run must not mutate the input state in place.
type Stage struct {
	Name string
	Run  func(ctx context.Context, s State) State
}

// runStage executes st with a stage-scoped logger, records its duration and
// recovers panics by returning the input state unchanged.
func runStage(ctx context.Context, st Stage, in State) (out State) {
	ctx, log := logger.With(ctx, zap.String("stage", st.Name))
	start := time.Now()

	defer func() {
		metrics.StageDuration.WithLabelValues(st.Name).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			log.Error("Stage panicked", zap.Any("panic", r))
			metrics.StageFallbacksTotal.WithLabelValues(st.Name, reasonPanic).Inc()
			out = in
		}
	}()

	log.Debug("Stage started")
	out = st.Run(ctx, in)
	log.Debug("Stage finished", zap.Duration("duration", time.Since(start)))
	return out
}

// callWithTimeout runs fn in its own goroutine and waits at most timeout for it.
// A call that outlives its budget is abandoned and reported as domain.ErrTimeout.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("external call panicked: %v", r)}
			}
		}()
		v, err := fn(callCtx)
		ch <- outcome{val: v, err: err}
	}()

	select {
	case o := <-ch:
		return o.val, o.err
	case <-callCtx.Done():
		var zero T
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s", domain.ErrTimeout, timeout)
		}
		return zero, callCtx.Err()
	}
}

// fallbackReason classifies a failed external call for metrics.
func fallbackReason(err error) string {
	if errors.Is(err, domain.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return reasonTimeout
	}
	return reasonError
}
