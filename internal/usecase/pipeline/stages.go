package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/cache"
	"github.com/sahraevent/venuesearch/internal/domain"
	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/domain/slots"
	"github.com/sahraevent/venuesearch/internal/domain/validation"
	"github.com/sahraevent/venuesearch/internal/logger"
	"github.com/sahraevent/venuesearch/internal/metrics"
	"github.com/sahraevent/venuesearch/internal/usecase/llm"
)

// Result set sizes that drive the follow-up questions.
const (
	tooManyResults = 5
	factsTopN      = 3
	staleTopN      = 3
)

// candidate is the per-document fact block handed to the composer.
type candidate struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	City         string  `json:"city"`
	PriceMin     float64 `json:"price_min"`
	PriceMax     float64 `json:"price_max"`
	HeadcountMin int     `json:"headcount_min"`
	HeadcountMax int     `json:"headcount_max"`
	Snippet      string  `json:"snippet"`
	UpdatedAt    string  `json:"updated_at"`

	stale bool
}

type facts struct {
	Slots      slots.Slots `json:"slots"`
	Candidates []candidate `json:"candidates"`
}

// extractSlots asks the small model for structured criteria. Applied filters
// always win over extracted values.
func (p *Pipeline) extractSlots(ctx context.Context, s State) State {
	log := logger.FromContext(ctx)
	prompt := slotPrompt(s.Query, s.Applied, p.cfg.Currency)

	out, err := callWithTimeout(ctx, p.cfg.CallTimeout, func(ctx context.Context) (string, error) {
		return p.llm.Complete(ctx, llm.TaskSlots, "", prompt)
	})
	if err != nil {
		log.Warn("Slot extraction failed, using applied filters", zap.Error(err))
		metrics.StageFallbacksTotal.WithLabelValues(StageExtractSlots, fallbackReason(err)).Inc()
		s.Slots = slots.FromApplied(s.Applied)
		return s
	}

	parsed, ok := parseSlotsJSON(out)
	if !ok {
		log.Warn("Slot extraction returned malformed output", zap.Int("length", len(out)))
	}
	s.Slots = parsed.Sanitize().Override(s.Applied)
	log.Info("Slots extracted", zap.Any("slots", s.Slots))
	return s
}

// retrieve runs hybrid retrieval with the slot filters. Errors leave no docs.
func (p *Pipeline) retrieve(ctx context.Context, s State) State {
	log := logger.FromContext(ctx)

	docs, err := p.retriever.Search(ctx, s.Query, s.Slots.Filters())
	if err != nil {
		log.Error("Retrieval failed", zap.Error(err))
		metrics.StageFallbacksTotal.WithLabelValues(StageRetrieve, reasonError).Inc()
		s.Docs = nil
		return s
	}

	s.Docs = docs
	if len(docs) > 0 {
		log.Info("Retrieved documents",
			zap.Int("count", len(docs)),
			zap.Int64("top_id", docs[0].ID),
			zap.String("top_title", docs[0].Meta.Title),
		)
	} else {
		log.Info("Retrieved no documents")
	}
	return s
}

// validate re-applies the caller's filters, lists the slots worth asking for
// and flags stale listings among the leading results.
func (p *Pipeline) validate(ctx context.Context, s State) State {
	log := logger.FromContext(ctx)

	docs := s.Docs
	if af := s.Applied.Filters(); !af.IsEmpty() {
		kept := make([]document.Document, 0, len(docs))
		for i := range docs {
			if af.Match(&docs[i].Meta) {
				kept = append(kept, docs[i])
			}
		}
		if dropped := len(docs) - len(kept); dropped > 0 {
			log.Info("Applied filters removed documents", zap.Int("dropped", dropped))
		}
		docs = kept
	}

	res := validation.Empty()
	switch {
	case len(docs) == 0:
		if !s.Slots.Has(slots.City, s.Applied) {
			res.Missing = append(res.Missing, slots.City)
		}
		if !s.Slots.Has(slots.Occasion, s.Applied) {
			res.Missing = append(res.Missing, slots.Occasion)
		}
	case len(docs) > tooManyResults:
		if !s.Slots.Has(slots.City, s.Applied) {
			res.Missing = append(res.Missing, slots.City)
		}
		if !s.Slots.Has(slots.Headcount, s.Applied) {
			res.Missing = append(res.Missing, slots.Headcount)
		}
	}

	now := p.now()
	for i := range docs[:min(staleTopN, len(docs))] {
		if validation.IsStale(docs[i].Meta.UpdatedAt, now) {
			res.StaleIDs = append(res.StaleIDs, docs[i].ID)
		}
	}

	s.Docs = docs
	s.Validation = res
	log.Info("Validated documents",
		zap.Int("count", len(docs)),
		zap.Strings("missing", res.Missing),
		zap.Int64s("stale_ids", res.StaleIDs),
	)
	return s
}

// compose produces the final answer: cached, deterministic for empty results,
// model-written otherwise, with a deterministic list when the model fails.
func (p *Pipeline) compose(ctx context.Context, s State) State {
	log := logger.FromContext(ctx)

	key := cache.QueryKey(s.Query,
		s.Slots.CityOr(""), s.Slots.OccasionOr(""),
		s.Slots.HeadcountOr(0), s.Slots.BudgetOr(0), "")
	if answer, ok := p.answers.Get(ctx, key); ok {
		log.Info("Answer served from cache")
		s.Answer = answer
		return s
	}

	if len(s.Docs) == 0 {
		s.Answer = noResultsAnswer(s.Slots, p.cfg.Currency)
		p.answers.Set(ctx, key, s.Answer)
		return s
	}

	f := p.buildFacts(s)
	payload, err := json.Marshal(f)
	if err != nil {
		log.Error("Failed to encode composer facts", zap.Error(err))
		metrics.StageFallbacksTotal.WithLabelValues(StageCompose, reasonError).Inc()
		s.Answer = fallbackAnswer(s.Slots, f.Candidates, p.cfg.Currency)
		return s
	}

	system := systemPrompt(p.cfg.Currency)
	user := composerPrompt(string(payload))
	out, err := callWithTimeout(ctx, p.cfg.CallTimeout, func(ctx context.Context) (string, error) {
		return p.llm.Complete(ctx, llm.TaskCompose, system, user)
	})
	if err == nil && strings.TrimSpace(out) == "" {
		err = domain.ErrEmptyCompletion
	}
	if err != nil {
		log.Warn("Composition failed, using fallback answer", zap.Error(err))
		metrics.StageFallbacksTotal.WithLabelValues(StageCompose, fallbackReason(err)).Inc()
		s.Answer = fallbackAnswer(s.Slots, f.Candidates, p.cfg.Currency)
		return s
	}

	s.Answer = strings.TrimSpace(out)
	p.answers.Set(ctx, key, s.Answer)
	return s
}

func (p *Pipeline) buildFacts(s State) facts {
	now := p.now()
	top := s.Docs[:min(factsTopN, len(s.Docs))]
	cands := make([]candidate, 0, len(top))
	for i := range top {
		d := &top[i]
		cands = append(cands, candidate{
			ID:           d.ID,
			Title:        d.Meta.Title,
			City:         d.Meta.City,
			PriceMin:     d.Meta.PriceMin,
			PriceMax:     d.Meta.PriceMax,
			HeadcountMin: d.Meta.HeadcountMin,
			HeadcountMax: d.Meta.HeadcountMax,
			Snippet:      d.Snippet,
			UpdatedAt:    d.Meta.UpdatedAt,
			stale:        validation.IsStale(d.Meta.UpdatedAt, now),
		})
	}
	return facts{Slots: s.Slots, Candidates: cands}
}
