package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/domain/search/filter"
	"github.com/sahraevent/venuesearch/internal/usecase/llm"
)

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

type readyFlag bool

func (r readyFlag) Ready() bool { return bool(r) }

// corpusRetriever filters a fixed corpus and records the filters it was given.
type corpusRetriever struct {
	mu      sync.Mutex
	docs    []document.Document
	err     error
	ignore  bool
	calls   int
	filters filter.Filters
}

func (r *corpusRetriever) Search(_ context.Context, _ string, f filter.Filters) ([]document.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.filters = f
	if r.err != nil {
		return nil, r.err
	}
	var out []document.Document
	for i := range r.docs {
		if r.ignore || f.Match(&r.docs[i].Meta) {
			out = append(out, r.docs[i])
		}
	}
	return out, nil
}

// scriptedCompleter answers per task; a nil func means the call fails.
type scriptedCompleter struct {
	mu      sync.Mutex
	slots   func(ctx context.Context, user string) (string, error)
	compose func(ctx context.Context, user string) (string, error)
	calls   map[llm.Task]int
	prompts map[llm.Task]string
}

func (c *scriptedCompleter) Complete(ctx context.Context, task llm.Task, _, user string) (string, error) {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[llm.Task]int)
		c.prompts = make(map[llm.Task]string)
	}
	c.calls[task]++
	c.prompts[task] = user
	c.mu.Unlock()

	var fn func(context.Context, string) (string, error)
	switch task {
	case llm.TaskSlots:
		fn = c.slots
	case llm.TaskCompose:
		fn = c.compose
	}
	if fn == nil {
		return "", errors.New("no script")
	}
	return fn(ctx, user)
}

func (c *scriptedCompleter) count(task llm.Task) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[task]
}

func reply(text string) func(context.Context, string) (string, error) {
	return func(context.Context, string) (string, error) { return text, nil }
}

func hang(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type mapAnswers struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapAnswers() *mapAnswers { return &mapAnswers{data: make(map[string]string)} }

func (m *mapAnswers) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mapAnswers) Set(_ context.Context, key, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = answer
}

func (m *mapAnswers) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func venue(id int64, title, city string, hcMin, hcMax int, pMin, pMax float64, updated string, occasions ...string) document.Document {
	return document.Document{
		ID:   id,
		Text: title,
		Meta: document.Meta{
			ID: id, VendorID: title, Title: title, City: city,
			HeadcountMin: hcMin, HeadcountMax: hcMax,
			PriceMin: pMin, PriceMax: pMax,
			Occasion: occasions, UpdatedAt: updated,
			Description: title + " venue.",
		},
		Snippet: title,
	}
}

func corpus() []document.Document {
	return []document.Document{
		venue(1, "Sunset Yacht", "Dubai", 10, 40, 8000, 20000, "2026-10-10", "party", "corporate"),
		venue(2, "Marina Ballroom", "Dubai", 100, 400, 30000, 90000, "2026-10-01", "wedding"),
		venue(3, "Corniche Dhow", "Abu Dhabi", 10, 30, 5000, 16000, "2026-10-12", "party"),
		venue(4, "Desert Camp", "Dubai", 20, 60, 12000, 25000, "2026-09-01", "party", "family"),
	}
}

func newTestPipeline(r *corpusRetriever, c *scriptedCompleter, a AnswerCache) *Pipeline {
	return New(readyFlag(true), r, c, a, Config{CallTimeout: 100 * time.Millisecond}, WithClock(func() time.Time { return fixedNow }))
}
