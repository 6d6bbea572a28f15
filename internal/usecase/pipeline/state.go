// Package pipeline runs the fixed four-stage venue search workflow.
package pipeline

import (
	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/domain/search/filter"
	"github.com/sahraevent/venuesearch/internal/domain/slots"
	"github.com/sahraevent/venuesearch/internal/domain/validation"
)

// State is the value threaded through the stages. Each stage returns a new State.
type State struct {
	RunID      string
	Query      string
	Applied    filter.Applied
	Slots      slots.Slots
	Docs       []document.Document
	Validation validation.Result
	Answer     string
}

// Result is the caller-facing outcome of a run.
type Result struct {
	RunID      string              `json:"run_id"`
	Answer     string              `json:"answer"`
	Docs       []document.Document `json:"docs"`
	Validation validation.Result   `json:"validation"`
	Slots      slots.Slots         `json:"slots"`
}

func (s *State) result() Result {
	docs := s.Docs
	if docs == nil {
		docs = []document.Document{}
	}
	v := s.Validation
	if v.Missing == nil {
		v.Missing = []string{}
	}
	if v.StaleIDs == nil {
		v.StaleIDs = []int64{}
	}
	return Result{
		RunID:      s.RunID,
		Answer:     s.Answer,
		Docs:       docs,
		Validation: v,
		Slots:      s.Slots,
	}
}
