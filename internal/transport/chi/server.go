package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/domain"
	"github.com/sahraevent/venuesearch/internal/domain/offer"
	"github.com/sahraevent/venuesearch/internal/domain/search/filter"
	"github.com/sahraevent/venuesearch/internal/logger"
	"github.com/sahraevent/venuesearch/internal/repository/dualindex"
	healthuc "github.com/sahraevent/venuesearch/internal/usecase/health"
	"github.com/sahraevent/venuesearch/internal/usecase/pipeline"
	"github.com/sahraevent/venuesearch/internal/version"
)

const maxOffersPerRequest = 1000

// searcher runs the search pipeline.
type searcher interface {
	Search(ctx context.Context, query string, applied filter.Applied) (pipeline.Result, error)
}

// indexer persists offers and rebuilds the indexes.
type indexer interface {
	AddOffers(ctx context.Context, offers []offer.Offer, markHot bool) ([]int64, error)
	BuildIndexes(ctx context.Context) (dualindex.Stats, error)
}

// healthChecker aggregates component checks.
type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the venue search HTTP API.
type Server struct {
	search        searcher
	index         indexer
	health        healthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search searcher, index indexer, health healthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		index:  index,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrIndexNotBuilt, http.StatusServiceUnavailable, ErrorCodeIndexNotReady),
		sentinelHandler(domain.ErrInvalidOffer, http.StatusBadRequest, ErrorCodeValidationFailed),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/offers", s.AddOffers)
		r.Post("/index/rebuild", s.RebuildIndex)
	})
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "Query is required")
		return
	}

	res, err := s.search.Search(r.Context(), req.Query, req.Filters)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// AddOffers handles POST /v1/offers. The indexes are rebuilt after the insert.
func (s *Server) AddOffers(w http.ResponseWriter, r *http.Request) {
	var req AddOffersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Offers) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "At least one offer is required")
		return
	}
	if len(req.Offers) > maxOffersPerRequest {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "Too many offers in one request")
		return
	}

	offers := make([]offer.Offer, len(req.Offers))
	for i := range req.Offers {
		offers[i] = offerFromItem(&req.Offers[i], req.Hot)
	}

	ids, err := s.index.AddOffers(r.Context(), offers, req.Hot)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	stats, err := s.index.BuildIndexes(r.Context())
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AddOffersResponse{IDs: ids, Stable: stats.Stable, Hot: stats.Hot})
}

// RebuildIndex handles POST /v1/index/rebuild.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	stats, err := s.index.BuildIndexes(r.Context())
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message for known domain errors.
func safeDomainMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrIndexNotBuilt):
		return "search index is not ready yet"
	case errors.Is(err, domain.ErrInvalidOffer):
		return err.Error()
	default:
		return "internal error"
	}
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
