// Package chi exposes the article query pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	healthuc "github.com/kailas-cloud/wikiquery/internal/usecase/health"
	queryuc "github.com/kailas-cloud/wikiquery/internal/usecase/query"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
	maxBodyBytes    = 1 << 20

	statusClientClosedRequest = 499
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the article API.
type Server struct {
	query         *queryuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	pageSize      int
	maxPageSize   int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(query *queryuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		query:       query,
		health:      health,
		logger:      logger,
		pageSize:    defaultPageSize,
		maxPageSize: maxPageSize,
	}
	// Deadline first: a timed out backend call is also a backend error.
	s.errorHandlers = []errorHandler{
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorCodeBackendTimeout),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeArticleNotFound),
		sentinelHandler(domain.ErrBackend, http.StatusBadGateway, ErrorCodeBackendUnavailable),
		sentinelHandler(domain.ErrConsistency, http.StatusInternalServerError, ErrorCodeConsistencyError),
	}
	return s
}

// WithPagination overrides the listing page sizes. Non-positive values keep defaults.
func (s *Server) WithPagination(defaultSize, maxSize int) *Server {
	if defaultSize > 0 {
		s.pageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// Routes registers the API handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1/articles", func(r chi.Router) {
		r.Get("/", s.ListArticles)
		r.Post("/query", s.QueryArticles)
		r.Get("/{id}", s.GetArticle)
	})
}

// QueryArticles handles POST /v1/articles/query.
func (s *Server) QueryArticles(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := req.toDomain(s.maxPageSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.evaluate(w, r, q)
}

// ListParams are the query parameters of GET /v1/articles.
type ListParams struct {
	ReturnType *string
	Sort       *string
	Order      *string
	Limit      *int
	Offset     *int
}

// ListArticles handles GET /v1/articles: a filterless query over the whole corpus.
func (s *Server) ListArticles(w http.ResponseWriter, r *http.Request) {
	var p ListParams
	query := r.URL.Query()
	for name, dest := range map[string]any{
		"return_type": &p.ReturnType,
		"sort":        &p.Sort,
		"order":       &p.Order,
		"limit":       &p.Limit,
		"offset":      &p.Offset,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter "+name)
			return
		}
	}

	returnType := domquery.ReturnID
	if p.ReturnType != nil {
		returnType = domquery.ReturnType(*p.ReturnType)
	}
	limit := s.pageSize
	if p.Limit != nil {
		limit = clampLimit(*p.Limit, s.maxPageSize)
	}
	opts := []domquery.Option{domquery.WithLimit(limit)}
	if p.Offset != nil {
		opts = append(opts, domquery.WithOffset(*p.Offset))
	}
	if p.Sort != nil {
		var order domquery.Order
		if p.Order != nil {
			order = domquery.Order(*p.Order)
		}
		sort, err := domquery.NewSort(domquery.SortKey(*p.Sort), order)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		opts = append(opts, domquery.WithSort(sort))
	}

	q, err := domquery.New(returnType, opts...)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.evaluate(w, r, q)
}

// GetArticle handles GET /v1/articles/{id}.
func (s *Server) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Article id must be a non-negative integer")
		return
	}

	ids, err := domquery.NewIDsFilter([]int64{id})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	q, err := domquery.New(domquery.ReturnNodeWithContent, domquery.WithIdentityFilters(ids))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.query.Evaluate(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	nodes := resp.Nodes()
	if len(nodes) == 0 {
		writeError(w, http.StatusNotFound, ErrorCodeArticleNotFound, domain.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, nodeToDTO(nodes[0]))
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request, q domquery.ArticleQuery) {
	resp, err := s.query.Evaluate(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(resp.Count()))
	writeJSON(w, http.StatusOK, responseToDTO(resp))
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
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
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

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation messages describe the caller's own input and pass through.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "query timed out"
	}
	var be *domain.BackendError
	if errors.As(err, &be) {
		return domain.ErrBackend.Error() + " in " + string(be.Stage) + " stage"
	}
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrBackend,
		domain.ErrConsistency,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger
	if reqID := chiMiddleware.GetReqID(r.Context()); reqID != "" {
		log = log.With(zap.String("request_id", reqID))
	}
	switch {
	case errors.Is(err, context.Canceled):
		log.Debug("client went away", zap.Error(err))
		writeError(w, statusClientClosedRequest, ErrorCodeBadRequest, "request canceled")
		return
	case errors.Is(err, domain.ErrValidation):
		log.Debug("rejected query", zap.Error(err))
	default:
		log.Warn("query failed", zap.Error(err))
	}

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
