// Package api exposes the loaded datasets over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/transition-pathways/climate-ingest/internal/ingest"
	"github.com/transition-pathways/climate-ingest/internal/query"
)

// Server wires the query service and the pipeline audit log into an HTTP API.
type Server struct {
	svc   *query.Service
	audit *ingest.AuditLog
	log   *zap.Logger
}

// NewServer creates a Server. The audit log may be nil, in which case the
// runs endpoint responds 404.
func NewServer(svc *query.Service, audit *ingest.AuditLog) *Server {
	return &Server{
		svc:   svc,
		audit: audit,
		log:   zap.L().With(zap.String("component", "api")),
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(requestID)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/companies", s.handleListCompanies)
		r.Get("/companies/{name}", s.handleGetCompany)
		r.Get("/companies/{name}/mq", s.handleMQHistory)
		r.Get("/companies/{name}/cp", s.handleCPHistory)
		r.Get("/companies/{name}/latest-assessment", s.handleLatestAssessment)
		r.Get("/companies/{name}/compare", s.handleCompare)
		r.Get("/mq", s.handleListMQ)
		r.Get("/cp", s.handleListCP)
		r.Get("/countries", s.handleListCountries)
		r.Get("/countries/{name}", s.handleGetCountry)
		r.Get("/countries/{name}/assessment", s.handleCountryAssessment)
		r.Get("/runs", s.handleListRuns)
	})

	return r
}

// requestID tags every response with an X-Request-ID, keeping a caller's
// own id when one is supplied.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", w.Header().Get("X-Request-ID")),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listResponse is the envelope for paginated collections.
type listResponse struct {
	Data     any `json:"data"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total,omitempty"`
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	companies, total, err := s.svc.ListCompanies(r.Context(), query.CompanyFilter{
		Sector:    r.URL.Query().Get("sector"),
		Geography: r.URL.Query().Get("geography"),
		Page:      page,
	})
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: companies, Page: pageOrDefault(page), PageSize: len(companies), Total: total})
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := s.svc.GetCompany(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) handleMQHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.svc.CompanyMQHistory(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleCPHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.svc.CompanyCPHistory(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleLatestAssessment(w http.ResponseWriter, r *http.Request) {
	latest, err := s.svc.ResolveLatestAssessment(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (s *Server) handleListMQ(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	cycle := 0
	if raw := r.URL.Query().Get("cycle"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "cycle must be a positive integer")
			return
		}
		cycle = n
	}
	out, err := s.svc.ListMQAssessments(r.Context(), query.MQFilter{Cycle: cycle, Page: page})
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: out, Page: pageOrDefault(page), PageSize: len(out)})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.svc.CompareCompany(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleListCP(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	out, err := s.svc.ListCPAssessments(r.Context(), page)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: out, Page: pageOrDefault(page), PageSize: len(out)})
}

func (s *Server) handleListCountries(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	countries, total, err := s.svc.ListCountries(r.Context(), query.CountryFilter{
		Region: r.URL.Query().Get("region"),
		Page:   page,
	})
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Data: countries, Page: pageOrDefault(page), PageSize: len(countries), Total: total})
}

func (s *Server) handleGetCountry(w http.ResponseWriter, r *http.Request) {
	country, err := s.svc.GetCountry(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, country)
}

func (s *Server) handleCountryAssessment(w http.ResponseWriter, r *http.Request) {
	results, err := s.svc.CountryAssessment(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.lookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusNotFound, "audit log not configured")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	runs, err := s.audit.List(r.Context(), r.URL.Query().Get("dataset"), limit)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// parsePage reads the page and page_size query parameters. Out-of-range
// values are rejected rather than silently clamped.
func parsePage(w http.ResponseWriter, r *http.Request) (query.Page, bool) {
	var page query.Page
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return page, false
		}
		page.Page = n
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "page_size must be between 1 and 100")
			return page, false
		}
		page.PageSize = n
	}
	return page, true
}

func pageOrDefault(p query.Page) int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

func (s *Server) lookupError(w http.ResponseWriter, err error) {
	if eris.Is(err, query.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.internalError(w, err)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
