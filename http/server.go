package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// DefaultAddr is the listen address used when Server.Addr is empty.
	DefaultAddr = ":3001"

	// DefaultResultLimit caps GET /api/data when no limit is given.
	DefaultResultLimit = 50

	shutdownTimeout = 10 * time.Second
)

// Server serves the JSON API over the harvest services.
type Server struct {
	router *chi.Mux
	logger *slog.Logger

	// Addr is the TCP address to listen on.
	Addr string

	TargetService harvest.TargetService
	ResultService harvest.ResultService
	PolicyService harvest.PolicyService
	StatsService  harvest.StatsService
	ScrapeService harvest.ScrapeService

	// Now returns the current time. Used for the "today" stats window.
	Now func() time.Time
}

// NewServer returns a Server with all routes registered.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
		Addr:   DefaultAddr,
		Now:    time.Now,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.logRequests)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/targets", s.handleTargetList)
		r.Post("/targets", s.handleTargetCreate)
		r.Get("/targets/{id}", s.handleTargetView)
		r.Put("/targets/{id}", s.handleTargetUpdate)
		r.Delete("/targets/{id}", s.handleTargetDelete)

		r.Get("/data", s.handleResultList)

		r.Post("/scrape", s.handleScrapeAll)
		r.Post("/scrape/{id}", s.handleScrapeTarget)

		r.Get("/settings", s.handleSettingsView)
		r.Put("/settings", s.handleSettingsUpdate)

		r.Get("/stats", s.handleStats)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("http: listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		begin := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(begin),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleTargetList(w http.ResponseWriter, r *http.Request) {
	var filter harvest.TargetFilter
	q := r.URL.Query()
	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			s.Error(w, r, harvest.Errorf(harvest.EINVALID, "invalid active value %q", v))
			return
		}
		filter.Active = &active
	}
	if v := q.Get("category"); v != "" {
		filter.Category = &v
	}

	targets, err := s.TargetService.FindTargets(r.Context(), filter)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.JSON(w, http.StatusOK, targets)
}

// targetRequest is the body of POST and PUT /api/targets.
type targetRequest struct {
	Name     *string             `json:"name"`
	URL      *string             `json:"url"`
	Selector *string             `json:"selector"`
	Mode     *harvest.RenderMode `json:"type"`
	Category *string             `json:"category"`
	Active   *bool               `json:"active"`
}

func (s *Server) handleTargetCreate(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}

	target := &harvest.Target{Active: true}
	if req.Name != nil {
		target.Name = *req.Name
	}
	if req.URL != nil {
		target.URL = *req.URL
	}
	if req.Selector != nil {
		target.Selector = *req.Selector
	}
	if req.Mode != nil {
		target.Mode = *req.Mode
	}
	if req.Category != nil {
		target.Category = *req.Category
	}
	if req.Active != nil {
		target.Active = *req.Active
	}

	if err := s.TargetService.CreateTarget(r.Context(), target); err != nil {
		s.Error(w, r, err)
		return
	}
	s.JSON(w, http.StatusCreated, target)
}

func (s *Server) handleTargetView(w http.ResponseWriter, r *http.Request) {
	target, err := s.TargetService.FindTargetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.JSON(w, http.StatusOK, target)
}

func (s *Server) handleTargetUpdate(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}

	target, err := s.TargetService.UpdateTarget(r.Context(), chi.URLParam(r, "id"), harvest.TargetUpdate{
		Name:     req.Name,
		URL:      req.URL,
		Selector: req.Selector,
		Mode:     req.Mode,
		Category: req.Category,
		Active:   req.Active,
	})
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.JSON(w, http.StatusOK, target)
}

func (s *Server) handleTargetDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.TargetService.DeleteTarget(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResultList(w http.ResponseWriter, r *http.Request) {
	filter := harvest.ResultFilter{Limit: DefaultResultLimit}
	q := r.URL.Query()
	if v := q.Get("targetId"); v != "" {
		filter.TargetID = &v
	}
	if v := q.Get("outcome"); v != "" {
		outcome := harvest.Outcome(v)
		filter.Outcome = &outcome
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.Error(w, r, harvest.Errorf(harvest.EINVALID, "invalid limit %q", v))
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.Error(w, r, harvest.Errorf(harvest.EINVALID, "invalid offset %q", v))
			return
		}
		filter.Offset = n
	}

	results, err := s.ResultService.FindResults(r.Context(), filter)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.JSON(w, http.StatusOK, results)
}

// scrapeResponse is the body returned by POST /api/scrape/{id}.
type scrapeResponse struct {
	Message   string                    `json:"message"`
	DataCount int                       `json:"dataCount"`
	Result    *harvest.ExtractionResult `json:"result"`
}

func (s *Server) handleScrapeTarget(w http.ResponseWriter, r *http.Request) {
	result, err := s.ScrapeService.RunTarget(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.Error(w, r, err)
		return
	}

	resp := scrapeResponse{DataCount: len(result.Fragments), Result: result}
	switch result.Outcome {
	case harvest.OutcomeOK:
		resp.Message = "Scraping completed"
	case harvest.OutcomeEmpty:
		resp.Message = "No data scraped"
	default:
		resp.Message = "Scraping failed"
	}
	s.JSON(w, http.StatusOK, resp)
}

func (s *Server) handleScrapeAll(w http.ResponseWriter, r *http.Request) {
	batch, err := s.ScrapeService.RunAll(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.JSON(w, http.StatusOK, batch)
}

// settings is the wire form of the schedule policy. Durations are in
// milliseconds.
type settings struct {
	ScrapeTime       string `json:"scrape_time"`
	MaxRetries       int    `json:"max_retries"`
	Timeout          int64  `json:"timeout"`
	InterTargetDelay int64  `json:"inter_target_delay"`
	RetryDelay       int64  `json:"retry_delay"`
	Dedup            bool   `json:"dedup"`
}

func newSettings(p *harvest.SchedulePolicy) settings {
	return settings{
		ScrapeTime:       p.ScrapeTime,
		MaxRetries:       p.MaxRetries,
		Timeout:          p.Timeout.Milliseconds(),
		InterTargetDelay: p.InterTargetDelay.Milliseconds(),
		RetryDelay:       p.RetryDelay.Milliseconds(),
		Dedup:            p.Dedup,
	}
}

// settingsUpdate is the body of PUT /api/settings. Absent keys are unchanged.
type settingsUpdate struct {
	ScrapeTime       *string `json:"scrape_time"`
	MaxRetries       *int    `json:"max_retries"`
	Timeout          *int64  `json:"timeout"`
	InterTargetDelay *int64  `json:"inter_target_delay"`
	RetryDelay       *int64  `json:"retry_delay"`
	Dedup            *bool   `json:"dedup"`
}

// maxMillis is the largest millisecond value that fits in a time.Duration.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// policyUpdate converts millisecond values to durations.
// Returns EINVALID for values a time.Duration cannot hold.
func (u settingsUpdate) policyUpdate() (harvest.PolicyUpdate, error) {
	upd := harvest.PolicyUpdate{
		ScrapeTime: u.ScrapeTime,
		MaxRetries: u.MaxRetries,
		Dedup:      u.Dedup,
	}
	for _, f := range []struct {
		key string
		v   *int64
		dst **time.Duration
	}{
		{"timeout", u.Timeout, &upd.Timeout},
		{"inter_target_delay", u.InterTargetDelay, &upd.InterTargetDelay},
		{"retry_delay", u.RetryDelay, &upd.RetryDelay},
	} {
		if f.v == nil {
			continue
		}
		if *f.v > maxMillis || *f.v < -maxMillis {
			return harvest.PolicyUpdate{}, harvest.Errorf(harvest.EINVALID, "%s out of range: %d ms", f.key, *f.v)
		}
		d := time.Duration(*f.v) * time.Millisecond
		*f.dst = &d
	}
	return upd, nil
}

func (s *Server) handleSettingsView(w http.ResponseWriter, r *http.Request) {
	policy, err := s.PolicyService.FindPolicy(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.JSON(w, http.StatusOK, newSettings(policy))
}

// handleSettingsUpdate reschedules before persisting so that a schedule the
// trigger parser rejects is never stored. If the store write fails the
// scheduler is put back on the previous policy.
func (s *Server) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var req settingsUpdate
	if err := decodeJSON(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}
	upd, err := req.policyUpdate()
	if err != nil {
		s.Error(w, r, err)
		return
	}

	prev, err := s.PolicyService.FindPolicy(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	policy := prev.Clone()
	policy.Apply(upd)
	if err := policy.Validate(); err != nil {
		s.Error(w, r, err)
		return
	}
	if s.ScrapeService != nil {
		if err := s.ScrapeService.Reconfigure(r.Context(), policy); err != nil {
			s.Error(w, r, err)
			return
		}
	}

	stored, err := s.PolicyService.UpdatePolicy(r.Context(), upd)
	if err != nil {
		if s.ScrapeService != nil {
			if rerr := s.ScrapeService.Reconfigure(context.WithoutCancel(r.Context()), prev); rerr != nil {
				s.logger.Error("http: restore schedule", "err", rerr)
			}
		}
		s.Error(w, r, err)
		return
	}
	s.JSON(w, http.StatusOK, newSettings(stored))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	now := s.Now()
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	stats, err := s.StatsService.FindStats(r.Context(), midnight)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	s.JSON(w, http.StatusOK, stats)
}

// JSON writes v as a JSON response with the given status.
func (s *Server) JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("http: encode response", "err", err)
	}
}

// Error writes err as a JSON error body with a status derived from its code.
// Internal errors are logged and their details hidden from the client.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	code, message := harvest.ErrorCode(err), harvest.ErrorMessage(err)
	if code == harvest.EINTERNAL {
		s.logger.Error("http: internal error",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
	}
	s.JSON(w, ErrorStatusCode(code), map[string]string{"error": message})
}

// ErrorStatusCode maps an error code to an HTTP status.
func ErrorStatusCode(code string) int {
	switch code {
	case harvest.EINVALID:
		return http.StatusBadRequest
	case harvest.ENOTFOUND:
		return http.StatusNotFound
	case harvest.ECONFLICT:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into v. Returns EINVALID on malformed input.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return harvest.Errorf(harvest.EINVALID, "invalid JSON body: %v", err)
	}
	return nil
}
