package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/psys/internal/compiler"
	"github.com/aretw0/psys/internal/validator"
	"github.com/aretw0/psys/pkg/adapters/memory"
	"github.com/aretw0/psys/pkg/domain"
	"github.com/aretw0/psys/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

// Server serves the simulation API.
type Server struct {
	Factory ports.SimulatorFactory
	Store   ports.RunStore
	Metrics http.Handler
	Version string
	Logger  *slog.Logger
	Timeout time.Duration
}

// Option configures the handler.
type Option func(*Server)

// WithStore exposes recorded runs under /runs.
func WithStore(store ports.RunStore) Option {
	return func(s *Server) { s.Store = store }
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.Version = v }
}

// WithRequestTimeout cancels a request's context after d. Runs observe the
// cancellation between steps.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.Timeout = d }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.Logger = l
		}
	}
}

// NewHandler creates the HTTP handler. factory builds one simulator per
// request.
func NewHandler(factory ports.SimulatorFactory, opts ...Option) http.Handler {
	server := &Server{
		Factory: factory,
		Version: "unknown",
		Logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if server.Timeout > 0 {
		r.Use(middleware.Timeout(server.Timeout))
	}
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Post("/simulate", server.Simulate)
	r.Post("/simulate/stream", server.SimulateStream)
	r.Post("/validate", server.Validate)
	r.Get("/runs", server.ListRuns)
	r.Get("/runs/{id}", server.GetRun)
	if server.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.Metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SimulateRequest is the body of POST /simulate and POST /simulate/stream.
type SimulateRequest struct {
	Rules       string `json:"rules"`
	State       string `json:"state"`
	DetectLoops bool   `json:"detect_loops"`
}

// SimulateResponse is returned by a halted run.
type SimulateResponse struct {
	ID           string          `json:"id,omitempty"`
	Output       string          `json:"output"`
	Final        domain.Multiset `json:"final"`
	Steps        int             `json:"steps"`
	Applications uint64          `json:"applications"`
	Status       domain.Status   `json:"status"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	Error  string        `json:"error"`
	Status domain.Status `json:"status,omitempty"`
	ID     string        `json:"id,omitempty"`
	Steps  int           `json:"steps,omitempty"`
	// Previous and Current are set for divergence.
	Previous string `json:"previous,omitempty"`
	Current  string `json:"current,omitempty"`
	// Token and Line locate an invalid rule.
	Token string `json:"token,omitempty"`
	Line  int    `json:"line,omitempty"`
}

// ValidateRequest is the body of POST /validate. When State is set, rules
// that cannot fire from it are reported as well.
type ValidateRequest struct {
	Rules string  `json:"rules"`
	State *string `json:"state,omitempty"`
}

// ValidateResponse reports the rules parsed and any warnings about them.
type ValidateResponse struct {
	Rules    int                 `json:"rules"`
	Tokens   []string            `json:"tokens"`
	Warnings []validator.Finding `json:"warnings"`
}

// Simulate handles the POST /simulate request.
func (s *Server) Simulate(w http.ResponseWriter, r *http.Request) {
	var body SimulateRequest
	if !s.decode(w, r, &body, "Simulate") {
		return
	}

	sim, err := s.Factory(r.Context(), ports.SimulationRequest{
		Rules:       memory.NewLoader("request", body.Rules),
		DetectLoops: body.DetectLoops,
	})
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	res, err := sim.Run(r.Context(), domain.NewMultiset(body.State))
	if err != nil {
		s.writeError(w, r, err, res)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(res), s.Logger)
}

// SimulateStream handles the POST /simulate/stream request (SSE).
// Each step start is sent as a "step" event, followed by one "result" or
// "error" event.
func (s *Server) SimulateStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SimulateStream: Streaming not supported")
		return
	}

	var body SimulateRequest
	if !s.decode(w, r, &body, "SimulateStream") {
		return
	}

	send := func(event string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			s.Logger.Error("SSE: encode failed", "event", event, "error", err)
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	hooks := domain.LifecycleHooks{
		OnStepStart: func(_ context.Context, e *domain.StepEvent) {
			send("step", e)
		},
	}
	sim, err := s.Factory(r.Context(), ports.SimulationRequest{
		Rules:       memory.NewLoader("request", body.Rules),
		DetectLoops: body.DetectLoops,
		Hooks:       hooks,
	})
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	res, err := sim.Run(r.Context(), domain.NewMultiset(body.State))
	if err != nil {
		_, resp := s.describeError(err, res)
		send("error", resp)
		return
	}
	send("result", toResponse(res))
}

// Validate handles the POST /validate request.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var body ValidateRequest
	if !s.decode(w, r, &body, "Validate") {
		return
	}

	rules, err := compiler.ParseRules(strings.NewReader(body.Rules), "request")
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	var initial *domain.Multiset
	if body.State != nil {
		m := domain.NewMultiset(*body.State)
		initial = &m
	}
	writeJSON(w, http.StatusOK, ValidateResponse{
		Rules:    len(rules),
		Tokens:   rules.Tokens(),
		Warnings: append([]validator.Finding{}, validator.ValidateRules(rules, initial)...),
	}, s.Logger)
}

// ListRuns handles the GET /runs request.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids := []string{}
	if s.Store != nil {
		var err error
		if ids, err = s.Store.List(r.Context()); err != nil {
			s.writeError(w, r, err, nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": ids}, s.Logger)
}

// GetRun handles the GET /runs/{id} request.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		s.writeError(w, r, domain.ErrRunNotFound, nil)
		return
	}
	rec, err := s.Store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, rec, s.Logger)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.Logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":      "psy-http",
		"version":  strings.TrimSpace(s.Version),
		"alphabet": domain.Alphabet,
	}, s.Logger)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, op string) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()}, s.Logger)
		s.Logger.Warn(op+": Invalid request body", "error", err)
		return false
	}
	return true
}

// describeError maps an error to a status code and body.
func (s *Server) describeError(err error, res *domain.Result) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error()}
	if res != nil {
		resp.Status = res.Status
		resp.ID = res.RunID
		resp.Steps = res.Steps
	}

	var ire *domain.InvalidRuleError
	var div *domain.DivergenceError
	switch {
	case errors.As(err, &ire):
		resp.Token = ire.Token
		resp.Line = ire.Line
		return http.StatusBadRequest, resp
	case errors.As(err, &div):
		resp.Previous = div.Previous.String()
		resp.Current = div.Current.String()
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, domain.ErrStepLimit), errors.Is(err, domain.ErrCountOverflow):
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound, resp
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, resp
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, resp
	default:
		return http.StatusInternalServerError, resp
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, res *domain.Result) {
	code, resp := s.describeError(err, res)
	if code >= http.StatusInternalServerError {
		s.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	} else {
		s.Logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", code, "error", err)
	}
	writeJSON(w, code, resp, s.Logger)
}

func writeJSON(w http.ResponseWriter, code int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

func toResponse(res *domain.Result) SimulateResponse {
	return SimulateResponse{
		ID:           res.RunID,
		Output:       res.Final.String(),
		Final:        res.Final,
		Steps:        res.Steps,
		Applications: res.Applications,
		Status:       res.Status,
	}
}
