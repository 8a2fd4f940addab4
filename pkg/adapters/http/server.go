package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/slotflow/internal/codec"
	"github.com/aretw0/slotflow/internal/logging"
	"github.com/aretw0/slotflow/internal/presentation/graph"
	"github.com/aretw0/slotflow/internal/runtime"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/runner"
	"github.com/aretw0/slotflow/pkg/session"
	"github.com/getkin/kin-openapi/openapi3"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
)

// Server exposes a session manager over HTTP.
type Server struct {
	Manager *session.Manager
	Streams *StreamManager
	Metrics http.Handler
	Logger  *slog.Logger
	Version string

	// Validate checks requests against the OpenAPI document.
	Validate bool
	spec     *openapi3.T
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// WithRequestValidation rejects requests that do not match the OpenAPI
// document before they reach a handler.
func WithRequestValidation(enabled bool) Option {
	return func(s *Server) {
		s.Validate = enabled
	}
}

// StartRequest is the body of POST /sessions. Both fields are optional.
type StartRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// InputRequest is the body of POST /sessions/{id}/input.
type InputRequest struct {
	Text string `json:"text"`
}

// CompleteRequest is the body of POST /sessions/{id}/tasks/{taskID}/complete.
// Outcome defaults to saturated.
type CompleteRequest struct {
	Outcome domain.Outcome `json:"outcome,omitempty"`
}

// TurnResponse wraps a turn with its session ID and, when the flow halted
// on a configuration error, the error text.
type TurnResponse struct {
	SessionID string       `json:"session_id"`
	Turn      runtime.Turn `json:"turn"`
	Error     string       `json:"error,omitempty"`
}

// NewHandler creates a new HTTP handler for the manager.
func NewHandler(manager *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Manager: manager,
		Streams: NewStreamManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}
	s.Streams.logger = s.Logger

	r := chi.NewRouter()
	spec, err := LoadSpec()
	if err != nil {
		s.Logger.Error("OpenAPI document unavailable", "err", err)
	} else {
		s.spec = spec
		if v := strings.TrimSpace(s.Version); v != "" {
			spec.Info.Version = v
		}
		// middlewares go before any route on a chi mux
		if s.Validate {
			router, err := legacyrouter.NewRouter(spec)
			if err != nil {
				s.Logger.Error("request validation disabled", "err", err)
			} else {
				r.Use(s.validateRequests(router))
			}
		}
		r.Get("/openapi.json", s.GetOpenAPI)
		r.Get("/swagger", s.GetSwagger)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/input", s.SubmitInput)
			r.Post("/stop", s.StopSession)
			r.Post("/tasks/{taskID}/complete", s.CompleteTask)
		})
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartSession handles POST /sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, "StartSession", err)
		return
	}

	id, turn, err := s.Manager.Start(r.Context(), body.SessionID)
	s.respondTurn(w, "StartSession", id, turn, err, http.StatusCreated)
}

// SubmitInput handles POST /sessions/{id}/input.
func (s *Server) SubmitInput(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body InputRequest
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, "SubmitInput", err)
		return
	}

	clean, err := runner.SanitizeInput(body.Text)
	if err != nil {
		s.Logger.Warn("SubmitInput: input rejected", "err", err, "size", len(body.Text))
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		return
	}

	turn, err := s.Manager.Input(r.Context(), id, clean)
	s.respondTurn(w, "SubmitInput", id, turn, err, http.StatusOK)
}

// CompleteTask handles POST /sessions/{id}/tasks/{taskID}/complete.
func (s *Server) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, taskID := chi.URLParam(r, "id"), chi.URLParam(r, "taskID")
	var body CompleteRequest
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, "CompleteTask", err)
		return
	}
	switch body.Outcome {
	case "":
		body.Outcome = domain.OutcomeSaturated
	case domain.OutcomeSaturated, domain.OutcomeAborted:
	default:
		http.Error(w, fmt.Sprintf("Unknown outcome %q", body.Outcome), http.StatusBadRequest)
		return
	}

	turn, err := s.Manager.Complete(r.Context(), id, taskID, body.Outcome)
	s.respondTurn(w, "CompleteTask", id, turn, err, http.StatusOK)
}

// StopSession handles POST /sessions/{id}/stop.
func (s *Server) StopSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	turn, err := s.Manager.Stop(r.Context(), id)
	s.respondTurn(w, "StopSession", id, turn, err, http.StatusOK)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Manager.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetGraph handles GET /graph. It returns Mermaid text, overlaid with the
// path of ?session_id= when given, or the graph itself with ?format=json.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.Manager.Graph(r.Context())
	if err != nil {
		s.fail(w, "GetGraph", err)
		return
	}
	if r.URL.Query().Get("format") == "json" {
		s.writeJSON(w, http.StatusOK, g)
		return
	}

	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("session_id"); id != "" {
		snap, err := s.Manager.Load(r.Context(), id)
		if err != nil {
			s.fail(w, "GetGraph", err)
			return
		}
		overlay = graph.OverlayFromSession(snap)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(g, overlay))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	version := strings.TrimSpace(s.Version)
	if version == "" {
		version = "unknown"
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "slotflow-http",
		"version": version,
	})
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE). Each turn
// produced for the session through this server is sent as one event.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID := chi.URLParam(r, "id")
	s.Logger.Info("SSE: subscribing to session turns", "session_id", sessionID)

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: turn\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// slow client
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// -- Helpers --

func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, int64(runner.MaxInputSize())*4))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return codec.Unmarshal(data, v)
}

func (s *Server) respondTurn(w http.ResponseWriter, op, sessionID string, turn runtime.Turn, err error, okStatus int) {
	if err != nil && !domain.IsConfigError(err) {
		s.fail(w, op, err)
		return
	}
	resp := TurnResponse{SessionID: sessionID, Turn: turn}
	status := okStatus
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusUnprocessableEntity
	}
	if !turn.Ignored {
		if data, mErr := codec.Marshal(resp); mErr == nil {
			s.Streams.Broadcast(sessionID, string(data))
		}
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) badRequest(w http.ResponseWriter, op string, err error) {
	s.Logger.Warn(op+": invalid request body", "err", err)
	http.Error(w, "Invalid request body", http.StatusBadRequest)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	s.Logger.Error(op+" failed", "err", err)
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := codec.Marshal(v)
	if err != nil {
		s.Logger.Error("response encode failed", "err", err)
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
