package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/slotflow/internal/codec"
	"github.com/aretw0/slotflow/internal/logging"
	"github.com/aretw0/slotflow/internal/presentation/graph"
	"github.com/aretw0/slotflow/internal/runtime"
	"github.com/aretw0/slotflow/pkg/domain"
	"github.com/aretw0/slotflow/pkg/runner"
	"github.com/aretw0/slotflow/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	GraphURI        = "slotflow://graph"
	GraphMermaidURI = "slotflow://graph/mermaid"
)

// TurnResponse is the structured result of every dialogue tool.
type TurnResponse struct {
	SessionID string       `json:"session_id" jsonschema_description:"The session the turn belongs to"`
	Turn      runtime.Turn `json:"turn" jsonschema_description:"Messages emitted and the resulting status"`
	Error     string       `json:"error,omitempty" jsonschema_description:"Configuration error that halted the flow, if any"`
}

// StartArgs are the arguments of start_session.
type StartArgs struct {
	SessionID string `json:"session_id,omitempty"`
}

// InputArgs are the arguments of submit_input.
type InputArgs struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// CompleteArgs are the arguments of complete_task.
type CompleteArgs struct {
	SessionID string `json:"session_id"`
	TaskID    string `json:"task_id"`
	Outcome   string `json:"outcome,omitempty"`
}

// SessionArgs identify a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// Server wraps a session manager and exposes it as an MCP Server.
type Server struct {
	manager   *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(manager *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		manager:   manager,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("slotflow-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	listenErr := make(chan error, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		s.logger.Info("mcp sse listening", "addr", addr, "base_url", baseURL)
		listenErr <- httpServer.ListenAndServe()
		return nil
	})

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a dialogue from the entry node. Returns the first prompts."),
		mcp.WithString("session_id", mcp.Description("Session ID to use (optional, generated when omitted)")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("submit_input",
		mcp.WithDescription("Send the user's answer to the task waiting for input."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("text", mcp.Required(), mcp.Description("User input; empty counts as no input")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleInput))

	s.mcpServer.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Force-resolve the waiting task and continue the flow."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("ID of the waiting task")),
		mcp.WithString("outcome", mcp.Enum(string(domain.OutcomeSaturated), string(domain.OutcomeAborted)), mcp.Description("saturated (default) or aborted")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleComplete))

	s.mcpServer.AddTool(mcp.NewTool("stop_session",
		mcp.WithDescription("Stop a dialogue, keeping its transcript."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleStop))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the full session snapshot: slots, captured values, transcript."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), mcp.NewStructuredToolHandler(s.handleGetSession))
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args StartArgs) (TurnResponse, error) {
	id, turn, err := s.manager.Start(ctx, args.SessionID)
	return s.respond(id, turn, err)
}

func (s *Server) handleInput(ctx context.Context, _ mcp.CallToolRequest, args InputArgs) (TurnResponse, error) {
	clean, err := runner.SanitizeInput(args.Text)
	if err != nil {
		s.logger.Warn("MCP submit_input: input rejected", "err", err, "size", len(args.Text))
		return TurnResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	turn, err := s.manager.Input(ctx, args.SessionID, clean)
	return s.respond(args.SessionID, turn, err)
}

func (s *Server) handleComplete(ctx context.Context, _ mcp.CallToolRequest, args CompleteArgs) (TurnResponse, error) {
	outcome := domain.Outcome(args.Outcome)
	switch outcome {
	case "":
		outcome = domain.OutcomeSaturated
	case domain.OutcomeSaturated, domain.OutcomeAborted:
	default:
		return TurnResponse{}, fmt.Errorf("unknown outcome %q", args.Outcome)
	}
	turn, err := s.manager.Complete(ctx, args.SessionID, args.TaskID, outcome)
	return s.respond(args.SessionID, turn, err)
}

func (s *Server) handleStop(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (TurnResponse, error) {
	turn, err := s.manager.Stop(ctx, args.SessionID)
	return s.respond(args.SessionID, turn, err)
}

func (s *Server) handleGetSession(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (*domain.Session, error) {
	snap, err := s.manager.Load(ctx, args.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get_session failed: %w", err)
	}
	return snap, nil
}

func (s *Server) respond(sessionID string, turn runtime.Turn, err error) (TurnResponse, error) {
	if err != nil && !domain.IsConfigError(err) {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Error("MCP tool failed", "session_id", sessionID, "err", err)
		}
		return TurnResponse{}, err
	}
	resp := TurnResponse{SessionID: sessionID, Turn: turn}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Flow Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		g, err := s.manager.Graph(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load graph: %w", err)
		}
		data, err := codec.Marshal(g)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: GraphURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(GraphMermaidURI, "Flow Graph (Mermaid)",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		g, err := s.manager.Graph(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: GraphMermaidURI, MIMEType: "text/plain", Text: graph.GenerateMermaid(g, nil)},
		}, nil
	})
}
