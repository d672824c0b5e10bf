package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/psys/internal/compiler"
	"github.com/aretw0/psys/internal/validator"
	"github.com/aretw0/psys/pkg/adapters/memory"
	"github.com/aretw0/psys/pkg/domain"
	"github.com/aretw0/psys/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const runsURI = "psy://runs"

// SimulateArgs are the arguments of the simulate tool.
type SimulateArgs struct {
	Rules       string `json:"rules"`
	State       string `json:"state"`
	DetectLoops bool   `json:"detect_loops"`
}

// SimulateResult is the structured output of the simulate tool.
type SimulateResult struct {
	RunID  string            `json:"run_id,omitempty" jsonschema_description:"ID of the stored run record, if runs are recorded"`
	Output string            `json:"output" jsonschema_description:"Final multiset, symbols in alphabetical order"`
	Final  map[string]uint64 `json:"final" jsonschema_description:"Non-zero symbol counts of the final multiset"`
	Steps  int               `json:"steps" jsonschema_description:"Number of steps in which a rule fired"`
	Status domain.Status     `json:"status" jsonschema_description:"halted, diverged or failed"`
}

// ValidateArgs are the arguments of the validate_rules tool.
type ValidateArgs struct {
	Rules string  `json:"rules"`
	State *string `json:"state,omitempty"`
}

// ValidateResult is the structured output of the validate_rules tool.
type ValidateResult struct {
	Rules    int                 `json:"rules" jsonschema_description:"Number of rules parsed"`
	Tokens   []string            `json:"tokens" jsonschema_description:"Rule tokens in application order"`
	Warnings []validator.Finding `json:"warnings" jsonschema_description:"Rules that never fire or can keep a run alive"`
}

// Server exposes the simulator as an MCP Server.
type Server struct {
	factory   ports.SimulatorFactory
	store     ports.RunStore
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. store may be nil, in which
// case no run resources are registered.
func NewServer(factory ports.SimulatorFactory, store ports.RunStore, version string) *Server {
	s := &Server{
		factory:   factory,
		store:     store,
		mcpServer: server.NewMCPServer("psy-mcp", strings.TrimSpace(version)),
	}
	s.registerTools()
	if store != nil {
		s.registerResources()
	}
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
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

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
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

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: simulate
	simulateTool := mcp.NewTool("simulate",
		mcp.WithDescription("Run a P-system: rewrite the initial multiset with the rules until none applies. "+
			"Each whitespace-separated token is a rule; lowercase a-e are consumed, uppercase A-E produced."),
		mcp.WithString("rules", mcp.Required(), mcp.Description("Rule text, e.g. \"aaB bC\". Lines starting with # are comments.")),
		mcp.WithString("state", mcp.Required(), mcp.Description("Initial state; every a-e in either case counts once")),
		mcp.WithBoolean("detect_loops", mcp.Description("Fail as soon as a state contains an earlier one")),
		mcp.WithOutputSchema[SimulateResult](),
	)
	s.mcpServer.AddTool(simulateTool, mcp.NewStructuredToolHandler(s.handleSimulate))

	// TOOL: validate_rules
	validateTool := mcp.NewTool("validate_rules",
		mcp.WithDescription("Parse rule text and report the rules it defines."),
		mcp.WithString("rules", mcp.Required(), mcp.Description("Rule text")),
		mcp.WithString("state", mcp.Description("Optional initial state; rules that cannot fire from it are reported")),
		mcp.WithOutputSchema[ValidateResult](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))
}

func (s *Server) handleSimulate(ctx context.Context, request mcp.CallToolRequest, args SimulateArgs) (SimulateResult, error) {
	sim, err := s.factory(ctx, ports.SimulationRequest{
		Rules:       memory.NewLoader("rules", args.Rules),
		DetectLoops: args.DetectLoops,
	})
	if err != nil {
		return SimulateResult{}, err
	}

	res, err := sim.Run(ctx, domain.NewMultiset(args.State))
	if err != nil {
		slog.Debug("MCP simulate: run failed", "status", res.Status, "error", err)
		return SimulateResult{}, err
	}
	return SimulateResult{
		RunID:  res.RunID,
		Output: res.Final.String(),
		Final:  res.Final.Counts(),
		Steps:  res.Steps,
		Status: res.Status,
	}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args ValidateArgs) (ValidateResult, error) {
	rules, err := compiler.ParseRules(strings.NewReader(args.Rules), "rules")
	if err != nil {
		return ValidateResult{}, err
	}
	var initial *domain.Multiset
	if args.State != nil {
		m := domain.NewMultiset(*args.State)
		initial = &m
	}
	return ValidateResult{
		Rules:    len(rules),
		Tokens:   rules.Tokens(),
		Warnings: append([]validator.Finding{}, validator.ValidateRules(rules, initial)...),
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: psy://runs
	s.mcpServer.AddResource(mcp.NewResource(runsURI, "Recorded Runs",
		mcp.WithResourceDescription("IDs of recorded simulation runs"),
		mcp.WithMIMEType("application/json"),
	), s.readRuns)

	// EXPOSE: psy://runs/{id}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(runsURI+"/{id}", "Run Record",
		mcp.WithTemplateDescription("A recorded simulation run"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readRun)
}

func (s *Server) readRuns(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return jsonContents(request.Params.URI, ids)
}

func (s *Server) readRun(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id := strings.TrimPrefix(request.Params.URI, runsURI+"/")
	if id == "" || id == request.Params.URI {
		return nil, fmt.Errorf("invalid run URI %q", request.Params.URI)
	}
	rec, err := s.store.Load(ctx, id)
	if errors.Is(err, domain.ErrRunNotFound) {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return jsonContents(request.Params.URI, rec)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
