// Package daemon wires configuration into a running agent service:
// providers, tools, roster, loop, session store, and the HTTP transports.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/codeforge-ai/codeforge/internal/agent"
	"github.com/codeforge-ai/codeforge/internal/config"
	"github.com/codeforge-ai/codeforge/internal/llm/configbuilder"
	"github.com/codeforge-ai/codeforge/internal/memory"
	"github.com/codeforge-ai/codeforge/internal/observability"
	agentrpc "github.com/codeforge-ai/codeforge/internal/rpc/agent"
	toolrpc "github.com/codeforge-ai/codeforge/internal/rpc/tools"
	"github.com/codeforge-ai/codeforge/internal/session"
	"github.com/codeforge-ai/codeforge/internal/tools"
	"github.com/codeforge-ai/codeforge/internal/workspace"
)

// Server hosts the agent RPC endpoints plus health and metrics.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	runner   agentrpc.Runner
	metrics  *observability.Metrics
	tools    *tools.Registry
	sessions *session.Store
}

// NewServer constructs a daemon instance from configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	registry, err := configbuilder.BuildRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	resolver, err := workspace.NewResolver(cfg.Sandbox.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}

	allowWrite := cfg.Sandbox.AllowWrite && cfg.Tools.AllowFileWrite
	fs := tools.NewFilesystem(resolver, allowWrite)
	terminal := &tools.Terminal{
		WorkingDir:     resolver.Root(),
		Allowed:        cfg.Sandbox.AllowedCommands,
		Denied:         cfg.Sandbox.DeniedCommands,
		Timeout:        time.Duration(cfg.Tools.ExecTimeoutSeconds) * time.Second,
		AllowExecution: cfg.Tools.AllowExec && cfg.Sandbox.Enabled,
	}
	gitTool := &tools.GitTool{
		WorkingDir: resolver.Root(),
		AllowExec:  cfg.Tools.AllowGit,
		DryRunOnly: !allowWrite,
	}
	toolRegistry := tools.NewRegistry(fs, terminal, gitTool)
	dispatcher := tools.NewDispatcher(toolRegistry)

	roster := agent.NewRoster()
	if err := roster.ApplyOverrides(cfg.Roles); err != nil {
		return nil, fmt.Errorf("role overrides: %w", err)
	}
	if cfg.Agent.RolesFile != "" {
		overrides, err := config.LoadRoleOverrides(cfg.Agent.RolesFile)
		if err != nil {
			return nil, fmt.Errorf("roles file: %w", err)
		}
		if err := roster.ApplyOverrides(overrides); err != nil {
			return nil, fmt.Errorf("roles file: %w", err)
		}
	}

	strategy := agent.NewStrategyEngine(registry, cfg.Strategy)
	compactor := memory.NewCompactor(registry, cfg.Memory, logger)
	loop := agent.NewLoop(strategy, dispatcher, compactor, roster, cfg.Agent, logger)

	var sessions *session.Store
	if cfg.Session.Enabled {
		sessions, err = session.Open(cfg.Session.Path)
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
	}

	metrics := observability.NewMetrics()
	runner := &agentrpc.AgentRunner{
		Loop:      loop,
		Roster:    roster,
		Sessions:  sessions,
		Metrics:   metrics,
		Workspace: resolver.Root(),
		Logger:    logger,
	}

	return &Server{
		cfg:      cfg,
		logger:   logger,
		runner:   runner,
		metrics:  metrics,
		tools:    toolRegistry,
		sessions: sessions,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or a
// fatal error.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.Handle("/tools/schemas", toolrpc.SchemaHandler{Registry: s.tools})

	switch strings.ToLower(strings.TrimSpace(s.cfg.Server.Transport)) {
	case "ndjson":
		mux.Handle("/agent/run", agentrpc.NewHandler(s.runner, s.metrics))
	default:
		path, handler := agentrpc.NewConnectHandler(s.runner, s.metrics)
		mux.Handle(path, handler)
		// NDJSON stays mounted for curl-style clients.
		mux.Handle("/agent/run", agentrpc.NewHandler(s.runner, s.metrics))
	}

	handler := http.Handler(mux)
	if strings.ToLower(strings.TrimSpace(s.cfg.Server.Transport)) != "ndjson" {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting codeforge daemon", zap.String("addr", s.cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down codeforge daemon")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if s.sessions != nil {
		if err := s.sessions.Close(); err != nil {
			s.logger.Warn("session store close failed", zap.Error(err))
		}
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled {
		http.NotFound(w, r)
		return
	}
	promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
