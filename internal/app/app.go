package app

import (
	"fmt"
	"net/http"

	"github.com/fpltools/fpl-mcp/external/fpl"
	"github.com/fpltools/fpl-mcp/internal/config"
	"github.com/fpltools/fpl-mcp/internal/interfaces/mcpapi"
	"github.com/fpltools/fpl-mcp/internal/platform/cache"
	"github.com/fpltools/fpl-mcp/internal/platform/logging"
	"github.com/fpltools/fpl-mcp/internal/platform/resilience"
	"github.com/fpltools/fpl-mcp/internal/usecase"
)

// NewHTTPServer wires config through the upstream adapters and services to
// the MCP endpoint. The returned cleanup releases the session worker pool
// and runs after the server has shut down.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}

	store := cache.NewStore(cfg.FPLCacheTTL)

	client := fpl.NewClient(fpl.ClientConfig{
		BaseURL:   cfg.FPLBaseURL,
		UserAgent: cfg.FPLUserAgent,
		Timeout:   cfg.FPLTimeout,
		Logger:    logger,
		Cache:     store,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
	})

	sessions, err := fpl.NewSessionManager(fpl.SessionConfig{
		Email:      cfg.FPLEmail,
		Password:   cfg.FPLPassword,
		TeamID:     cfg.FPLTeamID,
		BaseURL:    cfg.FPLBaseURL,
		LoginURL:   cfg.FPLLoginURL,
		UserAgent:  cfg.FPLUserAgent,
		Timeout:    cfg.FPLTimeout,
		SessionTTL: cfg.FPLSessionTTL,
		Workers:    cfg.FPLAuthWorkers,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build session manager: %w", err)
	}

	playerSvc := usecase.NewPlayerService(client, logger)
	fixtureSvc := usecase.NewFixtureService(client, logger)
	entrySvc := usecase.NewEntryService(client, sessions, logger)

	api := mcpapi.NewServer(
		mcpapi.Config{Name: cfg.ServiceName, Version: cfg.ServiceVersion},
		playerSvc,
		fixtureSvc,
		entrySvc,
		client,
		logger,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle(cfg.MCPPath, api.Handler())

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	cleanup := func() {
		sessions.Close()
	}

	return server, cleanup, nil
}
