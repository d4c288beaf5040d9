package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/contextcat/internal/aggregate"
	"github.com/dgallion1/contextcat/internal/config"
	"github.com/dgallion1/contextcat/internal/pipeline"
	"github.com/dgallion1/contextcat/internal/settings"
	"github.com/dgallion1/contextcat/internal/vault"
)

// Server is the HTTP API server for contextcat.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	agg          *aggregate.Aggregator
	vault        vault.Vault
	settings     *settings.Store
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, agg *aggregate.Aggregator, v vault.Vault, store *settings.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		agg:          agg,
		vault:        v,
		settings:     store,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/aggregate", s.handleAggregate)
		r.Post("/api/runs", s.handleSubmitRun)
		r.Get("/api/runs/{jobID}/status", s.handleRunStatus)

		r.Get("/api/settings", s.handleGetSettings)
		r.Put("/api/settings", s.handlePutSettings)
		r.Get("/api/folders", s.handleFolders)

		r.Get("/api/stats/runs", s.handleRunStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
