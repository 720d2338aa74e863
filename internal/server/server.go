// Package server hosts the partschat HTTP API.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/partschat/internal/db"
	"github.com/ziadkadry99/partschat/internal/llm"
	"github.com/ziadkadry99/partschat/internal/vectordb"
)

// Config holds server configuration.
type Config struct {
	Port     int
	DataDir  string // directory for SQLite DB and vector data
	AllowAll bool   // allow all CORS origins (dev mode)
}

// Server is the partschat API server.
type Server struct {
	cfg         Config
	db          *db.DB
	store       vectordb.VectorStore
	llmProvider llm.Provider
	llmModel    string
	router      chi.Router
	httpServer  *http.Server
}

// New creates the server and its router. Feature packages register their
// routes on Router().
func New(cfg Config, database *db.DB, store vectordb.VectorStore, llmProvider llm.Provider, llmModel string) *Server {
	s := &Server{
		cfg:         cfg,
		db:          database,
		store:       store,
		llmProvider: llmProvider,
		llmModel:    llmModel,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes are registered by feature packages via RegisterRoutes.

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.db }

// Store returns the vector store.
func (s *Server) Store() vectordb.VectorStore { return s.store }

// LLMProvider returns the LLM provider.
func (s *Server) LLMProvider() llm.Provider { return s.llmProvider }

// LLMModel returns the configured LLM model name.
func (s *Server) LLMModel() string { return s.llmModel }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Streaming responses can stay open for a while.
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("partschat server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
