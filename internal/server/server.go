// Package server provides the HTTP API of the document chat service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"

	"document-chat/internal/config"
	"document-chat/internal/models"
	"document-chat/internal/vectorstore"
)

// Ingester indexes an uploaded file under a registry id.
type Ingester interface {
	Ingest(ctx context.Context, filePath string, fileID int64) error
}

// Answerer produces one chat answer from a question and session history.
type Answerer interface {
	Answer(ctx context.Context, modelName, question string, history []models.ChatMessage) (string, error)
	SupportsModel(name string) bool
}

// Server wires the HTTP surface to the registry, vector store, ingestion
// pipeline and answer engine.
type Server struct {
	db       *bun.DB
	vectors  *vectorstore.Store
	pipeline Ingester
	engine   Answerer
	embedder embeddings.Embedder
	cfg      *config.Config
	server   *http.Server
}

func New(db *bun.DB, vectors *vectorstore.Store, pipeline Ingester, engine Answerer, embedder embeddings.Embedder, cfg *config.Config) *Server {
	return &Server{
		db:       db,
		vectors:  vectors,
		pipeline: pipeline,
		engine:   engine,
		embedder: embedder,
		cfg:      cfg,
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Post("/chat", s.handleChat)
	r.Post("/upload-doc", s.handleUploadDoc)
	r.Get("/list-docs", s.handleListDocs)
	r.Post("/delete-doc", s.handleDeleteDoc)
	r.Get("/audit", s.handleAudit)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	log.Info().Str("addr", addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}
