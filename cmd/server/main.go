package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"document-chat/internal/config"
	"document-chat/internal/db"
	"document-chat/internal/embedding"
	"document-chat/internal/helper"
	"document-chat/internal/ingest"
	"document-chat/internal/llmservice"
	"document-chat/internal/rag"
	"document-chat/internal/server"
	"document-chat/internal/vectorstore"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx := context.Background()

	bunDB, err := db.Connect(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	defer bunDB.Close()

	if err := db.InitDB(ctx, bunDB); err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}

	if !cfg.VectorStore.InMemory {
		if err := helper.CreateFolder(cfg.VectorStore.Path); err != nil {
			log.Fatal().Err(err).Msg("Error creating vector store folder")
		}
	}
	vectors, err := vectorstore.Open(&cfg.VectorStore)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}

	// models are loaded once here and shared for the process lifetime
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	chatModels, err := llmservice.NewChatModels(&cfg.Chat)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat models")
	}

	retriever := rag.NewRetriever(vectors, embedder, cfg.RAG.TopK)
	engine := rag.NewEngine(retriever, chatModels, &cfg.Chat, cfg.RAG.MaxContextChars)
	pipeline := ingest.NewPipeline(vectors, embedder, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)

	srv := server.New(bunDB, vectors, pipeline, engine, embedder, cfg)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Error running server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
}
