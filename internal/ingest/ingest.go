package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"document-chat/internal/embedding"
	"document-chat/internal/models"
	"document-chat/internal/parser"
	"document-chat/internal/vectorstore"
)

// Pipeline indexes documents: load, chunk, embed, store.
type Pipeline struct {
	store        *vectorstore.Store
	embedder     embeddings.Embedder
	chunkSize    int
	chunkOverlap int
}

func NewPipeline(store *vectorstore.Store, embedder embeddings.Embedder, chunkSize, chunkOverlap int) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = parser.DefaultChunkSize
	}
	if chunkOverlap <= 0 {
		chunkOverlap = parser.DefaultChunkOverlap
	}
	return &Pipeline{
		store:        store,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest indexes one document under the given file id. The registry record
// for fileID is created by the caller beforehand; on error the caller is
// responsible for rolling it back.
func (p *Pipeline) Ingest(ctx context.Context, filePath string, fileID int64) error {
	chunks, err := parser.LoadAndChunk(filePath, p.chunkSize, p.chunkOverlap)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	if len(chunks) == 0 {
		log.Warn().Str("file", filePath).Int64("file_id", fileID).Msg("no chunks generated from document")
		return nil
	}

	vectors, err := embedding.EmbedChunks(ctx, p.embedder, chunks)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	source := filepath.Base(filePath)
	records := make([]vectorstore.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = vectorstore.Record{
			ID:        fmt.Sprintf("%d-%d", fileID, chunk.Index),
			Content:   chunk.Content,
			Embedding: vectors[i],
			Metadata: map[string]string{
				models.MetaFileID: strconv.FormatInt(fileID, 10),
				models.MetaSource: source,
				models.MetaChunk:  strconv.Itoa(chunk.Index),
			},
		}
	}

	if err := p.store.Add(ctx, records); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	log.Info().Int64("file_id", fileID).Int("chunks", len(chunks)).Msg("document indexed")
	return nil
}
