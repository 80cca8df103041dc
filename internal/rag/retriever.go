package rag

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"

	"document-chat/internal/models"
	"document-chat/internal/vectorstore"
)

const defaultTopK = 2

// Retriever embeds a query and runs a fixed top-k similarity search. No
// reranking, no score threshold.
type Retriever struct {
	store    *vectorstore.Store
	embedder embeddings.Embedder
	topK     int
}

func NewRetriever(store *vectorstore.Store, embedder embeddings.Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Retriever{store: store, embedder: embedder, topK: topK}
}

// Retrieve returns the stored chunks nearest to the query.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.SearchResult, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return r.store.Search(ctx, queryEmbedding, r.topK)
}
