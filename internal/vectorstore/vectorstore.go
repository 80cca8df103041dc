package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"document-chat/internal/config"
	"document-chat/internal/models"
)

const compress = false

// Record is one chunk ready for storage: text, embedding and metadata.
type Record struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// Store encapsulates the chromem-go database operations
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// Open initializes the vector store, persistent unless configured in-memory.
func Open(cfg *config.VectorStoreConfig) (*Store, error) {
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	// embeddings are always provided by the caller, so no embedding func
	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}

	return &Store{db: db, collection: collection}, nil
}

// Add appends records to the collection.
func (s *Store) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Content,
			Metadata:  r.Metadata,
			Embedding: r.Embedding,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Search returns up to k records nearest to the query embedding.
func (s *Store) Search(ctx context.Context, queryEmbedding []float32, k int) ([]models.SearchResult, error) {
	return s.searchWhere(ctx, queryEmbedding, k, nil)
}

// SearchDocument is Search restricted to records of a single file id.
func (s *Store) SearchDocument(ctx context.Context, queryEmbedding []float32, k int, fileID int64) ([]models.SearchResult, error) {
	return s.searchWhere(ctx, queryEmbedding, k, whereFileID(fileID))
}

func (s *Store) searchWhere(ctx context.Context, queryEmbedding []float32, k int, where map[string]string) ([]models.SearchResult, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem rejects nResults larger than the collection
	if k > count {
		k = count
	}
	results, err := s.collection.QueryEmbedding(ctx, queryEmbedding, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	out := make([]models.SearchResult, len(results))
	for i, r := range results {
		out[i] = models.SearchResult{
			Content:    r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

// DeleteDocument removes every record tagged with the given file id.
// Deleting an id with no records is a no-op.
func (s *Store) DeleteDocument(ctx context.Context, fileID int64) error {
	if s.collection.Count() == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, whereFileID(fileID), nil); err != nil {
		return fmt.Errorf("failed to delete records for file %d: %w", fileID, err)
	}
	return nil
}

// HasDocument reports whether any record carries the given file id. The probe
// embedding is only used to drive the similarity query; any vector of the
// collection's dimensionality works.
func (s *Store) HasDocument(ctx context.Context, fileID int64, probe []float32) (bool, error) {
	results, err := s.searchWhere(ctx, probe, 1, whereFileID(fileID))
	if err != nil {
		return false, err
	}
	return len(results) > 0, nil
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	return s.collection.Count()
}

func whereFileID(fileID int64) map[string]string {
	return map[string]string{models.MetaFileID: strconv.FormatInt(fileID, 10)}
}
