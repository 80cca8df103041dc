package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-chat/internal/config"
	"document-chat/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(&config.VectorStoreConfig{InMemory: true, Collection: "test"})
	require.NoError(t, err)
	return store
}

func record(id string, fileID string, content string, embedding []float32) Record {
	return Record{
		ID:        id,
		Content:   content,
		Embedding: embedding,
		Metadata:  map[string]string{models.MetaFileID: fileID},
	}
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	err := store.Add(context.Background(), []Record{
		record("1-0", "1", "alpha chunk one", []float32{1, 0, 0}),
		record("1-1", "1", "alpha chunk two", []float32{0.9, 0.1, 0}),
		record("2-0", "2", "beta chunk", []float32{0, 1, 0}),
	})
	require.NoError(t, err)
}

func TestStore_AddAndSearch(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	results, err := store.Search(context.Background(), []float32{1, 0, 0}, 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha chunk one", results[0].Content)
	assert.Equal(t, "alpha chunk two", results[1].Content)
	assert.Equal(t, "1", results[0].Metadata[models.MetaFileID])
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
}

func TestStore_SearchClampsK(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	results, err := store.Search(context.Background(), []float32{1, 0, 0}, 50)

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestStore_SearchEmptyCollection(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Search(context.Background(), []float32{1, 0, 0}, 2)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_SearchDocumentScopedByFileID(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	results, err := store.SearchDocument(context.Background(), []float32{1, 0, 0}, 10, 1)

	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "1", r.Metadata[models.MetaFileID])
	}
}

func TestStore_DeleteDocumentRemovesAllAndOnlyThatFile(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)

	require.NoError(t, store.DeleteDocument(ctx, 1))

	assert.Equal(t, 1, store.Count())
	results, err := store.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "1", r.Metadata[models.MetaFileID])
	}
}

func TestStore_DeleteDocumentIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)

	require.NoError(t, store.DeleteDocument(ctx, 1))
	require.NoError(t, store.DeleteDocument(ctx, 1))

	// unknown id on an empty collection is also a no-op
	require.NoError(t, store.DeleteDocument(ctx, 2))
	require.NoError(t, store.DeleteDocument(ctx, 99))
	assert.Equal(t, 0, store.Count())
}

func TestStore_HasDocument(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store)
	probe := []float32{1, 1, 1}

	ok, err := store.HasDocument(ctx, 1, probe)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.HasDocument(ctx, 99, probe)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.DeleteDocument(ctx, 1))
	ok, err = store.HasDocument(ctx, 1, probe)
	require.NoError(t, err)
	assert.False(t, ok)
}
