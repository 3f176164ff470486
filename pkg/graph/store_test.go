package graph

import (
	"context"
	"testing"

	"rag-knowledge-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStubStore(nil, logger.NewNopLogger())
}

func TestStubStoreQuery(t *testing.T) {
	store := newTestStore(t)
	require.True(t, store.IsStub())

	result, err := store.Query(context.Background(), 42, 100)
	require.NoError(t, err)
	assert.True(t, result.IsStub)

	require.Len(t, result.Nodes, 3)
	assert.Equal(t, "Concept A", result.Nodes[0].Name)
	assert.Equal(t, "entity_1", result.Nodes[0].Id)

	require.Len(t, result.Edges, 2)
	assert.Equal(t, "RELATED_TO", result.Edges[0].Type)
	assert.Equal(t, 0.8, result.Edges[0].Weight)
	assert.Equal(t, "DEPENDS_ON", result.Edges[1].Type)
	assert.Equal(t, 0.9, result.Edges[1].Weight)
}

func TestStubStoreStats(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.Stats(context.Background(), 42)
	require.NoError(t, err)
	assert.Zero(t, stats.EntityCount)
	assert.Zero(t, stats.RelationCount)
}

func TestStubStoreWritesAreNoOps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Store(ctx, 1, []Entity{{Name: "X"}}, []Relation{{Source: "X", Target: "Y"}})
	require.NoError(t, err)

	deleted, err := store.DeleteDocumentEntities(ctx, 1, "/docs/a.pdf")
	require.NoError(t, err)
	assert.Zero(t, deleted.EntitiesRemoved)
	assert.Zero(t, deleted.RelationsRemoved)

	require.NoError(t, store.DeleteKBGraph(ctx, 1))
}

func TestDisplayID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Concept A", "Concept_A"},
		{"already_joined", "already_joined"},
		{"  padded   name ", "padded_name"},
		{"tab\tseparated", "tab_separated"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayID(tt.in))
	}
}

func TestSanitizeRelType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CAUSES", "CAUSES"},
		{"PART_OF", "PART_OF"},
		{"STORED_IN2", "STORED_IN2"},
		{"", "RELATED"},
		{"lower", "RELATED"},
		{"DROP ALL", "RELATED"},
		{"X;MATCH", "RELATED"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeRelType(tt.in))
	}
}
