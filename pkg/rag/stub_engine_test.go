package rag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, cfg Config) *StubEngine {
	t.Helper()
	if cfg.WorkingDir == "" {
		cfg.WorkingDir = t.TempDir()
	}
	engine, err := NewStubEngine(cfg, ModelFuncs{})
	require.NoError(t, err)
	return engine
}

func TestNewStubEngineRequiresWorkingDir(t *testing.T) {
	_, err := NewStubEngine(Config{}, ModelFuncs{})
	assert.Error(t, err)
}

func TestStubEngineProcessDocument(t *testing.T) {
	engine := newTestEngine(t, Config{EnableImage: true, EnableTable: true, EnableEquation: true})

	docPath := filepath.Join(t.TempDir(), "notes.md")
	content := "Alice Cooper visited Paris last spring.\n\n" +
		"![diagram](diagram.png)\n\n" +
		"| city | year |\n| Paris | 2024 |\n\n" +
		"$$ e = mc^2 $$\n\n" +
		"Bob Dylan recorded with Alice Cooper."
	require.NoError(t, os.WriteFile(docPath, []byte(content), 0o644))

	stats, err := engine.ProcessDocument(context.Background(), docPath)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TextCount)
	assert.Equal(t, 1, stats.ImageCount)
	assert.Equal(t, 1, stats.TableCount)
	assert.Equal(t, 1, stats.EquationCount)

	status, err := engine.DocStatus(context.Background(), docPath)
	require.NoError(t, err)
	assert.Equal(t, DocStatusProcessed, status)

	data, err := engine.GraphData(context.Background())
	require.NoError(t, err)
	nodes, ok := data.Nodes.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, nodes, "Alice Cooper")
	assert.Contains(t, nodes, "Paris")
	assert.Contains(t, nodes, "Bob Dylan")

	rec, ok := nodes["Paris"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, docPath, rec["file_path"])
	assert.Equal(t, "concept", rec["entity_type"])

	edges, ok := data.Edges.([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, edges)

	pairs, err := engine.RelationPairs(context.Background())
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, docPath, pairs[0]["file_path"])
}

func TestStubEngineProcessDocumentMissingFile(t *testing.T) {
	engine := newTestEngine(t, Config{})
	docPath := filepath.Join(t.TempDir(), "missing.txt")

	_, err := engine.ProcessDocument(context.Background(), docPath)
	require.Error(t, err)

	status, err := engine.DocStatus(context.Background(), docPath)
	require.NoError(t, err)
	assert.Equal(t, DocStatusFailed, status)
}

func TestStubEngineParseStatsTogglesOff(t *testing.T) {
	engine := newTestEngine(t, Config{})
	stats := engine.parseStats("plain text\n\n![img](a.png)\n\n| a | b |\n\n$$ x $$")
	assert.Equal(t, 4, stats.TextCount)
	assert.Zero(t, stats.ImageCount)
	assert.Zero(t, stats.TableCount)
	assert.Zero(t, stats.EquationCount)
}

func TestStubEngineMergeAccumulatesAcrossDocuments(t *testing.T) {
	engine := newTestEngine(t, Config{})
	dir := t.TempDir()

	first := filepath.Join(dir, "first.txt")
	require.NoError(t, os.WriteFile(first, []byte("Neptune orbits the Sun."), 0o644))
	second := filepath.Join(dir, "second.txt")
	require.NoError(t, os.WriteFile(second, []byte("Saturn orbits the Sun."), 0o644))

	_, err := engine.ProcessDocument(context.Background(), first)
	require.NoError(t, err)
	_, err = engine.ProcessDocument(context.Background(), second)
	require.NoError(t, err)

	data, err := engine.GraphData(context.Background())
	require.NoError(t, err)
	nodes := data.Nodes.(map[string]interface{})
	assert.Contains(t, nodes, "Neptune")
	assert.Contains(t, nodes, "Saturn")
}

func TestCapitalizedPhrases(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"joins adjacent capitals", "Alice Cooper sang in Detroit", []string{"Alice Cooper", "Detroit"}},
		{"strips punctuation", "Visit Paris, then London.", []string{"Visit Paris", "London"}},
		{"skips short phrases", "A dog barked", nil},
		{"lowercase only", "nothing capitalized here", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, capitalizedPhrases(tc.text))
		})
	}
}
