package rag

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRemoteEngineRequiresBaseURL(t *testing.T) {
	_, err := NewRemoteEngine("", Config{WorkingDir: t.TempDir()}, ModelFuncs{})
	assert.Error(t, err)
}

func TestRemoteEngineEscapesWorkingDirInQuery(t *testing.T) {
	workingDir := t.TempDir() + "/kb 1 #a&b"

	var graphDir, pairsDir string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/graph":
			graphDir = r.URL.Query().Get("working_dir")
			w.Write([]byte(`{"nodes":{},"edges":[]}`))
		case "/v1/relation-pairs":
			pairsDir = r.URL.Query().Get("working_dir")
			w.Write([]byte(`{"records":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	engine, err := NewRemoteEngine(server.URL, Config{WorkingDir: workingDir}, ModelFuncs{})
	require.NoError(t, err)

	_, err = engine.GraphData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, workingDir, graphDir)

	_, err = engine.RelationPairs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, workingDir, pairsDir)
}

func TestRemoteEngineProcessDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/process", r.URL.Path)
		w.Write([]byte(`{"text_count":4,"image_count":1,"table_count":2,"equation_count":0}`))
	}))
	defer server.Close()

	engine, err := NewRemoteEngine(server.URL, Config{WorkingDir: t.TempDir()}, ModelFuncs{})
	require.NoError(t, err)

	stats, err := engine.ProcessDocument(context.Background(), "/data/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TextCount)
	assert.Equal(t, 1, stats.ImageCount)
	assert.Equal(t, 2, stats.TableCount)
	assert.Zero(t, stats.EquationCount)
}

func TestRemoteEngineProcessDocumentEngineError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"parser crashed"}`))
	}))
	defer server.Close()

	engine, err := NewRemoteEngine(server.URL, Config{WorkingDir: t.TempDir()}, ModelFuncs{})
	require.NoError(t, err)

	_, err = engine.ProcessDocument(context.Background(), "/data/report.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parser crashed")
}
