package rag

import (
	"context"
	"crypto/md5"
	"fmt"

	"rag-knowledge-be/pkg/llm"
)

// Config is the full engine configuration for one invocation. It is
// built once and never mutated afterwards; concurrent invocations each
// carry their own value, so no shared engine state is touched.
type Config struct {
	WorkingDir     string
	Parser         string // "mineru" or "docling"
	ParseMethod    string // "auto", "ocr", "txt"
	EnableImage    bool
	EnableTable    bool
	EnableEquation bool
	Language       string // extraction prompt language, e.g. "English"
}

// ModelFuncs carries the model backends the engine calls out to. Vision
// and Embedding may be nil; the engine degrades to text-only processing
// and skips the embedding pass.
type ModelFuncs struct {
	LLM       llm.LLMProvider
	Vision    llm.LLMProvider
	Embedding llm.EmbeddingProvider
}

// ParseStats summarizes the content blocks found during the parse phase.
type ParseStats struct {
	TextCount     int
	ImageCount    int
	TableCount    int
	EquationCount int
}

// GraphData is the engine's internal graph representation. Formats vary
// between engine versions: Nodes and Edges may each be a map keyed by
// record id or a plain list of records. The extraction adapter in
// pkg/graph normalizes both shapes.
type GraphData struct {
	Nodes interface{}
	Edges interface{}
}

// DocStatus values the engine records for a processed path.
const (
	DocStatusProcessing = "processing"
	DocStatusProcessed  = "processed"
	DocStatusFailed     = "failed"
)

// Engine is the contract for the black-box parsing and extraction
// backend. One instance per document run; instances are never cached.
type Engine interface {
	// ProcessDocument parses the file and builds the internal graph.
	ProcessDocument(ctx context.Context, filePath string) (ParseStats, error)

	// DocStatus returns the engine's own status record for the path.
	// An engine can give up without returning an error, so callers must
	// treat DocStatusFailed as a hard failure.
	DocStatus(ctx context.Context, filePath string) (string, error)

	// GraphData exposes the internal graph for extraction.
	GraphData(ctx context.Context) (GraphData, error)

	// RelationPairs is the auxiliary key-value collection some engine
	// versions use instead of direct edge iteration.
	RelationPairs(ctx context.Context) ([]map[string]interface{}, error)

	WorkingDir() string
}

// Factory builds a fresh engine for one processing run.
type Factory func(cfg Config, models ModelFuncs) (Engine, error)

// DocStatusKey derives the engine's document-status key for a file path.
func DocStatusKey(filePath string) string {
	return fmt.Sprintf("doc-%x", md5.Sum([]byte(filePath)))
}
