package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"rag-knowledge-be/pkg/llm"
)

const (
	entitiesFile      = "vdb_entities.json"
	relationshipsFile = "vdb_relationships.json"
	relationPairsFile = "kv_store_relation_pairs.json"
)

// StubEngine is a self-contained engine used when no external parsing
// backend is deployed. It parses plain-text and markdown content, asks
// the configured LLM for entity/relation extraction (falling back to a
// capitalized-phrase heuristic when no model responds), and persists
// its collections in the same on-disk JSON layout the production engine
// uses, so the cleanup and consistency subsystems work unchanged.
type StubEngine struct {
	cfg       Config
	models    ModelFuncs
	docStatus *DocStatusStore
}

var _ Engine = &StubEngine{}

func NewStubEngine(cfg Config, models ModelFuncs) (*StubEngine, error) {
	if cfg.WorkingDir == "" {
		return nil, fmt.Errorf("engine config: working dir is required")
	}
	if err := os.MkdirAll(cfg.WorkingDir, 0o755); err != nil {
		return nil, fmt.Errorf("engine init: %w", err)
	}
	return &StubEngine{
		cfg:       cfg,
		models:    models,
		docStatus: NewDocStatusStore(cfg.WorkingDir),
	}, nil
}

func (e *StubEngine) WorkingDir() string {
	return e.cfg.WorkingDir
}

func (e *StubEngine) ProcessDocument(ctx context.Context, filePath string) (ParseStats, error) {
	if err := e.docStatus.Set(filePath, DocStatusProcessing); err != nil {
		return ParseStats{}, err
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		e.docStatus.Set(filePath, DocStatusFailed)
		return ParseStats{}, fmt.Errorf("read document: %w", err)
	}

	text := string(content)
	stats := e.parseStats(text)

	entities, relations, err := e.extract(ctx, text, filePath)
	if err != nil {
		e.docStatus.Set(filePath, DocStatusFailed)
		return stats, err
	}

	if err := e.persist(ctx, entities, relations, filePath); err != nil {
		e.docStatus.Set(filePath, DocStatusFailed)
		return stats, err
	}

	if err := e.docStatus.Set(filePath, DocStatusProcessed); err != nil {
		return stats, err
	}
	return stats, nil
}

func (e *StubEngine) DocStatus(ctx context.Context, filePath string) (string, error) {
	return e.docStatus.Get(filePath)
}

// GraphData exposes nodes as a keyed map and edges as a plain list.
// The two shapes mirror what different engine versions produce.
func (e *StubEngine) GraphData(ctx context.Context) (GraphData, error) {
	nodes, err := LoadJSONCollection(filepath.Join(e.cfg.WorkingDir, entitiesFile))
	if err != nil {
		return GraphData{}, err
	}

	edgeRecords, err := LoadJSONCollection(filepath.Join(e.cfg.WorkingDir, relationshipsFile))
	if err != nil {
		return GraphData{}, err
	}
	edges := make([]interface{}, 0, len(edgeRecords))
	for _, rec := range edgeRecords {
		edges = append(edges, rec)
	}

	nodeAny := make(map[string]interface{}, len(nodes))
	for k, v := range nodes {
		nodeAny[k] = v
	}
	return GraphData{Nodes: nodeAny, Edges: edges}, nil
}

func (e *StubEngine) RelationPairs(ctx context.Context) ([]map[string]interface{}, error) {
	records, err := LoadJSONCollection(filepath.Join(e.cfg.WorkingDir, relationPairsFile))
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	return out, nil
}

func (e *StubEngine) parseStats(text string) ParseStats {
	stats := ParseStats{}
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		switch {
		case e.cfg.EnableImage && strings.HasPrefix(block, "!["):
			stats.ImageCount++
		case e.cfg.EnableTable && strings.HasPrefix(block, "|"):
			stats.TableCount++
		case e.cfg.EnableEquation && strings.HasPrefix(block, "$$"):
			stats.EquationCount++
		default:
			stats.TextCount++
		}
	}
	return stats
}

type extractedEntity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type extractedRelation struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

type extractionPayload struct {
	Entities  []extractedEntity  `json:"entities"`
	Relations []extractedRelation `json:"relations"`
}

func (e *StubEngine) extract(ctx context.Context, text, filePath string) ([]extractedEntity, []extractedRelation, error) {
	if e.models.LLM != nil {
		if payload, err := e.extractWithLLM(ctx, text); err == nil {
			return payload.Entities, payload.Relations, nil
		}
		// Model failures degrade to the heuristic rather than failing
		// the document.
	}
	ents, rels := heuristicExtract(text)
	return ents, rels, nil
}

func (e *StubEngine) extractWithLLM(ctx context.Context, text string) (*extractionPayload, error) {
	language := e.cfg.Language
	if language == "" {
		language = "English"
	}

	prompt := fmt.Sprintf(
		"Extract named entities and relations from the document below. "+
			"Respond in %s with a single JSON object of the form "+
			`{"entities":[{"name","type","description"}],"relations":[{"source","target","description","keywords"}]}. `+
			"No prose outside the JSON.\n\nDocument:\n%s", language, truncate(text, 12000))

	raw, err := e.models.LLM.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return nil, err
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var payload extractionPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	return &payload, nil
}

func (e *StubEngine) persist(ctx context.Context, entities []extractedEntity, relations []extractedRelation, filePath string) error {
	entityRecords := map[string]map[string]interface{}{}
	for _, ent := range entities {
		if ent.Name == "" {
			continue
		}
		rec := map[string]interface{}{
			"entity_name": ent.Name,
			"entity_type": ent.Type,
			"description": ent.Description,
			"file_path":   filePath,
		}
		entityRecords[ent.Name] = rec
	}

	if e.models.Embedding != nil && len(entityRecords) > 0 {
		e.embedEntities(ctx, entityRecords)
	}

	relationRecords := map[string]map[string]interface{}{}
	pairRecords := map[string]map[string]interface{}{}
	pairs := make([][2]string, 0, len(relations))
	for _, rel := range relations {
		if rel.Source == "" || rel.Target == "" {
			continue
		}
		key := rel.Source + "->" + rel.Target
		relationRecords[key] = map[string]interface{}{
			"src_id":      rel.Source,
			"tgt_id":      rel.Target,
			"description": rel.Description,
			"keywords":    rel.Keywords,
			"weight":      1.0,
			"file_path":   filePath,
		}
		pairs = append(pairs, [2]string{rel.Source, rel.Target})
	}
	if len(pairs) > 0 {
		pairList := make([]interface{}, len(pairs))
		for i, p := range pairs {
			pairList[i] = []interface{}{p[0], p[1]}
		}
		pairRecords[DocStatusKey(filePath)] = map[string]interface{}{
			"relation_pairs": pairList,
			"file_path":      filePath,
		}
	}

	if err := e.mergeCollection(entitiesFile, entityRecords); err != nil {
		return err
	}
	if err := e.mergeCollection(relationshipsFile, relationRecords); err != nil {
		return err
	}
	return e.mergeCollection(relationPairsFile, pairRecords)
}

func (e *StubEngine) embedEntities(ctx context.Context, records map[string]map[string]interface{}) {
	texts := make([]string, 0, len(records))
	names := make([]string, 0, len(records))
	for name, rec := range records {
		desc, _ := rec["description"].(string)
		texts = append(texts, name+": "+desc)
		names = append(names, name)
	}

	vectors, err := e.models.Embedding.Embed(ctx, texts)
	if err != nil || len(vectors) != len(names) {
		// Embedding is best effort for the stub; records stay usable
		// without vectors.
		return
	}
	for i, name := range names {
		records[name]["vector"] = vectors[i]
	}
}

func (e *StubEngine) mergeCollection(filename string, records map[string]map[string]interface{}) error {
	if len(records) == 0 {
		return nil
	}
	path := filepath.Join(e.cfg.WorkingDir, filename)
	existing, err := LoadJSONCollection(path)
	if err != nil {
		return err
	}
	for k, v := range records {
		existing[k] = v
	}
	return SaveJSONCollection(path, existing)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// heuristicExtract finds capitalized phrases and links phrases that
// share a paragraph. Good enough for offline development and tests.
func heuristicExtract(text string) ([]extractedEntity, []extractedRelation) {
	var entities []extractedEntity
	var relations []extractedRelation
	seen := map[string]bool{}

	for _, para := range strings.Split(text, "\n\n") {
		var inPara []string
		for _, phrase := range capitalizedPhrases(para) {
			if !seen[phrase] {
				seen[phrase] = true
				entities = append(entities, extractedEntity{
					Name:        phrase,
					Type:        "concept",
					Description: fmt.Sprintf("Mentioned in document as %q", phrase),
				})
			}
			inPara = append(inPara, phrase)
		}
		for i := 1; i < len(inPara); i++ {
			relations = append(relations, extractedRelation{
				Source:      inPara[i-1],
				Target:      inPara[i],
				Description: fmt.Sprintf("%s appears alongside %s", inPara[i-1], inPara[i]),
				Keywords:    "co-occurrence",
			})
		}
		if len(entities) >= 50 {
			break
		}
	}
	return entities, relations
}

func capitalizedPhrases(text string) []string {
	var phrases []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			phrase := strings.Join(current, " ")
			if len(phrase) > 2 {
				phrases = append(phrases, phrase)
			}
			current = nil
		}
	}
	for _, word := range strings.Fields(text) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed != "" && unicode.IsUpper([]rune(trimmed)[0]) {
			current = append(current, trimmed)
		} else {
			flush()
		}
	}
	flush()
	return phrases
}
