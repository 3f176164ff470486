package graph

import (
	"fmt"
	"strings"

	"rag-knowledge-be/pkg/rag"
)

// Extractor normalizes the engine's internal graph representation into
// canonical entities and relations. Engine versions disagree on both
// container shape (keyed map vs plain list) and field names, so every
// lookup runs through an ordered precedence list.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract pulls entities and relations out of a graph snapshot. docPath
// is the fallback file path tag, guaranteeing every record stays
// addressable for later deletion. Malformed records are skipped.
func (e *Extractor) Extract(data rag.GraphData, docPath string) ([]Entity, []Relation) {
	entities := e.extractEntities(data.Nodes, docPath)
	relations := e.extractRelations(data.Edges, docPath)
	return entities, relations
}

// normalizeRecords accepts either a map keyed by record id or a plain
// list and yields a uniform (key, record) sequence. Anything that is
// not a mapping record is dropped.
func normalizeRecords(container interface{}) []keyedRecord {
	var out []keyedRecord
	switch v := container.(type) {
	case map[string]interface{}:
		for key, raw := range v {
			if rec, ok := raw.(map[string]interface{}); ok {
				out = append(out, keyedRecord{key: key, rec: rec})
			}
		}
	case []interface{}:
		for i, raw := range v {
			if rec, ok := raw.(map[string]interface{}); ok {
				out = append(out, keyedRecord{key: fmt.Sprintf("%d", i), rec: rec})
			}
		}
	}
	return out
}

type keyedRecord struct {
	key string
	rec map[string]interface{}
}

func (e *Extractor) extractEntities(nodes interface{}, docPath string) []Entity {
	var entities []Entity
	for _, kr := range normalizeRecords(nodes) {
		name := firstStringField(kr.rec, "entity_id", "entity_name", "name", "label", "id")
		if name == "" {
			name = kr.key
		}
		if name == "" {
			continue
		}
		entities = append(entities, Entity{
			Name:        name,
			Type:        stringFieldOr(kr.rec, "unknown", "entity_type", "type"),
			Description: firstStringField(kr.rec, "description"),
			FilePath:    resolveFilePath(kr.rec, docPath),
		})
	}
	return entities
}

func (e *Extractor) extractRelations(edges interface{}, docPath string) []Relation {
	var relations []Relation
	for _, kr := range normalizeRecords(edges) {
		source := firstStringField(kr.rec, "src_id", "source", "from")
		target := firstStringField(kr.rec, "tgt_id", "target", "to")
		if source == "" || target == "" {
			continue
		}

		description := firstStringField(kr.rec, "description")
		keywords := keywordsField(kr.rec)

		relations = append(relations, Relation{
			Source:      source,
			Target:      target,
			Type:        InferRelationType(description, keywords, source, target),
			Weight:      floatFieldOr(kr.rec, "weight", 1.0),
			Description: description,
			Keywords:    keywords,
			FilePath:    resolveFilePath(kr.rec, docPath),
		})
	}
	return relations
}

// ExtractRelationPairs expands the auxiliary key-value collection's
// relation_pairs lists into relations with default type and weight.
// Used when the engine exposes no edge iteration at all.
func (e *Extractor) ExtractRelationPairs(records []map[string]interface{}, docPath string) []Relation {
	var relations []Relation
	for _, rec := range records {
		pairs, ok := rec["relation_pairs"].([]interface{})
		if !ok {
			continue
		}
		filePath := resolveFilePath(rec, docPath)
		for _, rawPair := range pairs {
			pair, ok := rawPair.([]interface{})
			if !ok || len(pair) < 2 {
				continue
			}
			source, sok := pair[0].(string)
			target, tok := pair[1].(string)
			if !sok || !tok || source == "" || target == "" {
				continue
			}
			relations = append(relations, Relation{
				Source:   source,
				Target:   target,
				Type:     RelationTypeDefault,
				Weight:   1.0,
				FilePath: filePath,
			})
		}
	}
	return relations
}

func resolveFilePath(rec map[string]interface{}, docPath string) string {
	if v := firstStringField(rec, "file_path", "source_id"); v != "" {
		return v
	}
	return docPath
}

func firstStringField(rec map[string]interface{}, fields ...string) string {
	for _, f := range fields {
		if v, ok := rec[f].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func stringFieldOr(rec map[string]interface{}, fallback string, fields ...string) string {
	if v := firstStringField(rec, fields...); v != "" {
		return v
	}
	return fallback
}

func floatFieldOr(rec map[string]interface{}, field string, fallback float64) float64 {
	switch v := rec[field].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func keywordsField(rec map[string]interface{}) string {
	switch v := rec["keywords"].(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// RelationTypeDefault is used when no keyword category matches.
const RelationTypeDefault = "RELATED"

type relationCategory struct {
	relType  string
	keywords []string
}

// relationCategories is ordered; the first category with any keyword hit
// wins even when a later category would also match.
var relationCategories = []relationCategory{
	{"TEMPORAL", []string{"before", "after", "during", "preceded", "followed", "since", "until", "timeline"}},
	{"SPATIAL", []string{"located", "location", "situated", "near", "adjacent", "region", "geographic"}},
	{"PART_OF", []string{"part of", "component", "subset", "belongs to", "consists of", "comprises", "contains"}},
	{"CAUSES", []string{"caused", "causes", "leads to", "results in", "due to", "triggers", "because"}},
	{"USES", []string{"uses", "utilizes", "method", "technique", "applies", "employs", "based on"}},
	{"AFFILIATED_WITH", []string{"member", "affiliated", "works for", "employee", "organization", "team"}},
	{"STORED_IN", []string{"stored", "database", "repository", "archived", "saved in"}},
	{"LANGUAGE", []string{"language", "spoken", "written in", "dialect", "translated"}},
	{"CRITERIA", []string{"criteria", "criterion", "standard", "requirement", "threshold", "condition"}},
}

// InferRelationType derives an edge type from the text surrounding a
// relation. The engine's own type field is not trustworthy across
// versions, so it is never consulted.
func InferRelationType(description, keywords, source, target string) string {
	haystack := strings.ToLower(description + " " + keywords + " " + source + " " + target)
	for _, cat := range relationCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(haystack, kw) {
				return cat.relType
			}
		}
	}
	return RelationTypeDefault
}
