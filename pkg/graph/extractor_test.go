package graph

import (
	"testing"

	"rag-knowledge-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEntitiesFromMap(t *testing.T) {
	data := rag.GraphData{
		Nodes: map[string]interface{}{
			"ent-1": map[string]interface{}{
				"entity_name": "Alice",
				"entity_type": "person",
				"description": "A researcher",
				"file_path":   "/docs/a.pdf",
			},
			"ent-2": map[string]interface{}{
				// No name fields at all; storage key becomes the name.
				"entity_type": "concept",
			},
		},
	}

	entities, _ := NewExtractor().Extract(data, "/docs/fallback.pdf")
	require.Len(t, entities, 2)

	byName := map[string]Entity{}
	for _, e := range entities {
		byName[e.Name] = e
	}

	alice, ok := byName["Alice"]
	require.True(t, ok)
	assert.Equal(t, "person", alice.Type)
	assert.Equal(t, "/docs/a.pdf", alice.FilePath)

	keyed, ok := byName["ent-2"]
	require.True(t, ok)
	assert.Equal(t, "concept", keyed.Type)
	assert.Equal(t, "/docs/fallback.pdf", keyed.FilePath)
}

func TestExtractEntitiesFromList(t *testing.T) {
	data := rag.GraphData{
		Nodes: []interface{}{
			map[string]interface{}{"name": "Bob"},
			"not a record",
			map[string]interface{}{"label": "Topic X", "entity_type": "topic"},
		},
	}

	entities, _ := NewExtractor().Extract(data, "/docs/x.pdf")
	require.Len(t, entities, 2)
	assert.Equal(t, "Bob", entities[0].Name)
	assert.Equal(t, "unknown", entities[0].Type)
	assert.Equal(t, "Topic X", entities[1].Name)
}

func TestEntityNamePrecedence(t *testing.T) {
	data := rag.GraphData{
		Nodes: []interface{}{
			map[string]interface{}{
				"entity_id":   "id-wins",
				"entity_name": "loses",
				"name":        "also loses",
			},
		},
	}
	entities, _ := NewExtractor().Extract(data, "")
	require.Len(t, entities, 1)
	assert.Equal(t, "id-wins", entities[0].Name)
}

func TestExtractRelations(t *testing.T) {
	data := rag.GraphData{
		Edges: []interface{}{
			map[string]interface{}{
				"src_id":      "A",
				"tgt_id":      "B",
				"description": "A caused by earthquake B",
				"weight":      0.7,
			},
			map[string]interface{}{
				// Missing target, skipped.
				"source": "C",
			},
			map[string]interface{}{
				"source":   "C",
				"target":   "D",
				"keywords": []interface{}{"located", "map"},
			},
		},
	}

	_, relations := NewExtractor().Extract(data, "/docs/r.pdf")
	require.Len(t, relations, 2)

	assert.Equal(t, "A", relations[0].Source)
	assert.Equal(t, "B", relations[0].Target)
	assert.Equal(t, "CAUSES", relations[0].Type)
	assert.Equal(t, 0.7, relations[0].Weight)

	assert.Equal(t, "SPATIAL", relations[1].Type)
	assert.Equal(t, "located, map", relations[1].Keywords)
	assert.Equal(t, 1.0, relations[1].Weight)
}

func TestInferRelationType(t *testing.T) {
	tests := []struct {
		name        string
		description string
		keywords    string
		want        string
	}{
		{"causes anchor", "damage caused by earthquake", "", "CAUSES"},
		{"spatial anchor", "located in Beijing", "", "SPATIAL"},
		{"temporal", "happened before the merger", "", "TEMPORAL"},
		{"part of", "", "component, assembly", "PART_OF"},
		{"uses", "applies the gradient method", "", "USES"},
		{"affiliation", "works for the lab", "", "AFFILIATED_WITH"},
		{"storage", "archived in the repository", "", "STORED_IN"},
		{"language", "written in Mandarin", "", "LANGUAGE"},
		{"criteria", "meets the acceptance threshold", "", "CRITERIA"},
		{"no match", "a generic connection", "", "RELATED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferRelationType(tt.description, tt.keywords, "", "")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferRelationTypeCategoryOrder(t *testing.T) {
	// Matches both TEMPORAL ("before") and CAUSES ("causes"); the earlier
	// category wins.
	got := InferRelationType("causes a failure before startup", "", "", "")
	assert.Equal(t, "TEMPORAL", got)
}

func TestExtractRelationPairs(t *testing.T) {
	records := []map[string]interface{}{
		{
			"relation_pairs": []interface{}{
				[]interface{}{"A", "B"},
				[]interface{}{"B", "C"},
				[]interface{}{"only-one"},
				[]interface{}{"", "D"},
			},
			"file_path": "/docs/p.pdf",
		},
		{
			"other": "ignored",
		},
	}

	relations := NewExtractor().ExtractRelationPairs(records, "/docs/fallback.pdf")
	require.Len(t, relations, 2)
	for _, r := range relations {
		assert.Equal(t, RelationTypeDefault, r.Type)
		assert.Equal(t, 1.0, r.Weight)
		assert.Equal(t, "/docs/p.pdf", r.FilePath)
	}
}
