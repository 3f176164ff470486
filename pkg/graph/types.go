package graph

// Entity is a knowledge graph node, scoped by knowledge base id.
// Identity key is (kb id, Name); re-extraction of the same name
// overwrites Type and Description.
type Entity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	FilePath    string `json:"file_path"`
}

// Relation is a directed knowledge graph edge. Identity is structural
// (kb id, Source, Target); re-extraction upserts weight and description
// in place rather than duplicating edges. Type is inferred, never
// trusted from the engine.
type Relation struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Type        string  `json:"type"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
	Keywords    string  `json:"keywords"`
	FilePath    string  `json:"file_path"`
}
