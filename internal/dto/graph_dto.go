package dto

type GraphNodeResponse struct {
	Id         string                 `json:"id"`
	Label      string                 `json:"label"`
	EntityType string                 `json:"entity_type"`
	Properties map[string]interface{} `json:"properties"`
}

type GraphEdgeResponse struct {
	Id         string                 `json:"id"`
	Source     string                 `json:"source"`
	Target     string                 `json:"target"`
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
}

type KnowledgeGraphResponse struct {
	Nodes     []GraphNodeResponse `json:"nodes"`
	Edges     []GraphEdgeResponse `json:"edges"`
	NodeCount int                 `json:"node_count"`
	EdgeCount int                 `json:"edge_count"`
	IsStub    bool                `json:"is_stub"`
}

type GraphStatsResponse struct {
	EntityCount   int64            `json:"entity_count"`
	RelationCount int64            `json:"relation_count"`
	EntityTypes   map[string]int64 `json:"entity_types"`
}
