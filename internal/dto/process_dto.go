package dto

// ProcessTask is the payload published to the processing topic when a
// document is uploaded or retried. The worker consumes it and drives the
// full parse, extract and graph-build run.
type ProcessTask struct {
	DocumentId      int64          `json:"document_id"`
	KnowledgeBaseId int64          `json:"knowledge_base_id"`
	FilePath        string         `json:"file_path"`
	TaskId          string         `json:"task_id"`
	Overrides       ModelOverrides `json:"overrides"`
}

// ModelOverrides carries optional per-request model config ids. A nil id
// means "fall through" to the knowledge base binding, then to the process
// defaults.
type ModelOverrides struct {
	LlmModelId       *int64 `json:"llm_model_id,omitempty"`
	VlmModelId       *int64 `json:"vlm_model_id,omitempty"`
	EmbeddingModelId *int64 `json:"embedding_model_id,omitempty"`
}

// ProcessResult is the terminal outcome of a processing run. Processing
// never propagates an error to the caller; failures are carried here with
// Success=false and a human readable Message.
type ProcessResult struct {
	Success       bool   `json:"success"`
	EntityCount   int    `json:"entity_count"`
	RelationCount int    `json:"relation_count"`
	TextCount     int    `json:"text_count"`
	ImageCount    int    `json:"image_count"`
	TableCount    int    `json:"table_count"`
	EquationCount int    `json:"equation_count"`
	Message       string `json:"message"`
}
