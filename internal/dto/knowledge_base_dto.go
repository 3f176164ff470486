package dto

import (
	"time"

	"rag-knowledge-be/internal/entity"
)

type CreateKnowledgeBaseRequest struct {
	Name             string `json:"name" validate:"required,min=1,max=255"`
	Description      string `json:"description"`
	ParserType       string `json:"parser_type" validate:"omitempty,oneof=mineru docling"`
	ParseMethod      string `json:"parse_method"`
	EnableImage      *bool  `json:"enable_image_processing"`
	EnableTable      *bool  `json:"enable_table_processing"`
	EnableEquation   *bool  `json:"enable_equation_processing"`
	LlmModelId       *int64 `json:"llm_model_id"`
	VlmModelId       *int64 `json:"vlm_model_id"`
	EmbeddingModelId *int64 `json:"embedding_model_id"`
}

type UpdateKnowledgeBaseRequest struct {
	Id               int64
	Name             string `json:"name" validate:"required,min=1,max=255"`
	Description      string `json:"description"`
	ParserType       string `json:"parser_type" validate:"omitempty,oneof=mineru docling"`
	ParseMethod      string `json:"parse_method"`
	EnableImage      *bool  `json:"enable_image_processing"`
	EnableTable      *bool  `json:"enable_table_processing"`
	EnableEquation   *bool  `json:"enable_equation_processing"`
	LlmModelId       *int64 `json:"llm_model_id"`
	VlmModelId       *int64 `json:"vlm_model_id"`
	EmbeddingModelId *int64 `json:"embedding_model_id"`
}

type KnowledgeBaseResponse struct {
	Id                   int64               `json:"id"`
	Name                 string              `json:"name"`
	Description          string              `json:"description"`
	ParserType           entity.ParserType   `json:"parser_type"`
	ParseMethod          string              `json:"parse_method"`
	EnableImage          bool                `json:"enable_image_processing"`
	EnableTable          bool                `json:"enable_table_processing"`
	EnableEquation       bool                `json:"enable_equation_processing"`
	LlmModelId           *int64              `json:"llm_model_id"`
	VlmModelId           *int64              `json:"vlm_model_id"`
	EmbeddingModelId     *int64              `json:"embedding_model_id"`
	WorkingDir           string              `json:"working_dir"`
	VectorCollectionName string              `json:"vector_collection_name"`
	DocumentCount        int64               `json:"document_count"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            *time.Time          `json:"updated_at"`
}

type DeleteKnowledgeBaseResponse struct {
	Id               int64 `json:"id"`
	DocumentsRemoved int64 `json:"documents_removed"`
}
