package dto

import (
	"time"

	"rag-knowledge-be/internal/constant"
)

type UploadDocumentRequest struct {
	KnowledgeBaseId int64 `json:"knowledge_base_id" validate:"required"`
	// Optional per-request model overrides, highest precedence when resolving
	// which credentials the processing run uses.
	LlmModelId       *int64 `json:"llm_model_id"`
	VlmModelId       *int64 `json:"vlm_model_id"`
	EmbeddingModelId *int64 `json:"embedding_model_id"`
}

type UploadDocumentResponse struct {
	Id       int64  `json:"id"`
	TaskId   string `json:"task_id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

type DocumentResponse struct {
	Id              int64                   `json:"id"`
	Filename        string                  `json:"filename"`
	FileSize        int64                   `json:"file_size"`
	FileType        string                  `json:"file_type"`
	Status          constant.DocumentStatus `json:"status"`
	Progress        int                     `json:"progress"`
	ErrorMessage    string                  `json:"error_message,omitempty"`
	TextCount       int                     `json:"text_count"`
	ImageCount      int                     `json:"image_count"`
	TableCount      int                     `json:"table_count"`
	EquationCount   int                     `json:"equation_count"`
	EntityCount     int                     `json:"entity_count"`
	RelationCount   int                     `json:"relation_count"`
	TaskId          string                  `json:"task_id,omitempty"`
	KnowledgeBaseId int64                   `json:"knowledge_base_id"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       *time.Time              `json:"updated_at"`
}

type ListDocumentsRequest struct {
	KnowledgeBaseId int64
	Status          string
	Page            int
	PageSize        int
}

type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"page_size"`
}

type DocumentProgressResponse struct {
	Id           int64                   `json:"id"`
	Status       constant.DocumentStatus `json:"status"`
	Progress     int                     `json:"progress"`
	ErrorMessage string                  `json:"error_message,omitempty"`
}

type RetryDocumentResponse struct {
	Id     int64  `json:"id"`
	TaskId string `json:"task_id"`
	Status string `json:"status"`
}

type DeleteDocumentResponse struct {
	Id              int64 `json:"id"`
	EntitiesRemoved int   `json:"entities_removed"`
	FilesRemoved    int   `json:"files_removed"`
}
