package dto

import (
	"time"

	"rag-knowledge-be/internal/entity"
)

type CreateModelConfigRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	ModelType  string `json:"model_type" validate:"required,oneof=llm vlm embedding rerank"`
	Provider   string `json:"provider" validate:"required"`
	ModelName  string `json:"model_name" validate:"required"`
	APIKey     string `json:"api_key"`
	APIBaseURL string `json:"api_base_url" validate:"omitempty,url"`
	IsDefault  bool   `json:"is_default"`
}

type UpdateModelConfigRequest struct {
	Id         int64
	Name       string `json:"name" validate:"required,min=1,max=255"`
	Provider   string `json:"provider" validate:"required"`
	ModelName  string `json:"model_name" validate:"required"`
	APIKey     string `json:"api_key"`
	APIBaseURL string `json:"api_base_url" validate:"omitempty,url"`
	IsDefault  bool   `json:"is_default"`
	IsActive   *bool  `json:"is_active"`
}

type ModelConfigResponse struct {
	Id         int64            `json:"id"`
	Name       string           `json:"name"`
	ModelType  entity.ModelType `json:"model_type"`
	Provider   string           `json:"provider"`
	ModelName  string           `json:"model_name"`
	APIBaseURL string           `json:"api_base_url,omitempty"`
	IsDefault  bool             `json:"is_default"`
	IsActive   bool             `json:"is_active"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  *time.Time       `json:"updated_at"`
}
