package entity

import "time"

type ModelType string

const (
	ModelTypeLLM       ModelType = "llm"
	ModelTypeVLM       ModelType = "vlm"
	ModelTypeEmbedding ModelType = "embedding"
	ModelTypeRerank    ModelType = "rerank"
)

type ModelConfig struct {
	Id         int64
	Name       string
	ModelType  ModelType
	Provider   string
	ModelName  string
	APIKey     string
	APIBaseURL string
	IsDefault  bool
	IsActive   bool
	UserId     int64

	CreatedAt time.Time
	UpdatedAt *time.Time
}
