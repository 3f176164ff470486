package entity

import "time"

type ParserType string

const (
	ParserMineru  ParserType = "mineru"
	ParserDocling ParserType = "docling"
)

type KnowledgeBase struct {
	Id          int64
	Name        string
	Description string

	ParserType               ParserType
	ParseMethod              string
	EnableImageProcessing    bool
	EnableTableProcessing    bool
	EnableEquationProcessing bool

	LlmModelId       *int64
	VlmModelId       *int64
	EmbeddingModelId *int64

	// WorkingDir and VectorCollectionName are derived at creation time and
	// never change afterwards.
	WorkingDir           string
	VectorCollectionName string

	IsActive bool
	UserId   int64

	CreatedAt time.Time
	UpdatedAt *time.Time
}
