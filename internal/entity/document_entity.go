package entity

import (
	"time"

	"rag-knowledge-be/internal/constant"
)

type Document struct {
	Id           int64
	Filename     string
	OriginalPath string
	FileSize     int64
	FileType     string

	Status       constant.DocumentStatus
	Progress     int
	ErrorMessage string

	ParsedPath    string
	TextCount     int
	ImageCount    int
	TableCount    int
	EquationCount int

	EntityCount   int
	RelationCount int

	TaskId string

	KnowledgeBaseId int64
	UserId          int64

	CreatedAt time.Time
	UpdatedAt *time.Time
}
