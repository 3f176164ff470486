package constant

// DocumentStatus is the processing state of an uploaded document.
type DocumentStatus string

const (
	DocumentStatusPending       DocumentStatus = "pending"
	DocumentStatusParsing       DocumentStatus = "parsing"
	DocumentStatusAnalyzing     DocumentStatus = "analyzing"
	DocumentStatusBuildingGraph DocumentStatus = "building_graph"
	DocumentStatusEmbedding     DocumentStatus = "embedding"
	DocumentStatusCompleted     DocumentStatus = "completed"
	DocumentStatusFailed        DocumentStatus = "failed"
)

// StatusForProgress maps a 0-100 progress value to a processing status.
// The mapping is recomputed from the raw value on every update, so progress
// may legally skip ranges. PENDING and FAILED are only ever set externally.
//
//	[0, 25)   parsing
//	[25, 70)  analyzing
//	[70, 85)  building_graph
//	[85, 100) embedding
//	100       completed
func StatusForProgress(progress int) DocumentStatus {
	switch {
	case progress < 25:
		return DocumentStatusParsing
	case progress < 70:
		return DocumentStatusAnalyzing
	case progress < 85:
		return DocumentStatusBuildingGraph
	case progress < 100:
		return DocumentStatusEmbedding
	default:
		return DocumentStatusCompleted
	}
}

// IsTerminal reports whether a status can no longer change without operator
// intervention.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusCompleted || s == DocumentStatusFailed
}
