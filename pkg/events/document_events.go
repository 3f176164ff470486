package events

import "time"

const (
	EventDocumentCompleted = "document.completed"
	EventDocumentFailed    = "document.failed"
)

// NewDocumentCompletedEvent announces a successful processing run.
func NewDocumentCompletedEvent(documentID, kbID int64, entityCount, relationCount int) Event {
	return BaseEvent{
		Type: EventDocumentCompleted,
		Data: map[string]interface{}{
			"document_id":       documentID,
			"knowledge_base_id": kbID,
			"entity_count":      entityCount,
			"relation_count":    relationCount,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewDocumentFailedEvent announces a failed processing run.
func NewDocumentFailedEvent(documentID, kbID int64, message string) Event {
	return BaseEvent{
		Type: EventDocumentFailed,
		Data: map[string]interface{}{
			"document_id":       documentID,
			"knowledge_base_id": kbID,
			"message":           message,
		},
		OccurredAt: time.Now().UTC(),
	}
}
