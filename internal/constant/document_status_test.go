package constant

import "testing"

func TestStatusForProgress(t *testing.T) {
	tests := []struct {
		progress int
		want     DocumentStatus
	}{
		{0, DocumentStatusParsing},
		{15, DocumentStatusParsing},
		{24, DocumentStatusParsing},
		{25, DocumentStatusAnalyzing},
		{69, DocumentStatusAnalyzing},
		{70, DocumentStatusBuildingGraph},
		{84, DocumentStatusBuildingGraph},
		{85, DocumentStatusEmbedding},
		{99, DocumentStatusEmbedding},
		{100, DocumentStatusCompleted},
	}
	for _, tt := range tests {
		if got := StatusForProgress(tt.progress); got != tt.want {
			t.Errorf("StatusForProgress(%d) = %s, want %s", tt.progress, got, tt.want)
		}
	}
}

func TestStatusForProgressSkipsRanges(t *testing.T) {
	// Progress can jump straight from parsing to embedding; the status is
	// always recomputed from the raw value.
	if got := StatusForProgress(85); got != DocumentStatusEmbedding {
		t.Errorf("got %s, want %s", got, DocumentStatusEmbedding)
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []DocumentStatus{DocumentStatusCompleted, DocumentStatusFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	active := []DocumentStatus{
		DocumentStatusPending, DocumentStatusParsing, DocumentStatusAnalyzing,
		DocumentStatusBuildingGraph, DocumentStatusEmbedding,
	}
	for _, s := range active {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
