package rag

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"rag-knowledge-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCleanup(t *testing.T) (*CleanupService, string) {
	t.Helper()
	root := t.TempDir()
	return NewCleanupService(root, logger.NewNopLogger()), root
}

func writeCollection(t *testing.T, path string, records map[string]map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestListKBDirs(t *testing.T) {
	svc, root := newTestCleanup(t)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "kb_1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "kb_42"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "kb_not_numeric"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "unrelated"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "kb_9"), []byte("a file, not a dir"), 0o644))

	dirs, err := svc.ListKBDirs()
	require.NoError(t, err)
	assert.Len(t, dirs, 2)
	assert.Contains(t, dirs, int64(1))
	assert.Contains(t, dirs, int64(42))
}

func TestListKBDirsMissingRoot(t *testing.T) {
	svc := NewCleanupService("/nonexistent/storage/root", logger.NewNopLogger())
	dirs, err := svc.ListKBDirs()
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func TestRecordMatchesDocument(t *testing.T) {
	tests := []struct {
		name string
		rec  map[string]interface{}
		want bool
	}{
		{"exact path", map[string]interface{}{"file_path": "/up/kb_1/report.pdf"}, true},
		{"bare basename", map[string]interface{}{"source_file": "report.pdf"}, true},
		{"suffix basename", map[string]interface{}{"source": "archive/report.pdf"}, true},
		{"basename in description", map[string]interface{}{"description": "extracted from report.pdf page 3"}, true},
		{"other document", map[string]interface{}{"file_path": "/up/kb_1/other.pdf"}, false},
		{"no path fields", map[string]interface{}{"entity_name": "X"}, false},
		{"non-string field", map[string]interface{}{"file_path": 42}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recordMatchesDocument(tt.rec, "/up/kb_1/report.pdf", "report.pdf")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRemoveDocumentRecords(t *testing.T) {
	svc, root := newTestCleanup(t)
	kbDir := filepath.Join(root, "kb_7")
	require.NoError(t, os.MkdirAll(kbDir, 0o755))

	writeCollection(t, filepath.Join(kbDir, "vdb_entities.json"), map[string]map[string]interface{}{
		"e1": {"entity_name": "A", "file_path": "/up/kb_7/doc.pdf"},
		"e2": {"entity_name": "B", "file_path": "/up/kb_7/other.pdf"},
		"e3": {"entity_name": "C", "description": "mentioned in doc.pdf"},
	})
	writeCollection(t, filepath.Join(kbDir, "vdb_relationships.json"), map[string]map[string]interface{}{
		"r1": {"src_id": "A", "tgt_id": "B", "source_file": "doc.pdf"},
	})
	// Zero-byte collections are corrupt leftovers and get deleted outright.
	require.NoError(t, os.WriteFile(filepath.Join(kbDir, "kv_store_relation_pairs.json"), nil, 0o644))
	// Ignored: no entity/relation in the name.
	writeCollection(t, filepath.Join(kbDir, "kv_store_doc_status.json"), map[string]map[string]interface{}{
		"doc-abc": {"status": "processed", "file_path": "/up/kb_7/doc.pdf"},
	})

	result := svc.RemoveDocumentRecords(7, "/up/kb_7/doc.pdf")

	assert.Equal(t, 2, result.FilesModified)
	assert.Equal(t, 3, result.RecordsRemoved)
	assert.Equal(t, 1, result.FilesDeleted)
	assert.Empty(t, result.Errors)

	entities, err := LoadJSONCollection(filepath.Join(kbDir, "vdb_entities.json"))
	require.NoError(t, err)
	assert.Len(t, entities, 1)
	assert.Contains(t, entities, "e2")

	relations, err := LoadJSONCollection(filepath.Join(kbDir, "vdb_relationships.json"))
	require.NoError(t, err)
	assert.Empty(t, relations)

	// Doc-status bookkeeping untouched.
	status, err := LoadJSONCollection(filepath.Join(kbDir, "kv_store_doc_status.json"))
	require.NoError(t, err)
	assert.Len(t, status, 1)

	assert.NoFileExists(t, filepath.Join(kbDir, "kv_store_relation_pairs.json"))
}

func TestRemoveDocumentRecordsMissingKB(t *testing.T) {
	svc, _ := newTestCleanup(t)
	result := svc.RemoveDocumentRecords(99, "/up/doc.pdf")
	assert.Zero(t, result.FilesModified)
	assert.Empty(t, result.Errors)
}

func TestDeleteKBStorage(t *testing.T) {
	svc, root := newTestCleanup(t)
	kbDir := filepath.Join(root, "kb_3")
	require.NoError(t, os.MkdirAll(kbDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(kbDir, "vdb_entities.json"), []byte("{}"), 0o644))

	require.NoError(t, svc.DeleteKBStorage(3))
	assert.NoDirExists(t, kbDir)

	// Deleting again is not an error.
	require.NoError(t, svc.DeleteKBStorage(3))
}

func TestCleanupOrphanedStorage(t *testing.T) {
	svc, root := newTestCleanup(t)
	for _, name := range []string{"kb_1", "kb_2", "kb_3"} {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(`{"k":1}`), 0o644))
	}

	result, err := svc.CleanupOrphanedStorage([]int64{1})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"kb_2", "kb_3"}, result.RemovedDirs)
	assert.Positive(t, result.BytesFreed)
	assert.Empty(t, result.Errors)

	assert.DirExists(t, filepath.Join(root, "kb_1"))
	assert.NoDirExists(t, filepath.Join(root, "kb_2"))
}

func TestStats(t *testing.T) {
	svc, root := newTestCleanup(t)
	kb1 := filepath.Join(root, "kb_1")
	kb2 := filepath.Join(root, "kb_2")
	require.NoError(t, os.MkdirAll(kb1, 0o755))
	require.NoError(t, os.MkdirAll(kb2, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(kb1, "vdb_entities.json"), []byte(`{"a":1}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(kb1, "vdb_relationships.json"), []byte(`{"b":2}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(kb2, "other.bin"), []byte("xyz"), 0o644))

	all, err := svc.Stats(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all.FileCount)
	assert.Equal(t, 1, all.EntityFiles)
	assert.Equal(t, 1, all.RelationFiles)
	assert.Len(t, all.KBSizes, 2)
	assert.Positive(t, all.TotalSizeBytes)

	one := int64(1)
	scoped, err := svc.Stats(&one)
	require.NoError(t, err)
	assert.Equal(t, 2, scoped.FileCount)
	assert.Len(t, scoped.KBSizes, 1)
}
