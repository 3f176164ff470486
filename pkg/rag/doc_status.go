package rag

import (
	"path/filepath"
	"time"
)

const docStatusFile = "kv_store_doc_status.json"

// DocStatusStore reads and writes the engine's per-document status
// records, keyed by DocStatusKey(path), in the working directory.
type DocStatusStore struct {
	workingDir string
}

func NewDocStatusStore(workingDir string) *DocStatusStore {
	return &DocStatusStore{workingDir: workingDir}
}

func (s *DocStatusStore) path() string {
	return filepath.Join(s.workingDir, docStatusFile)
}

// Get returns the recorded status for a file path, or "" if none exists.
func (s *DocStatusStore) Get(filePath string) (string, error) {
	records, err := LoadJSONCollection(s.path())
	if err != nil {
		return "", err
	}
	rec, ok := records[DocStatusKey(filePath)]
	if !ok {
		return "", nil
	}
	status, _ := rec["status"].(string)
	return status, nil
}

// Set upserts the status record for a file path.
func (s *DocStatusStore) Set(filePath, status string) error {
	records, err := LoadJSONCollection(s.path())
	if err != nil {
		return err
	}
	records[DocStatusKey(filePath)] = map[string]interface{}{
		"status":     status,
		"file_path":  filePath,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	return SaveJSONCollection(s.path(), records)
}
