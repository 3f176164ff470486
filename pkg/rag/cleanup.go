package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rag-knowledge-be/internal/pkg/logger"
)

// CleanupService edits the engine's persisted JSON collections directly.
// The engine offers no deletion API, so document-scoped removal works by
// loading each entity/relation collection, filtering matched records and
// rewriting the file.
type CleanupService struct {
	storageRoot string
	log         logger.ILogger
}

func NewCleanupService(storageRoot string, log logger.ILogger) *CleanupService {
	return &CleanupService{storageRoot: storageRoot, log: log}
}

// KBDir returns the cache directory for a knowledge base. The kb_<id>
// naming convention is part of the on-disk contract.
func (s *CleanupService) KBDir(kbID int64) string {
	return filepath.Join(s.storageRoot, fmt.Sprintf("kb_%d", kbID))
}

// ListKBDirs returns the kb ids that have a cache directory on disk.
func (s *CleanupService) ListKBDirs() (map[int64]string, error) {
	entries, err := os.ReadDir(s.storageRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return map[int64]string{}, nil
		}
		return nil, err
	}

	out := map[int64]string{}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "kb_") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(entry.Name(), "kb_"), 10, 64)
		if err != nil {
			continue
		}
		out[id] = filepath.Join(s.storageRoot, entry.Name())
	}
	return out, nil
}

// DirSize walks a directory tree summing file sizes.
func DirSize(path string) (int64, error) {
	var total int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	return total, err
}

type CleanupResult struct {
	FilesModified  int
	RecordsRemoved int
	FilesDeleted   int
	Errors         []string
}

// RemoveDocumentRecords sweeps every entity/relation JSON collection in
// the kb's cache directory and drops records related to the document.
// Individual file failures accumulate instead of aborting the sweep.
func (s *CleanupService) RemoveDocumentRecords(kbID int64, docPath string) CleanupResult {
	result := CleanupResult{}
	dir := s.KBDir(kbID)
	base := filepath.Base(docPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return result
		}
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		lower := strings.ToLower(name)
		if !strings.Contains(lower, "entity") && !strings.Contains(lower, "relation") {
			continue
		}

		path := filepath.Join(dir, name)

		info, err := entry.Info()
		if err == nil && info.Size() == 0 {
			if err := os.Remove(path); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
			} else {
				result.FilesDeleted++
			}
			continue
		}

		records, err := LoadJSONCollection(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		removed := 0
		for key, rec := range records {
			if recordMatchesDocument(rec, docPath, base) {
				delete(records, key)
				removed++
			}
		}
		if removed == 0 {
			continue
		}

		if err := SaveJSONCollection(path, records); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		result.FilesModified++
		result.RecordsRemoved += removed
	}

	s.log.Info("cleanup", "Removed document records from kb storage", map[string]interface{}{
		"kb_id":           kbID,
		"document":        base,
		"records_removed": result.RecordsRemoved,
		"files_modified":  result.FilesModified,
		"errors":          len(result.Errors),
	})
	return result
}

// candidate fields checked for a document match, in order
var documentPathFields = []string{"file_path", "source_file", "document_path", "filename", "source"}

func recordMatchesDocument(rec map[string]interface{}, docPath, base string) bool {
	for _, field := range documentPathFields {
		val, ok := rec[field].(string)
		if !ok || val == "" {
			continue
		}
		if val == docPath || val == base || strings.HasSuffix(val, base) {
			return true
		}
	}
	if desc, ok := rec["description"].(string); ok && desc != "" {
		if strings.Contains(desc, base) {
			return true
		}
	}
	return false
}

// DeleteKBStorage removes the kb cache directory. Already absent counts
// as success.
func (s *CleanupService) DeleteKBStorage(kbID int64) error {
	dir := s.KBDir(kbID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete kb storage %s: %w", dir, err)
	}
	s.log.Info("cleanup", "Deleted kb storage directory", map[string]interface{}{
		"kb_id": kbID,
		"dir":   dir,
	})
	return nil
}

type OrphanCleanupResult struct {
	RemovedDirs []string
	BytesFreed  int64
	Errors      []string
}

// CleanupOrphanedStorage deletes kb cache directories whose id is not
// in the active set.
func (s *CleanupService) CleanupOrphanedStorage(activeKBIDs []int64) (OrphanCleanupResult, error) {
	result := OrphanCleanupResult{}

	active := make(map[int64]bool, len(activeKBIDs))
	for _, id := range activeKBIDs {
		active[id] = true
	}

	dirs, err := s.ListKBDirs()
	if err != nil {
		return result, err
	}

	for id, dir := range dirs {
		if active[id] {
			continue
		}
		size, err := DirSize(dir)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", dir, err))
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", dir, err))
			continue
		}
		result.RemovedDirs = append(result.RemovedDirs, filepath.Base(dir))
		result.BytesFreed += size
	}

	s.log.Info("cleanup", "Orphaned storage cleanup finished", map[string]interface{}{
		"removed":     len(result.RemovedDirs),
		"bytes_freed": result.BytesFreed,
		"errors":      len(result.Errors),
	})
	return result, nil
}

type StorageStats struct {
	TotalSizeBytes int64
	FileCount      int
	EntityFiles    int
	RelationFiles  int
	KBSizes        map[string]int64
}

// Stats walks one kb directory, or all of them when kbID is nil.
func (s *CleanupService) Stats(kbID *int64) (StorageStats, error) {
	stats := StorageStats{KBSizes: map[string]int64{}}

	var targets map[int64]string
	if kbID != nil {
		targets = map[int64]string{*kbID: s.KBDir(*kbID)}
	} else {
		var err error
		targets, err = s.ListKBDirs()
		if err != nil {
			return stats, err
		}
	}

	for id, dir := range targets {
		var kbSize int64
		err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			kbSize += info.Size()
			stats.FileCount++
			lower := strings.ToLower(info.Name())
			if strings.Contains(lower, "entity") {
				stats.EntityFiles++
			}
			if strings.Contains(lower, "relation") {
				stats.RelationFiles++
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return stats, err
		}
		stats.KBSizes[fmt.Sprintf("kb_%d", id)] = kbSize
		stats.TotalSizeBytes += kbSize
	}
	return stats, nil
}
