package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rag-knowledge-be/internal/constant"
	"rag-knowledge-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocumentIndex struct {
	kbIDs         []int64
	distributions map[int64]map[constant.DocumentStatus]int64
	err           error
}

func (f *fakeDocumentIndex) DistinctKnowledgeBaseIDs(ctx context.Context) ([]int64, error) {
	return f.kbIDs, f.err
}

func (f *fakeDocumentIndex) StatusDistribution(ctx context.Context, kbID int64) (map[constant.DocumentStatus]int64, error) {
	if dist, ok := f.distributions[kbID]; ok {
		return dist, nil
	}
	return map[constant.DocumentStatus]int64{}, nil
}

type fakeStorageScanner struct {
	dirs map[int64]string
	err  error
}

func (f *fakeStorageScanner) ListKBDirs() (map[int64]string, error) {
	return f.dirs, f.err
}

func makeKBDir(t *testing.T, root string, kbID string, payload int) string {
	t.Helper()
	dir := filepath.Join(root, "kb_"+kbID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if payload > 0 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), make([]byte, payload), 0o644))
	}
	return dir
}

func TestCheckConsistencyHealthy(t *testing.T) {
	root := t.TempDir()
	dir1 := makeKBDir(t, root, "1", 1024*1024)

	docs := &fakeDocumentIndex{
		kbIDs: []int64{1},
		distributions: map[int64]map[constant.DocumentStatus]int64{
			1: {constant.DocumentStatusCompleted: 3},
		},
	}
	storage := &fakeStorageScanner{dirs: map[int64]string{1: dir1}}

	svc := NewConsistencyService(docs, storage, logger.NewNopLogger())
	result := svc.CheckConsistency(context.Background())

	assert.Equal(t, StatusHealthy, result.OverallStatus)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 1, result.Statistics["active_kb_count"])
	assert.Equal(t, 1, result.Statistics["storage_kb_count"])
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0], "healthy")
}

func TestCheckConsistencyOrphanedAndMissing(t *testing.T) {
	root := t.TempDir()
	// KB 2 is active with docs and on disk, KB 3 is on disk with no docs,
	// KB 1 is active with docs but has no directory.
	dir2 := makeKBDir(t, root, "2", 1024*1024)
	dir3 := makeKBDir(t, root, "3", 512)

	docs := &fakeDocumentIndex{
		kbIDs: []int64{1, 2},
		distributions: map[int64]map[constant.DocumentStatus]int64{
			1: {constant.DocumentStatusCompleted: 2},
			2: {constant.DocumentStatusCompleted: 1},
		},
	}
	storage := &fakeStorageScanner{dirs: map[int64]string{2: dir2, 3: dir3}}

	svc := NewConsistencyService(docs, storage, logger.NewNopLogger())
	result := svc.CheckConsistency(context.Background())

	// Missing storage is high severity, so the overall status is critical.
	assert.Equal(t, StatusCritical, result.OverallStatus)

	types := map[string]int{}
	for _, issue := range result.Issues {
		types[issue.Type]++
	}
	assert.Equal(t, 1, types[IssueOrphanedStorage])
	assert.Equal(t, 1, types[IssueMissingStorage])

	for _, issue := range result.Issues {
		switch issue.Type {
		case IssueOrphanedStorage:
			assert.Equal(t, int64(3), issue.KbID)
			assert.Equal(t, SeverityLow, issue.Severity)
		case IssueMissingStorage:
			assert.Equal(t, int64(1), issue.KbID)
			assert.Equal(t, SeverityHigh, issue.Severity)
			assert.Contains(t, issue.Description, "2 documents but no storage directory")
		}
	}
}

func TestCheckConsistencyMissingStorageEmptyKBIgnored(t *testing.T) {
	// An active kb id with zero document rows and no directory is not an
	// issue; there is simply nothing to store yet.
	docs := &fakeDocumentIndex{kbIDs: []int64{5}}
	storage := &fakeStorageScanner{dirs: map[int64]string{}}

	svc := NewConsistencyService(docs, storage, logger.NewNopLogger())
	result := svc.CheckConsistency(context.Background())

	assert.Equal(t, StatusHealthy, result.OverallStatus)
	assert.Empty(t, result.Issues)
}

func TestCheckConsistencyDocumentBacklog(t *testing.T) {
	root := t.TempDir()
	dir1 := makeKBDir(t, root, "1", 1024*1024)

	docs := &fakeDocumentIndex{
		kbIDs: []int64{1},
		distributions: map[int64]map[constant.DocumentStatus]int64{
			1: {
				constant.DocumentStatusFailed:    2,
				constant.DocumentStatusParsing:   4,
				constant.DocumentStatusAnalyzing: 3,
			},
		},
	}
	storage := &fakeStorageScanner{dirs: map[int64]string{1: dir1}}

	svc := NewConsistencyService(docs, storage, logger.NewNopLogger())
	result := svc.CheckConsistency(context.Background())

	assert.Equal(t, StatusCritical, result.OverallStatus)

	var descriptions []string
	for _, issue := range result.Issues {
		if issue.Type == IssueDocumentConsistency {
			descriptions = append(descriptions, issue.Description)
		}
	}
	require.Len(t, descriptions, 2)
	assert.Contains(t, descriptions[0], "2 failed documents")
	assert.Contains(t, descriptions[1], "7 documents stuck in processing")
}

func TestCheckConsistencyIndexError(t *testing.T) {
	docs := &fakeDocumentIndex{err: errors.New("database unavailable")}
	storage := &fakeStorageScanner{}

	svc := NewConsistencyService(docs, storage, logger.NewNopLogger())
	result := svc.CheckConsistency(context.Background())

	assert.Equal(t, StatusError, result.OverallStatus)
	assert.Equal(t, "database unavailable", result.Error)
	assert.Empty(t, result.Issues)
}

func TestDetailedReportStructure(t *testing.T) {
	root := t.TempDir()
	dir9 := makeKBDir(t, root, "9", 256)

	docs := &fakeDocumentIndex{kbIDs: []int64{}}
	storage := &fakeStorageScanner{dirs: map[int64]string{9: dir9}}

	svc := NewConsistencyService(docs, storage, logger.NewNopLogger())
	report := svc.DetailedReport(context.Background())

	assert.Contains(t, report, "# Data Consistency Report")
	assert.Contains(t, report, "**Overall status**: INFO")
	assert.Contains(t, report, "## Statistics")
	assert.Contains(t, report, "### 1. ORPHANED_STORAGE - KB 9")
	assert.Contains(t, report, "**Severity**: LOW")
	assert.Contains(t, report, "## Recommendations")
	assert.Contains(t, report, "1. Run cleanup script to remove 1 orphaned storage directories")
}

func TestAutoFixDryRun(t *testing.T) {
	root := t.TempDir()
	dir4 := makeKBDir(t, root, "4", 256)

	docs := &fakeDocumentIndex{kbIDs: []int64{}}
	storage := &fakeStorageScanner{dirs: map[int64]string{4: dir4}}

	svc := NewConsistencyService(docs, storage, logger.NewNopLogger())
	result := svc.AutoFix(context.Background(), true)

	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.IssuesFound)
	assert.Equal(t, 1, result.IssuesFixed)
	require.Len(t, result.ActionsTaken, 1)
	assert.Contains(t, result.ActionsTaken[0], "[DRY RUN] Would delete orphaned storage for KB 4")

	// Nothing actually deleted.
	assert.DirExists(t, dir4)
}

func TestAutoFixLive(t *testing.T) {
	root := t.TempDir()
	dir4 := makeKBDir(t, root, "4", 256)
	dir5 := makeKBDir(t, root, "5", 1024*1024)

	// KB 5 is healthy and active; only KB 4 is orphaned.
	docs := &fakeDocumentIndex{
		kbIDs: []int64{5},
		distributions: map[int64]map[constant.DocumentStatus]int64{
			5: {constant.DocumentStatusCompleted: 1},
		},
	}
	storage := &fakeStorageScanner{dirs: map[int64]string{4: dir4, 5: dir5}}

	svc := NewConsistencyService(docs, storage, logger.NewNopLogger())
	result := svc.AutoFix(context.Background(), false)

	assert.False(t, result.DryRun)
	assert.Equal(t, 1, result.IssuesFixed)
	assert.Empty(t, result.Errors)
	require.Len(t, result.ActionsTaken, 1)
	assert.Contains(t, result.ActionsTaken[0], "Deleted orphaned storage for KB 4")

	assert.NoDirExists(t, dir4)
	assert.DirExists(t, dir5)
}

func TestAutoFixNeverTouchesNonOrphanIssues(t *testing.T) {
	// Missing storage for an active kb with documents: found, not fixed.
	docs := &fakeDocumentIndex{
		kbIDs: []int64{1},
		distributions: map[int64]map[constant.DocumentStatus]int64{
			1: {constant.DocumentStatusCompleted: 2},
		},
	}
	storage := &fakeStorageScanner{dirs: map[int64]string{}}

	svc := NewConsistencyService(docs, storage, logger.NewNopLogger())
	result := svc.AutoFix(context.Background(), false)

	assert.Equal(t, 1, result.IssuesFound)
	assert.Zero(t, result.IssuesFixed)
	assert.Empty(t, result.ActionsTaken)
}
