package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"rag-knowledge-be/internal/constant"
	"rag-knowledge-be/internal/pkg/logger"
	"rag-knowledge-be/pkg/rag"
)

const (
	IssueOrphanedStorage     = "orphaned_storage"
	IssueMissingStorage      = "missing_storage"
	IssueSizeMismatch        = "size_mismatch"
	IssueDocumentConsistency = "document_consistency"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"

	StatusHealthy  = "healthy"
	StatusInfo     = "info"
	StatusWarning  = "warning"
	StatusCritical = "critical"
	StatusError    = "error"
)

// ConsistencyIssue is ephemeral: computed on every check, never stored.
type ConsistencyIssue struct {
	Type            string
	KbID            int64
	Description     string
	Severity        string
	SuggestedAction string
}

type ConsistencyResult struct {
	Timestamp       time.Time
	OverallStatus   string
	Issues          []ConsistencyIssue
	Statistics      map[string]int
	Recommendations []string
	Error           string
}

type AutoFixResult struct {
	DryRun       bool
	IssuesFound  int
	IssuesFixed  int
	ActionsTaken []string
	Errors       []string
}

// DocumentIndex is the slice of the relational store the monitor reads.
type DocumentIndex interface {
	DistinctKnowledgeBaseIDs(ctx context.Context) ([]int64, error)
	StatusDistribution(ctx context.Context, kbID int64) (map[constant.DocumentStatus]int64, error)
}

// StorageScanner lists the kb cache directories present on disk.
type StorageScanner interface {
	ListKBDirs() (map[int64]string, error)
}

type IConsistencyService interface {
	CheckConsistency(ctx context.Context) *ConsistencyResult
	DetailedReport(ctx context.Context) string
	AutoFix(ctx context.Context, dryRun bool) *AutoFixResult
}

// consistencyService cross-audits the relational store against the
// on-disk engine cache. Read-only except for AutoFix, which only ever
// removes orphaned storage.
type consistencyService struct {
	docs    DocumentIndex
	storage StorageScanner
	log     logger.ILogger
}

func NewConsistencyService(docs DocumentIndex, storage StorageScanner, log logger.ILogger) IConsistencyService {
	return &consistencyService{docs: docs, storage: storage, log: log}
}

func (s *consistencyService) CheckConsistency(ctx context.Context) *ConsistencyResult {
	result := &ConsistencyResult{
		Timestamp:     time.Now().UTC(),
		OverallStatus: StatusHealthy,
		Statistics:    map[string]int{},
	}

	activeIDs, err := s.docs.DistinctKnowledgeBaseIDs(ctx)
	if err != nil {
		s.log.Error("consistency", "Consistency check failed", map[string]interface{}{"error": err.Error()})
		result.OverallStatus = StatusError
		result.Error = err.Error()
		return result
	}
	result.Statistics["active_kb_count"] = len(activeIDs)

	storageDirs, err := s.storage.ListKBDirs()
	if err != nil {
		s.log.Error("consistency", "Consistency check failed", map[string]interface{}{"error": err.Error()})
		result.OverallStatus = StatusError
		result.Error = err.Error()
		return result
	}
	result.Statistics["storage_kb_count"] = len(storageDirs)

	// A failing sub-check yields no issues rather than blocking the rest.
	result.Issues = append(result.Issues, s.checkOrphanedStorage(activeIDs, storageDirs)...)
	result.Issues = append(result.Issues, s.checkMissingStorage(ctx, activeIDs, storageDirs)...)
	result.Issues = append(result.Issues, s.checkStorageSizes(ctx, activeIDs, storageDirs)...)
	result.Issues = append(result.Issues, s.checkDocumentConsistency(ctx, activeIDs)...)

	switch {
	case hasSeverity(result.Issues, SeverityHigh):
		result.OverallStatus = StatusCritical
	case hasSeverity(result.Issues, SeverityMedium):
		result.OverallStatus = StatusWarning
	case len(result.Issues) > 0:
		result.OverallStatus = StatusInfo
	}

	result.Recommendations = generateRecommendations(result.Issues)

	s.log.Info("consistency", "Consistency check completed", map[string]interface{}{
		"status": result.OverallStatus,
		"issues": len(result.Issues),
	})
	return result
}

func hasSeverity(issues []ConsistencyIssue, severity string) bool {
	for _, issue := range issues {
		if issue.Severity == severity {
			return true
		}
	}
	return false
}

func (s *consistencyService) checkOrphanedStorage(activeIDs []int64, storageDirs map[int64]string) []ConsistencyIssue {
	active := toSet(activeIDs)
	var issues []ConsistencyIssue

	for _, kbID := range sortedKeys(storageDirs) {
		if active[kbID] {
			continue
		}
		sizeMB := dirSizeMB(storageDirs[kbID])
		severity := SeverityLow
		if sizeMB > 10 {
			severity = SeverityMedium
		}
		issues = append(issues, ConsistencyIssue{
			Type: IssueOrphanedStorage,
			KbID: kbID,
			Description: fmt.Sprintf("Knowledge base %d has storage directory but no active documents. Storage size: %.2f MB",
				kbID, sizeMB),
			Severity:        severity,
			SuggestedAction: fmt.Sprintf("Run cleanup script to remove orphaned storage for KB %d", kbID),
		})
	}
	return issues
}

func (s *consistencyService) checkMissingStorage(ctx context.Context, activeIDs []int64, storageDirs map[int64]string) []ConsistencyIssue {
	var issues []ConsistencyIssue

	for _, kbID := range activeIDs {
		if _, onDisk := storageDirs[kbID]; onDisk {
			continue
		}
		docCount := s.documentCount(ctx, kbID)
		if docCount == 0 {
			continue
		}
		issues = append(issues, ConsistencyIssue{
			Type:            IssueMissingStorage,
			KbID:            kbID,
			Description:     fmt.Sprintf("Knowledge base %d has %d documents but no storage directory", kbID, docCount),
			Severity:        SeverityHigh,
			SuggestedAction: fmt.Sprintf("Check if documents for KB %d were processed correctly", kbID),
		})
	}
	return issues
}

func (s *consistencyService) checkStorageSizes(ctx context.Context, activeIDs []int64, storageDirs map[int64]string) []ConsistencyIssue {
	var issues []ConsistencyIssue

	for _, kbID := range activeIDs {
		dir, onDisk := storageDirs[kbID]
		if !onDisk {
			continue
		}
		docCount := s.documentCount(ctx, kbID)
		if docCount == 0 {
			continue
		}
		sizeMB := dirSizeMB(dir)
		avgPerDoc := sizeMB / float64(docCount)

		// Empirical heuristics, not correctness bounds.
		if avgPerDoc > 100 {
			issues = append(issues, ConsistencyIssue{
				Type: IssueSizeMismatch,
				KbID: kbID,
				Description: fmt.Sprintf("Knowledge base %d has unusually large storage: %.2f MB for %d documents (avg: %.2f MB/doc)",
					kbID, sizeMB, docCount, avgPerDoc),
				Severity:        SeverityMedium,
				SuggestedAction: fmt.Sprintf("Review storage usage for KB %d, consider cleanup", kbID),
			})
		} else if avgPerDoc < 0.1 {
			issues = append(issues, ConsistencyIssue{
				Type: IssueSizeMismatch,
				KbID: kbID,
				Description: fmt.Sprintf("Knowledge base %d has unusually small storage: %.2f MB for %d documents (avg: %.2f MB/doc)",
					kbID, sizeMB, docCount, avgPerDoc),
				Severity:        SeverityLow,
				SuggestedAction: fmt.Sprintf("Check if documents for KB %d were processed correctly", kbID),
			})
		}
	}
	return issues
}

func (s *consistencyService) checkDocumentConsistency(ctx context.Context, activeIDs []int64) []ConsistencyIssue {
	var issues []ConsistencyIssue

	for _, kbID := range activeIDs {
		dist, err := s.docs.StatusDistribution(ctx, kbID)
		if err != nil {
			continue
		}

		failedCount := dist[constant.DocumentStatusFailed]
		processingCount := dist[constant.DocumentStatusParsing] + dist[constant.DocumentStatusAnalyzing]

		if failedCount > 0 {
			issues = append(issues, ConsistencyIssue{
				Type:            IssueDocumentConsistency,
				KbID:            kbID,
				Description:     fmt.Sprintf("Knowledge base %d has %d failed documents", kbID, failedCount),
				Severity:        SeverityMedium,
				SuggestedAction: fmt.Sprintf("Review and retry failed documents in KB %d", kbID),
			})
		}
		if processingCount > 5 {
			issues = append(issues, ConsistencyIssue{
				Type:            IssueDocumentConsistency,
				KbID:            kbID,
				Description:     fmt.Sprintf("Knowledge base %d has %d documents stuck in processing", kbID, processingCount),
				Severity:        SeverityHigh,
				SuggestedAction: fmt.Sprintf("Check processing pipeline for KB %d", kbID),
			})
		}
	}
	return issues
}

func (s *consistencyService) documentCount(ctx context.Context, kbID int64) int64 {
	dist, err := s.docs.StatusDistribution(ctx, kbID)
	if err != nil {
		return 0
	}
	var total int64
	for _, n := range dist {
		total += n
	}
	return total
}

func generateRecommendations(issues []ConsistencyIssue) []string {
	var recommendations []string
	counts := map[string]int{}
	for _, issue := range issues {
		counts[issue.Type]++
	}

	if n := counts[IssueOrphanedStorage]; n > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Run cleanup script to remove %d orphaned storage directories", n))
	}
	if n := counts[IssueMissingStorage]; n > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Investigate %d knowledge bases with missing storage directories", n))
	}
	if n := counts[IssueSizeMismatch]; n > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Review storage usage for %d knowledge bases with size anomalies", n))
	}
	if len(issues) == 0 {
		recommendations = append(recommendations, "Data consistency is healthy. No issues found.")
	}
	return recommendations
}

// DetailedReport renders the check as plain text. The structure and
// field order are part of the external contract: an admin endpoint
// serves this verbatim.
func (s *consistencyService) DetailedReport(ctx context.Context) string {
	result := s.CheckConsistency(ctx)

	var b strings.Builder
	b.WriteString("# Data Consistency Report\n\n")
	fmt.Fprintf(&b, "**Checked at**: %s\n", result.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Overall status**: %s\n\n", strings.ToUpper(result.OverallStatus))

	b.WriteString("## Statistics\n")
	fmt.Fprintf(&b, "- Active knowledge bases: %d\n", result.Statistics["active_kb_count"])
	fmt.Fprintf(&b, "- Storage directories: %d\n\n", result.Statistics["storage_kb_count"])

	b.WriteString("## Issues\n")
	if len(result.Issues) == 0 {
		b.WriteString("\nNo data consistency issues found.\n")
	} else {
		for i, issue := range result.Issues {
			fmt.Fprintf(&b, "\n### %d. %s - KB %d\n", i+1, strings.ToUpper(issue.Type), issue.KbID)
			fmt.Fprintf(&b, "**Severity**: %s\n", strings.ToUpper(issue.Severity))
			fmt.Fprintf(&b, "**Description**: %s\n", issue.Description)
			fmt.Fprintf(&b, "**Suggested action**: %s\n", issue.SuggestedAction)
		}
	}

	b.WriteString("\n## Recommendations\n")
	for i, rec := range result.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}
	return b.String()
}

// AutoFix only resolves orphaned-storage issues. Missing storage and
// size mismatches need human judgment and are never auto-resolved. In
// dry-run mode each would-be deletion still counts as fixed so the
// report reads the same shape as a live run.
func (s *consistencyService) AutoFix(ctx context.Context, dryRun bool) *AutoFixResult {
	result := &AutoFixResult{DryRun: dryRun}

	check := s.CheckConsistency(ctx)
	if check.OverallStatus == StatusError {
		result.Errors = append(result.Errors, check.Error)
		return result
	}
	result.IssuesFound = len(check.Issues)

	storageDirs, err := s.storage.ListKBDirs()
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, issue := range check.Issues {
		if issue.Type != IssueOrphanedStorage {
			continue
		}
		if dryRun {
			result.ActionsTaken = append(result.ActionsTaken,
				fmt.Sprintf("[DRY RUN] Would delete orphaned storage for KB %d", issue.KbID))
			result.IssuesFixed++
			continue
		}

		dir, ok := storageDirs[issue.KbID]
		if !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Storage directory for KB %d no longer present", issue.KbID))
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Failed to delete storage for KB %d: %v", issue.KbID, err))
			continue
		}
		result.ActionsTaken = append(result.ActionsTaken,
			fmt.Sprintf("Deleted orphaned storage for KB %d", issue.KbID))
		result.IssuesFixed++
	}

	s.log.Info("consistency", "Auto-fix completed", map[string]interface{}{
		"dry_run": dryRun,
		"found":   result.IssuesFound,
		"fixed":   result.IssuesFixed,
		"errors":  len(result.Errors),
	})
	return result
}

func toSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func sortedKeys(m map[int64]string) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func dirSizeMB(dir string) float64 {
	size, err := rag.DirSize(dir)
	if err != nil {
		return 0
	}
	return float64(size) / (1024 * 1024)
}
