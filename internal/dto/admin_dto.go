package dto

import "time"

type ConsistencyIssueResponse struct {
	Type            string `json:"type"`
	Severity        string `json:"severity"`
	Description     string `json:"description"`
	KbId            int64  `json:"kb_id"`
	SuggestedAction string `json:"suggested_action,omitempty"`
	AffectedSize    int64  `json:"affected_size_bytes,omitempty"`
}

type ConsistencyCheckResponse struct {
	Status          string                     `json:"status"`
	CheckedAt       time.Time                  `json:"checked_at"`
	Issues          []ConsistencyIssueResponse `json:"issues"`
	Statistics      map[string]int             `json:"statistics"`
	Recommendations []string                   `json:"recommendations"`
}

type ConsistencyFixRequest struct {
	DryRun bool `json:"dry_run"`
}

type ConsistencyFixResponse struct {
	Fixed   int      `json:"fixed"`
	Skipped int      `json:"skipped"`
	DryRun  bool     `json:"dry_run"`
	Details []string `json:"details"`
}

type StorageStatsResponse struct {
	TotalSizeBytes int64            `json:"total_size_bytes"`
	KbSizes        map[string]int64 `json:"kb_sizes"`
	FileCount      int              `json:"file_count"`
	OrphanedDirs   []string         `json:"orphaned_dirs"`
}

type CleanupResponse struct {
	RemovedDirs  []string `json:"removed_dirs"`
	BytesFreed   int64    `json:"bytes_freed"`
	FilesRemoved int      `json:"files_removed"`
}
