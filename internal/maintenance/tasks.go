package maintenance

import (
	"context"
	"fmt"
	"log"

	"github.com/Kauxtubh/pinecone"
)

// SnapshotTask persists every ready index to the snapshot store
type SnapshotTask struct {
	db       *pinecone.DB
	schedule string
	logger   *log.Logger
}

// NewSnapshotTask creates a new snapshot task
func NewSnapshotTask(db *pinecone.DB, schedule string, logger *log.Logger) *SnapshotTask {
	if logger == nil {
		logger = log.Default()
	}

	return &SnapshotTask{
		db:       db,
		schedule: schedule,
		logger:   logger,
	}
}

// Name returns the task name
func (t *SnapshotTask) Name() string {
	return "snapshot"
}

// Description returns the task description
func (t *SnapshotTask) Description() string {
	return "Persist all ready indexes and their vectors to the snapshot store"
}

// Schedule returns the task's cron expression
func (t *SnapshotTask) Schedule() string {
	return t.schedule
}

// Execute runs the snapshot task
func (t *SnapshotTask) Execute(ctx context.Context) TaskResult {
	if err := t.db.SaveSnapshot(ctx); err != nil {
		return TaskResult{
			Success: false,
			Message: "Snapshot failed",
			Error:   err,
		}
	}

	// Count what was persisted for the status report.
	total := 0
	indexes := t.db.ListIndexes(ctx)
	for _, desc := range indexes {
		stats, err := t.db.DescribeIndexStats(ctx, desc.Name)
		if err != nil {
			continue
		}
		total += stats.TotalVectorCount
	}

	return TaskResult{
		Success:          true,
		Message:          fmt.Sprintf("Saved %d indexes (%d vectors)", len(indexes), total),
		RecordsProcessed: total,
	}
}

// CompactTask rebuilds search engines that have accumulated garbage
// from deletes and overwrites
type CompactTask struct {
	db        *pinecone.DB
	threshold float64
	schedule  string
	logger    *log.Logger
}

// NewCompactTask creates a new compact task
func NewCompactTask(db *pinecone.DB, threshold float64, schedule string, logger *log.Logger) *CompactTask {
	if logger == nil {
		logger = log.Default()
	}

	return &CompactTask{
		db:        db,
		threshold: threshold,
		schedule:  schedule,
		logger:    logger,
	}
}

// Name returns the task name
func (t *CompactTask) Name() string {
	return "compact"
}

// Description returns the task description
func (t *CompactTask) Description() string {
	return "Rebuild search engines whose garbage ratio exceeds the configured threshold"
}

// Schedule returns the task's cron expression
func (t *CompactTask) Schedule() string {
	return t.schedule
}

// Execute runs the compact task
func (t *CompactTask) Execute(ctx context.Context) TaskResult {
	compacted := t.db.Compact(t.threshold)

	if compacted > 0 {
		t.logger.Printf("[Maintenance] Compacted %d namespaces", compacted)
	}

	return TaskResult{
		Success:          true,
		Message:          fmt.Sprintf("Compacted %d namespaces (threshold %.2f)", compacted, t.threshold),
		RecordsProcessed: compacted,
	}
}
