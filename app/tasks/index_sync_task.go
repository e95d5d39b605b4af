package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"aiflash/app/pipeline"
)

type IndexSyncTask struct {
	Task
	indexer    *pipeline.Indexer
	batchLimit int
	outcome    string
}

func NewIndexSyncTask(indexer *pipeline.Indexer, batchLimit int) *IndexSyncTask {
	return &IndexSyncTask{
		Task:       NewTask(TaskTypeIndexSync),
		indexer:    indexer,
		batchLimit: batchLimit,
	}
}

func (t *IndexSyncTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.indexer.Sync(ctx, t.batchLimit)
	if err != nil {
		return fmt.Errorf("failed to run index sync: %w", err)
	}

	t.outcome = fmt.Sprintf("published=%d removed=%d failed=%d",
		result.Published, result.Removed, result.Failed)

	slog.Info("Task completed",
		"type", "IndexSync",
		"duration", t.GetDuration(),
		"published", result.Published,
		"removed", result.Removed,
		"failed", result.Failed)

	return nil
}

func (t *IndexSyncTask) Outcome() string {
	return t.outcome
}
