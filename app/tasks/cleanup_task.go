package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aiflash/app/database"
)

type CleanupTask struct {
	Task
	repo          database.ArticleRepository
	retentionDays int
	outcome       string
}

func NewCleanupTask(repo database.ArticleRepository, retentionDays int) *CleanupTask {
	return &CleanupTask{
		Task:          NewTask(TaskTypeCleanup),
		repo:          repo,
		retentionDays: retentionDays,
	}
}

// Execute deletes articles past the retention window. Their index
// projections are removed by the next index sync reconciliation.
func (t *CleanupTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -t.retentionDays)

	deleted, err := t.repo.DeleteOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("failed to run retention sweep: %w", err)
	}

	t.outcome = fmt.Sprintf("deleted=%d", deleted)

	slog.Info("Task completed",
		"type", "Cleanup",
		"duration", t.GetDuration(),
		"deleted", deleted,
		"cutoff", cutoff.Format(time.RFC3339))

	return nil
}

func (t *CleanupTask) Outcome() string {
	return t.outcome
}
