package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"aiflash/app/pipeline"
)

type SummarizeTask struct {
	Task
	enricher   *pipeline.Enricher
	batchLimit int
	outcome    string
}

func NewSummarizeTask(enricher *pipeline.Enricher, batchLimit int) *SummarizeTask {
	return &SummarizeTask{
		Task:       NewTask(TaskTypeSummarize),
		enricher:   enricher,
		batchLimit: batchLimit,
	}
}

func (t *SummarizeTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.enricher.Run(ctx, t.batchLimit)
	if err != nil {
		return fmt.Errorf("failed to run summarization: %w", err)
	}

	t.outcome = fmt.Sprintf("summarized=%d failed=%d", result.Summarized, result.Failed)

	slog.Info("Task completed",
		"type", "Summarize",
		"duration", t.GetDuration(),
		"summarized", result.Summarized,
		"failed", result.Failed)

	return nil
}

func (t *SummarizeTask) Outcome() string {
	return t.outcome
}
