package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"aiflash/app/pipeline"
)

type FetchTask struct {
	Task
	ingestor *pipeline.Ingestor
	outcome  string
}

func NewFetchTask(ingestor *pipeline.Ingestor) *FetchTask {
	return &FetchTask{
		Task:     NewTask(TaskTypeFetch),
		ingestor: ingestor,
	}
}

func (t *FetchTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.ingestor.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to run feed ingestion: %w", err)
	}

	t.outcome = fmt.Sprintf("fetched=%d inserted=%d duplicates=%d sources_failed=%d",
		result.Fetched, result.Inserted, result.Duplicates, result.SourcesFailed)

	slog.Info("Task completed",
		"type", "Fetch",
		"duration", t.GetDuration(),
		"fetched", result.Fetched,
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"sources_failed", result.SourcesFailed)

	return nil
}

func (t *FetchTask) Outcome() string {
	return t.outcome
}
