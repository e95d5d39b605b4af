package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"aiflash/app/pipeline"
)

type ScoreTask struct {
	Task
	scorer     *pipeline.Scorer
	batchLimit int
	outcome    string
}

func NewScoreTask(scorer *pipeline.Scorer, batchLimit int) *ScoreTask {
	return &ScoreTask{
		Task:       NewTask(TaskTypeScore),
		scorer:     scorer,
		batchLimit: batchLimit,
	}
}

func (t *ScoreTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.scorer.Run(ctx, t.batchLimit)
	if err != nil {
		return fmt.Errorf("failed to run relevance scoring: %w", err)
	}

	t.outcome = fmt.Sprintf("scored=%d passed=%d failed=%d",
		result.Scored, result.Passed, result.Failed)

	slog.Info("Task completed",
		"type", "Score",
		"duration", t.GetDuration(),
		"scored", result.Scored,
		"passed", result.Passed,
		"failed", result.Failed)

	return nil
}

func (t *ScoreTask) Outcome() string {
	return t.outcome
}
