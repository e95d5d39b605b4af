package pipeline

import (
	"context"
	"log/slog"

	"aiflash/app/ai"
	"aiflash/app/database"
)

// ScoreResult reports one relevance scoring pass.
type ScoreResult struct {
	Scored int
	Passed int
	Failed int
}

// Scorer runs the relevance check stage. Each article is scored at most
// once; scoring failures increment the failure counter and the article is
// retried on a later pass until the ceiling parks it.
type Scorer struct {
	repo   database.ArticleRepository
	scorer ai.Scorer
}

func NewScorer(repo database.ArticleRepository, scorer ai.Scorer) *Scorer {
	return &Scorer{repo: repo, scorer: scorer}
}

func (s *Scorer) Run(ctx context.Context, limit int) (ScoreResult, error) {
	articles, err := s.repo.SelectForScoring(limit)
	if err != nil {
		return ScoreResult{}, err
	}

	var result ScoreResult
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		score, err := s.scorer.Score(ctx, article.Title, article.RawText)
		if err != nil {
			slog.Warn("Failed to score article", "content_id", article.ContentID, "error", err)
			if err := s.repo.IncrementFailure(article.ContentID); err != nil {
				slog.Error("Failed to record scoring failure", "content_id", article.ContentID, "error", err)
			}
			result.Failed++
			continue
		}

		if err := s.repo.MarkScored(article.ContentID, score); err != nil {
			slog.Warn("Failed to persist score", "content_id", article.ContentID, "error", err)
			result.Failed++
			continue
		}

		result.Scored++
		article.RelevanceChecked = true
		article.RelevanceScore = &score
		if article.ScorePassed() {
			result.Passed++
		}
	}

	return result, nil
}
