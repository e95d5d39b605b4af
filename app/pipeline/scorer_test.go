package pipeline

import (
	"context"
	"fmt"
	"testing"

	"aiflash/app/database"
)

func TestScorerMarksArticlesScored(t *testing.T) {
	repo, _ := setupTestRepo(t)
	insertArticle(t, repo, "a1")
	insertArticle(t, repo, "a2")

	scorer := NewScorer(repo, &stubScorer{score: 0.9})

	result, err := scorer.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to run scorer: %s", err)
	}

	if result.Scored != 2 || result.Passed != 2 || result.Failed != 0 {
		t.Errorf("unexpected result: %+v", result)
	}

	article, err := repo.Get("a1")
	if err != nil {
		t.Fatalf("failed to get article: %s", err)
	}
	if !article.RelevanceChecked || article.RelevanceScore == nil || *article.RelevanceScore != 0.9 {
		t.Errorf("article not scored: %+v", article)
	}
}

func TestScorerCountsBelowThresholdAsScored(t *testing.T) {
	repo, _ := setupTestRepo(t)
	insertArticle(t, repo, "a1")

	scorer := NewScorer(repo, &stubScorer{score: 0.3})

	result, err := scorer.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to run scorer: %s", err)
	}

	if result.Scored != 1 || result.Passed != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestScorerFailureIncrementsCounterUntilParked(t *testing.T) {
	repo, _ := setupTestRepo(t)
	insertArticle(t, repo, "a1")

	stub := &stubScorer{err: fmt.Errorf("model unavailable")}
	scorer := NewScorer(repo, stub)

	for i := 0; i < database.FailureCeiling; i++ {
		result, err := scorer.Run(context.Background(), 10)
		if err != nil {
			t.Fatalf("run %d failed: %s", i, err)
		}
		if result.Failed != 1 {
			t.Errorf("run %d: expected 1 failure, got %+v", i, result)
		}
	}

	// Parked now: the selection query must stop returning it.
	result, err := scorer.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to run scorer: %s", err)
	}
	if result.Failed != 0 || result.Scored != 0 {
		t.Errorf("parked article still selected: %+v", result)
	}
	if stub.calls != database.FailureCeiling {
		t.Errorf("expected %d scoring attempts, got %d", database.FailureCeiling, stub.calls)
	}

	article, err := repo.Get("a1")
	if err != nil {
		t.Fatalf("failed to get article: %s", err)
	}
	if !article.Parked() {
		t.Errorf("expected parked article, failure count %d", article.FailureCount)
	}
}

func TestScorerRespectsBatchLimit(t *testing.T) {
	repo, _ := setupTestRepo(t)
	for i := 0; i < 5; i++ {
		insertArticle(t, repo, fmt.Sprintf("a%d", i))
	}

	scorer := NewScorer(repo, &stubScorer{score: 0.8})

	result, err := scorer.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("failed to run scorer: %s", err)
	}
	if result.Scored != 2 {
		t.Errorf("expected 2 scored, got %+v", result)
	}
}
