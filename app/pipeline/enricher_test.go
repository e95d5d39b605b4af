package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"aiflash/app/ai"
	"aiflash/app/database"
)

func TestEnricherPersistsAllFieldsAtomically(t *testing.T) {
	repo, _ := setupTestRepo(t)
	insertArticle(t, repo, "a1")
	if err := repo.MarkScored("a1", 0.9); err != nil {
		t.Fatalf("failed to mark scored: %s", err)
	}

	gen := &stubGenerator{summary: &ai.Summary{
		TlDr:         strings.Repeat("Sparse models win. ", 10),
		Summary:      "The paper derives sparse scaling laws.",
		WhyItMatters: "Guides compute allocation.",
		Tags:         []string{"scaling", "moe", "efficiency", "extra"},
		References: []ai.Reference{
			{Label: "Paper", URL: "https://arxiv.org/abs/1"},
			{Label: "Code", URL: "https://github.com/org/repo"},
		},
	}}

	enricher := NewEnricher(repo, gen)

	result, err := enricher.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to run enricher: %s", err)
	}
	if result.Summarized != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	article, err := repo.Get("a1")
	if err != nil {
		t.Fatalf("failed to get article: %s", err)
	}
	if !article.Summarized {
		t.Fatal("article not marked summarized")
	}
	if len([]rune(article.TlDr)) > TlDrMaxLen {
		t.Errorf("tl;dr exceeds cap: %d runes", len([]rune(article.TlDr)))
	}
	if len(article.Tags) != MaxTags {
		t.Errorf("expected %d tags, got %v", MaxTags, article.Tags)
	}
	if article.ContentType != "paper" {
		t.Errorf("expected content type paper, got %q", article.ContentType)
	}
	if len(article.References) != 2 {
		t.Errorf("expected 2 references, got %+v", article.References)
	}
	// CODE badge from the github reference, DATA and BENCHMARK from the text.
	if len(article.Badges) == 0 || article.Badges[0] != "CODE" {
		t.Errorf("expected CODE badge first, got %v", article.Badges)
	}
	if article.Snippet == "" {
		t.Error("expected snippet to be set")
	}
	if article.SummarizedAt == nil {
		t.Error("expected summarized_at to be set")
	}
}

func TestEnricherFailureLeavesArticleUntouched(t *testing.T) {
	repo, _ := setupTestRepo(t)
	insertArticle(t, repo, "a1")
	if err := repo.MarkScored("a1", 0.9); err != nil {
		t.Fatalf("failed to mark scored: %s", err)
	}

	enricher := NewEnricher(repo, &stubGenerator{err: fmt.Errorf("model unavailable")})

	result, err := enricher.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to run enricher: %s", err)
	}
	if result.Failed != 1 || result.Summarized != 0 {
		t.Errorf("unexpected result: %+v", result)
	}

	article, err := repo.Get("a1")
	if err != nil {
		t.Fatalf("failed to get article: %s", err)
	}
	if article.Summarized || article.TlDr != "" || article.SummarizedAt != nil {
		t.Errorf("failed enrichment left partial state: %+v", article)
	}
	if article.FailureCount != 1 {
		t.Errorf("expected failure count 1, got %d", article.FailureCount)
	}
}

func TestEnricherParksAfterRepeatedFailures(t *testing.T) {
	repo, _ := setupTestRepo(t)
	insertArticle(t, repo, "a1")
	if err := repo.MarkScored("a1", 0.9); err != nil {
		t.Fatalf("failed to mark scored: %s", err)
	}

	gen := &stubGenerator{err: fmt.Errorf("model unavailable")}
	enricher := NewEnricher(repo, gen)

	for i := 0; i < database.FailureCeiling; i++ {
		if _, err := enricher.Run(context.Background(), 10); err != nil {
			t.Fatalf("run %d failed: %s", i, err)
		}
	}

	result, err := enricher.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to run enricher: %s", err)
	}
	if result.Failed != 0 {
		t.Errorf("parked article still selected: %+v", result)
	}
	if gen.calls != database.FailureCeiling {
		t.Errorf("expected %d attempts, got %d", database.FailureCeiling, gen.calls)
	}
}

func TestEnricherSkipsBelowThresholdArticles(t *testing.T) {
	repo, _ := setupTestRepo(t)
	insertArticle(t, repo, "a1")
	if err := repo.MarkScored("a1", 0.4); err != nil {
		t.Fatalf("failed to mark scored: %s", err)
	}

	gen := &stubGenerator{summary: &ai.Summary{TlDr: "x"}}
	enricher := NewEnricher(repo, gen)

	result, err := enricher.Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to run enricher: %s", err)
	}
	if result.Summarized != 0 || gen.calls != 0 {
		t.Errorf("below-threshold article was summarized: %+v", result)
	}
}
