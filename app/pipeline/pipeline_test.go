package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"aiflash/app/ai"
	"aiflash/app/database"
)

func setupTestRepo(t *testing.T) (*database.SQLArticleRepository, *database.DB) {
	t.Helper()

	db, err := database.NewConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %s", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %s", err)
	}

	return database.NewArticleRepository(db), db
}

func insertArticle(t *testing.T, repo *database.SQLArticleRepository, id string) {
	t.Helper()

	inserted, err := repo.Insert(database.Article{
		ContentID:   id,
		Title:       "Scaling laws for sparse models " + id,
		Source:      "arxiv",
		Link:        "https://arxiv.org/abs/" + id,
		Description: "A study of sparse scaling.",
		RawText:     "We study scaling laws for sparse mixture models and release a benchmark dataset.",
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to insert article: %s", err)
	}
	if !inserted {
		t.Fatalf("article %s not inserted", id)
	}
}

type stubScorer struct {
	score float64
	err   error
	calls int
}

func (s *stubScorer) Score(_ context.Context, _, _ string) (float64, error) {
	s.calls++
	return s.score, s.err
}

type stubGenerator struct {
	summary *ai.Summary
	err     error
	calls   int
}

func (g *stubGenerator) Summarize(_ context.Context, _, _, _, _ string) (*ai.Summary, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.summary, nil
}

func (g *stubGenerator) SynthesizeTopic(_ context.Context, _ string, _ []ai.TopicDoc) (*ai.TopicSynthesis, error) {
	return nil, fmt.Errorf("not used")
}

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (e *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vec, nil
}

func markEnriched(t *testing.T, repo *database.SQLArticleRepository, id string, score float64) {
	t.Helper()

	if err := repo.MarkScored(id, score); err != nil {
		t.Fatalf("failed to mark scored: %s", err)
	}
	if err := repo.MarkSummarized(id, database.SummaryPatch{
		ContentType:  "paper",
		TlDr:         "Sparse models scale predictably.",
		Summary:      "The paper derives scaling laws for sparse models.",
		WhyItMatters: "Guides compute allocation.",
		Tags:         []string{"scaling"},
		References:   []database.Reference{{Label: "Paper", URL: "https://arxiv.org/abs/" + id}},
		Snippet:      "We study scaling laws...",
	}); err != nil {
		t.Fatalf("failed to mark summarized: %s", err)
	}
}
