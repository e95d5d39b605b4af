package tasks

import (
	"context"
	"testing"
	"time"

	"aiflash/app/database"
)

func TestNewTaskDefaults(t *testing.T) {
	task := NewTask(TaskTypeScore)

	if task.GetType() != TaskTypeScore {
		t.Errorf("unexpected type: %s", task.GetType())
	}
	if task.GetID() == "" {
		t.Error("expected non-empty id")
	}
	if task.GetRetryCount() != 0 {
		t.Errorf("expected retry count 0, got %d", task.GetRetryCount())
	}
	if task.GetMaxRetries() != DefaultMaxRetries {
		t.Errorf("expected max retries %d, got %d", DefaultMaxRetries, task.GetMaxRetries())
	}
}

func TestTaskRetryBudget(t *testing.T) {
	task := NewTask(TaskTypeFetch)

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("expected retry %d to be allowed", i)
		}
		task.IncrementRetryCount()
	}

	if task.CanRetry() {
		t.Error("retry allowed past the budget")
	}
}

func TestTaskDuration(t *testing.T) {
	task := NewTask(TaskTypeCleanup)

	if task.GetDuration() != 0 {
		t.Error("expected zero duration before start")
	}

	task.Start()
	time.Sleep(10 * time.Millisecond)

	if task.GetDuration() <= 0 {
		t.Error("expected positive duration after start")
	}
}

func TestCleanupTaskDeletesOldArticles(t *testing.T) {
	db, err := database.NewConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %s", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %s", err)
	}

	repo := database.NewArticleRepository(db)

	now := time.Now().UTC()
	articles := []database.Article{
		{ContentID: "old", Title: "Old article", Source: "arxiv", Link: "https://example.com/old", PublishedAt: now.AddDate(0, 0, -120)},
		{ContentID: "fresh", Title: "Fresh article", Source: "arxiv", Link: "https://example.com/fresh", PublishedAt: now},
	}
	for _, a := range articles {
		if _, err := repo.Insert(a); err != nil {
			t.Fatalf("failed to insert %s: %s", a.ContentID, err)
		}
	}

	task := NewCleanupTask(repo, 90)
	task.Start()

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("failed to execute cleanup: %s", err)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("failed to count: %s", err)
	}
	if count != 1 {
		t.Errorf("expected 1 article after cleanup, got %d", count)
	}

	remaining, err := repo.Get("fresh")
	if err != nil || remaining == nil {
		t.Errorf("fresh article missing after cleanup")
	}
	if task.Outcome() != "deleted=1" {
		t.Errorf("unexpected outcome: %s", task.Outcome())
	}
}
