package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"aiflash/app/feed"
)

const ingestFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Lab</title>
    <item>
      <title>New diffusion model released today</title>
      <link>https://example.com/diffusion</link>
      <description>We release a new diffusion model.</description>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Benchmark results for agent frameworks</title>
      <link>https://example.com/agents</link>
      <description>We evaluate five agent frameworks.</description>
      <pubDate>Tue, 04 Jul 2023 09:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestIngestorStoresNewArticlesOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ingestFeed)
	}))
	defer server.Close()

	repo, _ := setupTestRepo(t)
	fetcher := feed.NewFetcher(server.Client(), "test-agent", 0)
	sources := []feed.Source{{Name: "test-lab", URL: server.URL}}

	ingestor := NewIngestor(fetcher, repo, sources, 25)

	result, err := ingestor.Run(context.Background())
	if err != nil {
		t.Fatalf("failed to ingest: %s", err)
	}
	if result.Fetched != 2 || result.Inserted != 2 || result.Duplicates != 0 {
		t.Errorf("unexpected first run result: %+v", result)
	}

	// Refetching the same feed must not create duplicates.
	result, err = ingestor.Run(context.Background())
	if err != nil {
		t.Fatalf("failed to ingest: %s", err)
	}
	if result.Inserted != 0 || result.Duplicates != 2 {
		t.Errorf("unexpected second run result: %+v", result)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("failed to count: %s", err)
	}
	if count != 2 {
		t.Errorf("expected 2 stored articles, got %d", count)
	}
}

func TestIngestorReportsSourceFailures(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, ingestFeed)
	}))
	defer good.Close()

	repo, _ := setupTestRepo(t)
	fetcher := feed.NewFetcher(http.DefaultClient, "test-agent", 0)
	sources := []feed.Source{
		{Name: "bad-lab", URL: bad.URL},
		{Name: "good-lab", URL: good.URL},
	}

	ingestor := NewIngestor(fetcher, repo, sources, 25)

	result, err := ingestor.Run(context.Background())
	if err != nil {
		t.Fatalf("failed to ingest: %s", err)
	}
	if result.SourcesFailed != 1 {
		t.Errorf("expected 1 failed source, got %+v", result)
	}
	if result.Inserted != 2 {
		t.Errorf("expected 2 inserted from healthy source, got %+v", result)
	}
}
