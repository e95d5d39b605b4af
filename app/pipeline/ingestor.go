package pipeline

import (
	"context"
	"log/slog"

	"aiflash/app/database"
	"aiflash/app/feed"
)

// IngestResult reports one fetch-and-store pass.
type IngestResult struct {
	Fetched       int
	Inserted      int
	Duplicates    int
	SourcesFailed int
}

// Ingestor pulls all configured feeds and stores new entries. Duplicate
// content ids are silently skipped; refetching a feed never mutates
// articles already in the store.
type Ingestor struct {
	fetcher      *feed.Fetcher
	repo         database.ArticleRepository
	sources      []feed.Source
	limitPerFeed int
}

func NewIngestor(fetcher *feed.Fetcher, repo database.ArticleRepository, sources []feed.Source, limitPerFeed int) *Ingestor {
	return &Ingestor{
		fetcher:      fetcher,
		repo:         repo,
		sources:      sources,
		limitPerFeed: limitPerFeed,
	}
}

func (i *Ingestor) Run(ctx context.Context) (IngestResult, error) {
	stats := i.fetcher.FetchAll(ctx, i.sources, i.limitPerFeed)

	result := IngestResult{
		Fetched:       len(stats.Articles),
		SourcesFailed: stats.Failed(),
	}

	for _, raw := range stats.Articles {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		inserted, err := i.repo.Insert(database.Article{
			ContentID:   raw.ContentID,
			Title:       raw.Title,
			Source:      raw.Source,
			Link:        raw.Link,
			Description: raw.Description,
			RawText:     raw.Content,
			PublishedAt: raw.PublishedAt,
		})
		if err != nil {
			slog.Warn("Failed to store article", "content_id", raw.ContentID, "error", err)
			continue
		}

		if inserted {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}

	return result, nil
}
