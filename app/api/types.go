package api

import (
	"context"

	"aiflash/app/database"
	"aiflash/app/retrieval"
	"aiflash/app/tasks"
)

// RetrievalEngine is the slice of the retrieval engine the handlers use.
type RetrievalEngine interface {
	MorningBrief(ctx context.Context, topN int) (*retrieval.Brief, error)
	TopicFeed(ctx context.Context, query, timeframe string) (*retrieval.TopicResult, error)
}

// IndexStats exposes the vector index figures shown in /stats.
type IndexStats interface {
	Count() int
}

type Handler struct {
	engine    RetrievalEngine
	repo      database.ArticleRepository
	index     IndexStats
	scheduler tasks.TaskSchedulerInterface
	briefTopN int
}
