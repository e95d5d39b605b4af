package vector

import (
	"context"
	"time"
)

// Document is the self-sufficient projection stored alongside each vector.
// A search hit can be rendered without a second lookup in the article store.
type Document struct {
	ContentID    string      `json:"content_id"`
	Title        string      `json:"title"`
	Source       string      `json:"source"`
	Link         string      `json:"link"`
	PublishedAt  time.Time   `json:"published_at"`
	TlDr         string      `json:"tl_dr"`
	Summary      string      `json:"summary"`
	WhyItMatters string      `json:"why_it_matters"`
	Tags         []string    `json:"tags"`
	Badges       []string    `json:"badges"`
	References   []Reference `json:"references"`
	ContentType  string      `json:"content_type"`
	Snippet      string      `json:"snippet"`
}

type Reference struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Hit is a search result with its cosine similarity score.
type Hit struct {
	Document Document
	Score    float64
}

// Index stores embedded documents and serves similarity queries.
type Index interface {
	Upsert(ctx context.Context, doc Document, embedding []float32) error
	Search(ctx context.Context, query []float32, topK int, since time.Time) ([]Hit, error)
	Delete(ctx context.Context, id string) error
	IDs() map[string]bool
	Count() int
}
