package ai

import (
	"context"
)

// Scorer assigns a relevance score in [0, 1] to an article. Any error is
// treated as a transient failure by the pipeline.
type Scorer interface {
	Score(ctx context.Context, title, content string) (float64, error)
}

// Reference is a labeled link extracted during summarization.
type Reference struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Summary is the structured output of a summarization call.
type Summary struct {
	TlDr         string      `json:"tl_dr"`
	Summary      string      `json:"summary"`
	WhyItMatters string      `json:"why_it_matters"`
	Tags         []string    `json:"tags"`
	References   []Reference `json:"references"`
}

// TopicDoc is one retrieved document handed to topic synthesis.
type TopicDoc struct {
	Title   string
	Summary string
}

// TopicSynthesis is a short narrative over a retrieved result set,
// distinct from per-article summaries.
type TopicSynthesis struct {
	Summary      string `json:"topic_summary"`
	WhyItMatters string `json:"why_it_matters"`
}

// Generator produces structured summaries and topic narratives.
type Generator interface {
	Summarize(ctx context.Context, title, content, source, url string) (*Summary, error)
	SynthesizeTopic(ctx context.Context, query string, docs []TopicDoc) (*TopicSynthesis, error)
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
