package database

import (
	"time"
)

// RelevanceThreshold is the minimum relevance score an article needs to
// reach the summarization stage and primary retrieval tiers.
const RelevanceThreshold = 0.7

// FailureCeiling is the maximum number of enrichment failures before an
// article is parked. Parked articles are skipped by stage selection but
// remain queryable through fallback tiers.
const FailureCeiling = 3

// Reference is a labeled link attached to a summarized article.
type Reference struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Article is the single mutable entity tracked through the enrichment
// pipeline. Identity fields are set once by the fetcher; status flags only
// move forward.
type Article struct {
	ContentID   string
	Title       string
	Source      string
	Link        string
	Description string
	RawText     string
	PublishedAt time.Time

	RelevanceChecked bool
	Summarized       bool
	FailureCount     int
	RelevanceScore   *float64

	ContentType  string
	TlDr         string
	Summary      string
	WhyItMatters string
	Tags         []string
	Badges       []string
	References   []Reference
	Snippet      string

	IngestedAt   time.Time
	SummarizedAt *time.Time
}

// ScorePassed reports whether the article has been relevance-checked and
// cleared the threshold.
func (a *Article) ScorePassed() bool {
	return a.RelevanceChecked && a.RelevanceScore != nil && *a.RelevanceScore >= RelevanceThreshold
}

// Parked reports whether the article has exhausted its retry budget.
func (a *Article) Parked() bool {
	return a.FailureCount >= FailureCeiling
}

// SummaryPatch carries all summary fields persisted atomically by the
// enricher when an article is marked summarized.
type SummaryPatch struct {
	ContentType  string
	TlDr         string
	Summary      string
	WhyItMatters string
	Tags         []string
	Badges       []string
	References   []Reference
	Snippet      string
}

// ArticleStats summarizes pipeline progress for monitoring endpoints.
type ArticleStats struct {
	Total      int
	Unscored   int
	Checked    int
	Passed     int
	Summarized int
	Parked     int
}
