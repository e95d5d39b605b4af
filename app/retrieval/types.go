package retrieval

import (
	"fmt"
	"time"

	"aiflash/app/database"
	"aiflash/app/vector"
)

// Card is the reader-facing projection of one article. Fully enriched
// articles carry every field; backfilled cards from lower tiers degrade
// gracefully to whatever the raw entry provides.
type Card struct {
	ContentID    string               `json:"content_id"`
	ContentType  string               `json:"type"`
	Title        string               `json:"title"`
	Source       string               `json:"source"`
	Link         string               `json:"link"`
	PublishedAt  time.Time            `json:"published_at"`
	TlDr         string               `json:"tl_dr"`
	Summary      string               `json:"summary"`
	WhyItMatters string               `json:"why_it_matters"`
	Tags         []string             `json:"tags"`
	Badges       []string             `json:"badges"`
	References   []database.Reference `json:"references"`
	Snippet      string               `json:"snippet"`
	Enriched     bool                 `json:"enriched"`
}

// Brief is the daily digest response.
type Brief struct {
	Cards       []Card    `json:"items"`
	GeneratedAt time.Time `json:"generated_at"`
}

// TopicResult is the topic query response. Narrative fields are always
// populated, either by synthesis or by a generic fallback.
type TopicResult struct {
	Query        string    `json:"topic_query"`
	Timeframe    string    `json:"timeframe"`
	Summary      string    `json:"topic_summary"`
	WhyItMatters string    `json:"why_it_matters"`
	Cards        []Card    `json:"items"`
	SearchTier   string    `json:"search_tier"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Search tiers reported in TopicResult.
const (
	TierVector = "vector"
	TierText   = "text"
)

// WindowStart maps a timeframe name to its cutoff. The zero time means no
// cutoff.
func WindowStart(timeframe string, now time.Time) (time.Time, error) {
	switch timeframe {
	case "24h":
		return now.Add(-24 * time.Hour), nil
	case "7d":
		return now.Add(-7 * 24 * time.Hour), nil
	case "30d":
		return now.Add(-30 * 24 * time.Hour), nil
	case "all":
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("invalid timeframe %q: use 24h, 7d, 30d or all", timeframe)
	}
}

func cardFromArticle(a *database.Article) Card {
	return Card{
		ContentID:    a.ContentID,
		ContentType:  a.ContentType,
		Title:        a.Title,
		Source:       a.Source,
		Link:         a.Link,
		PublishedAt:  a.PublishedAt,
		TlDr:         a.TlDr,
		Summary:      a.Summary,
		WhyItMatters: a.WhyItMatters,
		Tags:         a.Tags,
		Badges:       a.Badges,
		References:   a.References,
		Snippet:      a.Snippet,
		Enriched:     a.Summarized,
	}
}

func cardFromHit(hit vector.Hit) Card {
	doc := hit.Document

	refs := make([]database.Reference, len(doc.References))
	for i, ref := range doc.References {
		refs[i] = database.Reference{Label: ref.Label, URL: ref.URL}
	}

	return Card{
		ContentID:    doc.ContentID,
		ContentType:  doc.ContentType,
		Title:        doc.Title,
		Source:       doc.Source,
		Link:         doc.Link,
		PublishedAt:  doc.PublishedAt,
		TlDr:         doc.TlDr,
		Summary:      doc.Summary,
		WhyItMatters: doc.WhyItMatters,
		Tags:         doc.Tags,
		Badges:       doc.Badges,
		References:   refs,
		Snippet:      doc.Snippet,
		Enriched:     true,
	}
}
