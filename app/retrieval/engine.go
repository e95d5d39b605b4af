package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"aiflash/app/ai"
	"aiflash/app/database"
	"aiflash/app/pipeline"
	"aiflash/app/vector"
)

const (
	// VectorSearchTimeout is the hard cancellation boundary on the vector
	// tier of topic queries. The text tier must never wait behind it.
	VectorSearchTimeout = 2500 * time.Millisecond

	// DigestWindow is the recency window of the daily digest.
	DigestWindow = 7 * 24 * time.Hour

	// Raw articles below these floors never surface in the digest.
	minRawTitleLen   = 20
	minRawContentLen = 100
)

// Engine answers the two retrieval shapes over the article store and the
// vector index. Every query is a tiered fallback chain: enrichment
// completeness ranks results but never hides them.
type Engine struct {
	repo      database.ArticleRepository
	index     vector.Index
	embedder  ai.Embedder
	generator ai.Generator
	trusted   map[string]bool
	topK      int
}

func NewEngine(repo database.ArticleRepository, index vector.Index, embedder ai.Embedder, generator ai.Generator, trusted map[string]bool, topK int) *Engine {
	return &Engine{
		repo:      repo,
		index:     index,
		embedder:  embedder,
		generator: generator,
		trusted:   trusted,
		topK:      topK,
	}
}

// MorningBrief assembles the daily digest. Tier 1 takes summarized
// articles from the digest window by score; if short, tier 2 backfills
// score-passed unsummarized articles newest first, and tier 3 backfills
// raw articles from trusted sources that meet the quality floors.
func (e *Engine) MorningBrief(ctx context.Context, topN int) (*Brief, error) {
	now := time.Now().UTC()
	since := now.Add(-DigestWindow)

	summarized, err := e.repo.SelectSummarized(since, topN)
	if err != nil {
		return nil, fmt.Errorf("digest tier 1 failed: %w", err)
	}

	cards := make([]Card, 0, topN)
	seen := make(map[string]bool)
	for i := range summarized {
		cards = append(cards, cardFromArticle(&summarized[i]))
		seen[summarized[i].ContentID] = true
	}

	if len(cards) < topN {
		checked, err := e.repo.SelectCheckedUnsummarized(since, topN)
		if err != nil {
			return nil, fmt.Errorf("digest tier 2 failed: %w", err)
		}
		cards = backfill(cards, checked, seen, topN)
	}

	if len(cards) < topN {
		raw, err := e.repo.SelectRawCandidates(since, minRawTitleLen, minRawContentLen, e.trustedSources(), topN)
		if err != nil {
			return nil, fmt.Errorf("digest tier 3 failed: %w", err)
		}
		cards = backfill(cards, raw, seen, topN)
	}

	return &Brief{Cards: cards, GeneratedAt: now}, nil
}

// TopicFeed answers a topic query. The vector tier runs under a hard
// timeout; timeout, error or an empty hit set all fall through to the
// text tier. The narrative is synthesized best-effort.
func (e *Engine) TopicFeed(ctx context.Context, query, timeframe string) (*TopicResult, error) {
	now := time.Now().UTC()
	since, err := WindowStart(timeframe, now)
	if err != nil {
		return nil, err
	}

	result := &TopicResult{
		Query:       query,
		Timeframe:   timeframe,
		GeneratedAt: now,
	}

	cards, tier := e.searchTiers(ctx, query, since)
	result.Cards = cards
	result.SearchTier = tier

	if len(cards) == 0 {
		result.Summary = fmt.Sprintf("No recent articles found for '%s'", query)
		result.WhyItMatters = "Try a different search term or broader timeframe"
		return result, nil
	}

	result.Summary, result.WhyItMatters = e.synthesize(ctx, query, cards)

	return result, nil
}

func (e *Engine) searchTiers(ctx context.Context, query string, since time.Time) ([]Card, string) {
	cards, err := e.vectorTier(ctx, query, since)
	if err != nil {
		slog.Warn("Vector search tier failed, falling back to text search", "query", query, "error", err)
	}
	if err == nil && len(cards) > 0 {
		return cards, TierVector
	}

	articles, err := e.repo.Search(query, since, e.topK)
	if err != nil {
		slog.Warn("Text search tier failed", "query", query, "error", err)
		return nil, TierText
	}

	cards = make([]Card, 0, len(articles))
	for i := range articles {
		cards = append(cards, DisplayCard(&articles[i]))
	}

	return cards, TierText
}

// vectorTier embeds the query and searches the index, all under the hard
// timeout. The work runs in its own goroutine so an unresponsive index
// can never delay the fallback beyond the deadline.
func (e *Engine) vectorTier(ctx context.Context, query string, since time.Time) ([]Card, error) {
	ctx, cancel := context.WithTimeout(ctx, VectorSearchTimeout)
	defer cancel()

	type outcome struct {
		hits []vector.Hit
		err  error
	}

	done := make(chan outcome, 1)
	go func() {
		embedding, err := e.embedder.Embed(ctx, query)
		if err != nil {
			done <- outcome{err: err}
			return
		}
		hits, err := e.index.Search(ctx, embedding, e.topK, since)
		done <- outcome{hits: hits, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		cards := make([]Card, 0, len(o.hits))
		for _, hit := range o.hits {
			cards = append(cards, cardFromHit(hit))
		}
		return cards, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("vector search exceeded %s: %w", VectorSearchTimeout, ctx.Err())
	}
}

func (e *Engine) synthesize(ctx context.Context, query string, cards []Card) (string, string) {
	docs := make([]ai.TopicDoc, 0, len(cards))
	for _, card := range cards {
		summary := card.Summary
		if summary == "" {
			summary = card.Snippet
		}
		docs = append(docs, ai.TopicDoc{Title: card.Title, Summary: summary})
	}

	synthesis, err := e.generator.SynthesizeTopic(ctx, query, docs)
	if err != nil {
		slog.Warn("Topic synthesis failed, using generic narrative", "query", query, "error", err)
		return fmt.Sprintf("Recent developments in %s.", query), "This topic is significant for AI research."
	}

	return synthesis.Summary, synthesis.WhyItMatters
}

func backfill(cards []Card, articles []database.Article, seen map[string]bool, topN int) []Card {
	for i := range articles {
		if len(cards) >= topN {
			break
		}
		a := &articles[i]
		if seen[a.ContentID] {
			continue
		}
		seen[a.ContentID] = true
		cards = append(cards, DisplayCard(a))
	}
	return cards
}

func (e *Engine) trustedSources() []string {
	sources := make([]string, 0, len(e.trusted))
	for source, ok := range e.trusted {
		if ok {
			sources = append(sources, source)
		}
	}
	sort.Strings(sources)
	return sources
}

// DisplayCard degrades gracefully: unsummarized articles get a card
// built from their raw fields so lower tiers are still presentable.
func DisplayCard(a *database.Article) Card {
	if a.Summarized {
		return cardFromArticle(a)
	}

	card := cardFromArticle(a)
	card.ContentType = pipeline.DetectContentType(a.Link, a.Title)
	card.TlDr = pipeline.TruncateTlDr(firstNonEmpty(a.Description, a.Title))
	card.Snippet = pipeline.MakeSnippet(a.RawText)
	if len(card.References) == 0 && a.Link != "" {
		card.References = []database.Reference{{Label: "Source", URL: a.Link}}
	}
	return card
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
