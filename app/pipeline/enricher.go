package pipeline

import (
	"context"
	"log/slog"

	"aiflash/app/ai"
	"aiflash/app/database"
)

// EnrichResult reports one summarization pass.
type EnrichResult struct {
	Summarized int
	Failed     int
}

// Enricher runs the summarization stage: generate the structured summary,
// apply the content heuristics, and persist everything in one atomic
// update. A generation or persistence failure leaves the article exactly
// as it was, with only the failure counter bumped.
type Enricher struct {
	repo      database.ArticleRepository
	generator ai.Generator
}

func NewEnricher(repo database.ArticleRepository, generator ai.Generator) *Enricher {
	return &Enricher{repo: repo, generator: generator}
}

func (e *Enricher) Run(ctx context.Context, limit int) (EnrichResult, error) {
	articles, err := e.repo.SelectForSummarizing(limit)
	if err != nil {
		return EnrichResult{}, err
	}

	var result EnrichResult
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := e.enrichOne(ctx, &article); err != nil {
			slog.Warn("Failed to enrich article", "content_id", article.ContentID, "error", err)
			if err := e.repo.IncrementFailure(article.ContentID); err != nil {
				slog.Error("Failed to record enrichment failure", "content_id", article.ContentID, "error", err)
			}
			result.Failed++
			continue
		}

		result.Summarized++
	}

	return result, nil
}

func (e *Enricher) enrichOne(ctx context.Context, article *database.Article) error {
	summary, err := e.generator.Summarize(ctx, article.Title, article.RawText, article.Source, article.Link)
	if err != nil {
		return err
	}

	refs := CleanReferences(toDatabaseRefs(summary.References), article.Link)

	patch := database.SummaryPatch{
		ContentType:  DetectContentType(article.Link, article.Title),
		TlDr:         TruncateTlDr(summary.TlDr),
		Summary:      summary.Summary,
		WhyItMatters: summary.WhyItMatters,
		Tags:         LimitTags(summary.Tags),
		Badges:       ExtractBadges(article.RawText, refs),
		References:   refs,
		Snippet:      MakeSnippet(article.RawText),
	}

	return e.repo.MarkSummarized(article.ContentID, patch)
}

func toDatabaseRefs(refs []ai.Reference) []database.Reference {
	out := make([]database.Reference, len(refs))
	for i, ref := range refs {
		out[i] = database.Reference{Label: ref.Label, URL: ref.URL}
	}
	return out
}
