package pipeline

import (
	"context"
	"log/slog"

	"aiflash/app/ai"
	"aiflash/app/database"
	"aiflash/app/vector"
)

// SyncResult reports one index synchronization pass.
type SyncResult struct {
	Published int
	Removed   int
	Failed    int
}

// Indexer keeps the vector index converged on the set of summarized
// articles. It never mutates the article store: what still needs indexing
// is the difference between summarized ids and index ids, so a failed
// embed is simply retried on the next pass.
type Indexer struct {
	repo     database.ArticleRepository
	embedder ai.Embedder
	index    vector.Index
}

func NewIndexer(repo database.ArticleRepository, embedder ai.Embedder, index vector.Index) *Indexer {
	return &Indexer{repo: repo, embedder: embedder, index: index}
}

func (ix *Indexer) Sync(ctx context.Context, batchLimit int) (SyncResult, error) {
	summarizedIDs, err := ix.repo.ListSummarizedIDs()
	if err != nil {
		return SyncResult{}, err
	}

	indexed := ix.index.IDs()

	summarized := make(map[string]bool, len(summarizedIDs))
	var pending []string
	for _, id := range summarizedIDs {
		summarized[id] = true
		if !indexed[id] {
			pending = append(pending, id)
		}
	}

	var result SyncResult

	// Removals first so retention sweeps are reflected even when every
	// embed in this pass fails.
	for id := range indexed {
		if summarized[id] {
			continue
		}
		if err := ix.index.Delete(ctx, id); err != nil {
			slog.Warn("Failed to remove stale index entry", "content_id", id, "error", err)
			result.Failed++
			continue
		}
		result.Removed++
	}

	if batchLimit > 0 && len(pending) > batchLimit {
		pending = pending[:batchLimit]
	}

	articles, err := ix.repo.GetByIDs(pending)
	if err != nil {
		return result, err
	}

	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := ix.publishOne(ctx, &article); err != nil {
			slog.Warn("Failed to index article", "content_id", article.ContentID, "error", err)
			result.Failed++
			continue
		}
		result.Published++
	}

	return result, nil
}

func (ix *Indexer) publishOne(ctx context.Context, article *database.Article) error {
	embedding, err := ix.embedder.Embed(ctx, article.Title+"\n"+article.Summary)
	if err != nil {
		return err
	}

	return ix.index.Upsert(ctx, toDocument(article), embedding)
}

// toDocument projects every card field into the index so a search hit can
// be served without a store lookup.
func toDocument(article *database.Article) vector.Document {
	refs := make([]vector.Reference, len(article.References))
	for i, ref := range article.References {
		refs[i] = vector.Reference{Label: ref.Label, URL: ref.URL}
	}

	return vector.Document{
		ContentID:    article.ContentID,
		Title:        article.Title,
		Source:       article.Source,
		Link:         article.Link,
		PublishedAt:  article.PublishedAt,
		TlDr:         article.TlDr,
		Summary:      article.Summary,
		WhyItMatters: article.WhyItMatters,
		Tags:         article.Tags,
		Badges:       article.Badges,
		References:   refs,
		ContentType:  article.ContentType,
		Snippet:      article.Snippet,
	}
}
