package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	fetchTimeout = 30 * time.Second
	// richContentFloor is the minimum cleaned length for a content field
	// to be preferred over the description.
	richContentFloor = 100
)

// Fetcher pulls raw entries from configured feed sources and normalizes
// them into RawArticle records.
type Fetcher struct {
	httpClient   *http.Client
	parser       *gofeed.Parser
	extractor    *ContentExtractor
	userAgent    string
	extractFloor int
}

// NewFetcher creates a fetcher. extractFloor <= 0 disables full-page
// content extraction.
func NewFetcher(httpClient *http.Client, userAgent string, extractFloor int) *Fetcher {
	return &Fetcher{
		httpClient:   httpClient,
		parser:       gofeed.NewParser(),
		extractor:    NewContentExtractor(),
		userAgent:    userAgent,
		extractFloor: extractFloor,
	}
}

// FetchAll fetches every source, isolating failures per source: one
// unreachable or malformed feed never aborts the others.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source, limitPerFeed int) *FetchStats {
	stats := &FetchStats{}

	for _, src := range sources {
		articles, err := f.fetchSource(ctx, src, limitPerFeed)
		if err != nil {
			slog.Warn("Feed fetch failed", "source", src.Name, "url", src.URL, "error", err)
			stats.Results = append(stats.Results, SourceResult{Source: src.Name, Err: err})
			continue
		}

		slog.Debug("Feed fetched", "source", src.Name, "articles", len(articles))
		stats.Results = append(stats.Results, SourceResult{Source: src.Name, Fetched: len(articles)})
		stats.Articles = append(stats.Articles, articles...)
	}

	return stats
}

func (f *Fetcher) fetchSource(ctx context.Context, src Source, limit int) ([]RawArticle, error) {
	data, err := f.fetchURL(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	parsed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	articles := make([]RawArticle, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if limit > 0 && len(articles) >= limit {
			break
		}

		article, ok := f.normalizeItem(item, src)
		if !ok {
			continue
		}

		if f.extractFloor > 0 && len(article.Content) < f.extractFloor {
			f.enrichFromPage(ctx, &article)
		}

		articles = append(articles, article)
	}

	return articles, nil
}

// normalizeItem converts a feed entry into a RawArticle. Entries without a
// title or link are discarded. A missing or unparsable publish timestamp
// defaults to now: undated content should not be artificially aged.
func (f *Fetcher) normalizeItem(item *gofeed.Item, src Source) (RawArticle, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return RawArticle{}, false
	}

	publishedAt := time.Now().UTC()
	if item.PublishedParsed != nil {
		publishedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		publishedAt = item.UpdatedParsed.UTC()
	}

	return RawArticle{
		ContentID:   GenerateContentID(title, src.Name, publishedAt),
		Title:       title,
		Link:        link,
		Description: CleanContent(item.Description),
		Content:     f.extractContent(item),
		Source:      src.Name,
		PublishedAt: publishedAt,
	}, true
}

// extractContent picks the richest available field: full content when it
// carries enough text, description otherwise.
func (f *Fetcher) extractContent(item *gofeed.Item) string {
	content := CleanContent(item.Content)
	if len(content) >= richContentFloor {
		return content
	}

	description := CleanContent(item.Description)
	if len(description) > len(content) {
		return description
	}
	return content
}

// enrichFromPage tries to replace thin feed content with the readable text
// of the linked page. Failures leave the feed content untouched.
func (f *Fetcher) enrichFromPage(ctx context.Context, article *RawArticle) {
	data, err := f.fetchURL(ctx, article.Link)
	if err != nil {
		slog.Debug("Page fetch for extraction failed", "url", article.Link, "error", err)
		return
	}

	text, err := f.extractor.Run(data, article.Link)
	if err != nil {
		slog.Debug("Content extraction failed", "url", article.Link, "error", err)
		return
	}

	if len(text) > len(article.Content) {
		article.Content = text
	}
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
