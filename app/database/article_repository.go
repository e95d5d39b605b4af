package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when an article does not exist.
	ErrNotFound = errors.New("article not found")
	// ErrInvalidTransition is returned when a status update would move a
	// flag backwards or re-apply a terminal transition.
	ErrInvalidTransition = errors.New("invalid status transition")
)

var _ ArticleRepository = (*SQLArticleRepository)(nil)

// SQLArticleRepository implements ArticleRepository on SQLite. Every
// mutation is committed before the call returns.
type SQLArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

const articleColumns = `content_id, title, source, link, description, raw_text,
	published_at, is_relevance_check_done, is_summarized, failure_count,
	relevance_score, content_type, tl_dr, summary, why_it_matters,
	tags, badges, refs, snippet, ingested_at, summarized_at`

// Insert stores a new raw article. Returns false (and no error) when an
// article with the same content_id already exists.
func (r *SQLArticleRepository) Insert(article Article) (bool, error) {
	if article.ContentID == "" {
		return false, fmt.Errorf("article has no content_id")
	}

	ingestedAt := article.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now().UTC()
	}

	res, err := r.db.Exec(`
		INSERT OR IGNORE INTO articles (
			content_id, title, source, link, description, raw_text,
			published_at, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, article.ContentID, article.Title, article.Source, article.Link,
		article.Description, article.RawText,
		formatTime(article.PublishedAt), formatTime(ingestedAt))
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *SQLArticleRepository) Get(contentID string) (*Article, error) {
	row := r.db.QueryRow(`
		SELECT `+articleColumns+`
		FROM articles WHERE content_id = ?
	`, contentID)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

func (r *SQLArticleRepository) GetByIDs(contentIDs []string) ([]Article, error) {
	if len(contentIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(contentIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(contentIDs))
	for i, id := range contentIDs {
		args[i] = id
	}

	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles WHERE content_id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles by ids: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

func (r *SQLArticleRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (r *SQLArticleRepository) Stats() (*ArticleStats, error) {
	stats := &ArticleStats{}
	// SUM over zero rows is NULL, so every aggregate is coalesced to keep
	// the query scannable on an empty store.
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_relevance_check_done = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_relevance_check_done = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_relevance_check_done = 1 AND relevance_score >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_summarized = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN failure_count >= ? THEN 1 ELSE 0 END), 0)
		FROM articles
	`, RelevanceThreshold, FailureCeiling).Scan(
		&stats.Total, &stats.Unscored, &stats.Checked,
		&stats.Passed, &stats.Summarized, &stats.Parked)
	if err != nil {
		return nil, fmt.Errorf("failed to get article stats: %w", err)
	}
	return stats, nil
}

// SelectForScoring returns unscored articles under the failure ceiling,
// newest first. Freshness beats backlog.
func (r *SQLArticleRepository) SelectForScoring(limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE is_relevance_check_done = 0
		  AND failure_count < ?
		ORDER BY published_at DESC
		LIMIT ?
	`, FailureCeiling, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles for scoring: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// SelectForSummarizing returns score-passed, unsummarized articles under
// the failure ceiling, best score first.
func (r *SQLArticleRepository) SelectForSummarizing(limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE is_relevance_check_done = 1
		  AND is_summarized = 0
		  AND relevance_score >= ?
		  AND failure_count < ?
		ORDER BY relevance_score DESC, published_at DESC
		LIMIT ?
	`, RelevanceThreshold, FailureCeiling, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles for summarizing: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// SelectSummarized returns summarized articles published after since
// (zero time means no cutoff), ordered by relevance score descending with
// published_at descending as tiebreak.
func (r *SQLArticleRepository) SelectSummarized(since time.Time, limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE is_summarized = 1
		  AND published_at >= ?
		ORDER BY relevance_score DESC, published_at DESC
		LIMIT ?
	`, formatTime(since), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select summarized articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// SelectCheckedUnsummarized returns relevance-checked articles that passed
// the score gate but have not been summarized yet, newest first.
func (r *SQLArticleRepository) SelectCheckedUnsummarized(since time.Time, limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE is_relevance_check_done = 1
		  AND is_summarized = 0
		  AND relevance_score >= ?
		  AND published_at >= ?
		ORDER BY published_at DESC
		LIMIT ?
	`, RelevanceThreshold, formatTime(since), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select checked articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// SelectRawCandidates returns articles that have not entered the pipeline
// yet and meet the digest quality floors, newest first. Filtering in SQL
// keeps the limit exact: a backlog of thin entries cannot crowd out
// qualifying ones. Parked articles are included: terminal failure is a
// parking state, not a visibility gate.
func (r *SQLArticleRepository) SelectRawCandidates(since time.Time, minTitleLen, minContentLen int, sources []string, limit int) ([]Article, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(sources))
	placeholders = placeholders[:len(placeholders)-1]

	args := []any{formatTime(since), minTitleLen, minContentLen}
	for _, source := range sources {
		args = append(args, source)
	}
	args = append(args, limit)

	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE is_relevance_check_done = 0
		  AND published_at >= ?
		  AND LENGTH(title) >= ?
		  AND LENGTH(raw_text) >= ?
		  AND source IN (`+placeholders+`)
		ORDER BY published_at DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select raw candidates: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

func (r *SQLArticleRepository) ListSummarizedIDs() ([]string, error) {
	rows, err := r.db.Query("SELECT content_id FROM articles WHERE is_summarized = 1")
	if err != nil {
		return nil, fmt.Errorf("failed to list summarized ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan content id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating id rows: %w", err)
	}
	return ids, nil
}

// Search performs a case-insensitive substring match over title, summary
// and tl;dr, newest first. This is the text fallback tier of topic queries.
func (r *SQLArticleRepository) Search(query string, since time.Time, limit int) ([]Article, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	rows, err := r.db.Query(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE (LOWER(title) LIKE ? OR LOWER(summary) LIKE ? OR LOWER(tl_dr) LIKE ?)
		  AND published_at >= ?
		ORDER BY published_at DESC
		LIMIT ?
	`, pattern, pattern, pattern, formatTime(since), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// MarkScored records the relevance score and sets the checked flag. The
// flag moves forward exactly once; re-scoring a checked article is an
// invalid transition.
func (r *SQLArticleRepository) MarkScored(contentID string, score float64) error {
	res, err := r.db.Exec(`
		UPDATE articles
		SET relevance_score = ?, is_relevance_check_done = 1
		WHERE content_id = ? AND is_relevance_check_done = 0
	`, score, contentID)
	if err != nil {
		return fmt.Errorf("failed to mark article scored: %w", err)
	}

	return r.checkTransition(res, contentID)
}

// MarkSummarized persists all summary fields and the summarized flag in a
// single statement: partial summaries are never visible. The update is
// rejected unless the article is checked, passed the score gate, and has
// not been summarized before.
func (r *SQLArticleRepository) MarkSummarized(contentID string, patch SummaryPatch) error {
	tags, err := json.Marshal(emptyIfNil(patch.Tags))
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	badges, err := json.Marshal(emptyIfNil(patch.Badges))
	if err != nil {
		return fmt.Errorf("failed to marshal badges: %w", err)
	}
	refs, err := json.Marshal(patch.References)
	if err != nil {
		return fmt.Errorf("failed to marshal references: %w", err)
	}

	res, err := r.db.Exec(`
		UPDATE articles
		SET is_summarized = 1,
		    content_type = ?, tl_dr = ?, summary = ?, why_it_matters = ?,
		    tags = ?, badges = ?, refs = ?, snippet = ?,
		    summarized_at = ?
		WHERE content_id = ?
		  AND is_relevance_check_done = 1
		  AND is_summarized = 0
		  AND relevance_score >= ?
	`, patch.ContentType, patch.TlDr, patch.Summary, patch.WhyItMatters,
		string(tags), string(badges), string(refs), patch.Snippet,
		formatTime(time.Now().UTC()), contentID, RelevanceThreshold)
	if err != nil {
		return fmt.Errorf("failed to mark article summarized: %w", err)
	}

	return r.checkTransition(res, contentID)
}

// IncrementFailure bumps the failure counter. The counter only increases.
func (r *SQLArticleRepository) IncrementFailure(contentID string) error {
	res, err := r.db.Exec(`
		UPDATE articles SET failure_count = failure_count + 1 WHERE content_id = ?
	`, contentID)
	if err != nil {
		return fmt.Errorf("failed to increment failure count: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes articles published before cutoff and returns the
// number removed. Index reconciliation picks up the removals on the next
// sync pass.
func (r *SQLArticleRepository) DeleteOlderThan(cutoff time.Time) (int, error) {
	res, err := r.db.Exec(`
		DELETE FROM articles WHERE published_at < ?
	`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old articles: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(affected), nil
}

func (r *SQLArticleRepository) checkTransition(res sql.Result, contentID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists int
	if err := r.db.QueryRow("SELECT COUNT(1) FROM articles WHERE content_id = ?", contentID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to verify article existence: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*Article, error) {
	var a Article
	var publishedAt, ingestedAt string
	var summarizedAt sql.NullString
	var score sql.NullFloat64
	var tags, badges, refs string

	err := row.Scan(
		&a.ContentID, &a.Title, &a.Source, &a.Link, &a.Description, &a.RawText,
		&publishedAt, &a.RelevanceChecked, &a.Summarized, &a.FailureCount,
		&score, &a.ContentType, &a.TlDr, &a.Summary, &a.WhyItMatters,
		&tags, &badges, &refs, &a.Snippet, &ingestedAt, &summarizedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.PublishedAt, err = parseTime(publishedAt); err != nil {
		return nil, fmt.Errorf("failed to parse published_at: %w", err)
	}
	if a.IngestedAt, err = parseTime(ingestedAt); err != nil {
		return nil, fmt.Errorf("failed to parse ingested_at: %w", err)
	}
	if summarizedAt.Valid {
		t, err := parseTime(summarizedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse summarized_at: %w", err)
		}
		a.SummarizedAt = &t
	}
	if score.Valid {
		s := score.Float64
		a.RelevanceScore = &s
	}

	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(badges), &a.Badges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal badges: %w", err)
	}
	if err := json.Unmarshal([]byte(refs), &a.References); err != nil {
		return nil, fmt.Errorf("failed to unmarshal references: %w", err)
	}

	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}
	return articles, nil
}

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
