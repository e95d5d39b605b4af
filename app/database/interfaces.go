package database

import "time"

type ArticleRepository interface {
	Insert(article Article) (bool, error)
	Get(contentID string) (*Article, error)
	GetByIDs(contentIDs []string) ([]Article, error)
	Count() (int, error)
	Stats() (*ArticleStats, error)

	SelectForScoring(limit int) ([]Article, error)
	SelectForSummarizing(limit int) ([]Article, error)
	SelectSummarized(since time.Time, limit int) ([]Article, error)
	SelectCheckedUnsummarized(since time.Time, limit int) ([]Article, error)
	SelectRawCandidates(since time.Time, minTitleLen, minContentLen int, sources []string, limit int) ([]Article, error)
	ListSummarizedIDs() ([]string, error)
	Search(query string, since time.Time, limit int) ([]Article, error)

	MarkScored(contentID string, score float64) error
	MarkSummarized(contentID string, patch SummaryPatch) error
	IncrementFailure(contentID string) error

	DeleteOlderThan(cutoff time.Time) (int, error)
}
