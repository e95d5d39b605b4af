package feed

import (
	"time"
)

// Source is one configured feed endpoint.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	// Trusted sources are eligible for the raw fallback tier of the
	// daily digest before any relevance check has run.
	Trusted bool `yaml:"trusted"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// RawArticle is a normalized feed entry before any enrichment.
type RawArticle struct {
	ContentID   string
	Title       string
	Link        string
	Description string
	Content     string
	Source      string
	PublishedAt time.Time
}

// SourceResult reports the outcome of fetching a single source.
type SourceResult struct {
	Source  string
	Fetched int
	Err     error
}

// FetchStats aggregates a fetch run. Per-source failures never abort the
// run; they are reported here.
type FetchStats struct {
	Articles []RawArticle
	Results  []SourceResult
}

// Succeeded returns the number of sources fetched without error.
func (s *FetchStats) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of sources that errored.
func (s *FetchStats) Failed() int {
	return len(s.Results) - s.Succeeded()
}
