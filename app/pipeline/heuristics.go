package pipeline

import (
	"strings"

	"aiflash/app/database"
)

const (
	// TlDrMaxLen is the hard cap on the one-line takeaway.
	TlDrMaxLen = 140
	// MaxTags bounds the topical tags kept per article.
	MaxTags = 3
	// SnippetLen is the preview length cut from the raw text.
	SnippetLen = 300
)

var (
	dataKeywords      = []string{"dataset", "data", "benchmark"}
	reproKeywords     = []string{"reproduce", "replication", "open source"}
	benchmarkKeywords = []string{"benchmark", "evaluation", "performance"}
)

// DetectContentType classifies an article as paper, code, release or blog
// from its URL and title.
func DetectContentType(link, title string) string {
	linkLower := strings.ToLower(link)
	titleLower := strings.ToLower(title)

	switch {
	case strings.Contains(linkLower, "arxiv.org") || strings.Contains(titleLower, "paper"):
		return "paper"
	case strings.Contains(linkLower, "github.com") || strings.Contains(titleLower, "code"):
		return "code"
	case strings.Contains(titleLower, "release") || strings.Contains(titleLower, "announce"):
		return "release"
	default:
		return "blog"
	}
}

// ExtractBadges derives content badges from keyword signals in the text
// and from reference URLs.
func ExtractBadges(content string, refs []database.Reference) []string {
	var badges []string
	contentLower := strings.ToLower(content)

	for _, ref := range refs {
		if strings.Contains(strings.ToLower(ref.URL), "github.com") {
			badges = append(badges, "CODE")
			break
		}
	}
	if containsAny(contentLower, dataKeywords) {
		badges = append(badges, "DATA")
	}
	if containsAny(contentLower, reproKeywords) {
		badges = append(badges, "REPRO")
	}
	if containsAny(contentLower, benchmarkKeywords) {
		badges = append(badges, "BENCHMARK")
	}

	return badges
}

// TruncateTlDr enforces the tl;dr length cap, cutting at a rune boundary
// with a trailing ellipsis.
func TruncateTlDr(tlDr string) string {
	runes := []rune(strings.TrimSpace(tlDr))
	if len(runes) <= TlDrMaxLen {
		return string(runes)
	}
	return string(runes[:TlDrMaxLen-3]) + "..."
}

// LimitTags keeps at most MaxTags non-empty tags.
func LimitTags(tags []string) []string {
	var kept []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		kept = append(kept, tag)
		if len(kept) == MaxTags {
			break
		}
	}
	return kept
}

// MakeSnippet cuts a preview from the raw text.
func MakeSnippet(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= SnippetLen {
		return string(runes)
	}
	return string(runes[:SnippetLen]) + "..."
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
