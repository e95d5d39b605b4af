package pipeline

import (
	"net/url"
	"strings"

	"aiflash/app/database"
)

// CleanReferences validates and deduplicates model-extracted references.
// Invalid entries (empty, non-http, placeholder) are dropped; near-identical
// URLs (trailing slash, www. prefix) collapse to the first occurrence. When
// nothing survives, the article's own link becomes the single reference so
// every card has at least one way out.
func CleanReferences(refs []database.Reference, articleLink string) []database.Reference {
	seen := make(map[string]bool)
	cleaned := make([]database.Reference, 0, len(refs))

	for _, ref := range refs {
		if !validReferenceURL(ref.URL) {
			continue
		}

		key := normalizeRefURL(ref.URL)
		if seen[key] {
			continue
		}
		seen[key] = true

		label := strings.TrimSpace(ref.Label)
		if label == "" {
			label = "Link"
		}

		cleaned = append(cleaned, database.Reference{Label: label, URL: ref.URL})
	}

	if len(cleaned) == 0 && validReferenceURL(articleLink) {
		cleaned = append(cleaned, database.Reference{Label: "Source", URL: articleLink})
	}

	return cleaned
}

func validReferenceURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	// Models sometimes emit literal placeholders from the prompt example.
	if strings.Contains(raw, "...") {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// normalizeRefURL produces a dedup key. The stored reference keeps its
// original form; only comparison is normalized.
func normalizeRefURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	path := strings.TrimRight(u.Path, "/")

	return strings.ToLower(u.Scheme) + "://" + host + path + normalizeQuery(u)
}

func normalizeQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}
