package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	readMoreRe   = regexp.MustCompile(`(?i)(read more|continue reading).*$`)
)

// CleanContent strips HTML tags, collapses whitespace, removes trailing
// feed artifacts and normalizes the text to NFC.
func CleanContent(content string) string {
	content = htmlTagRe.ReplaceAllString(content, " ")
	content = whitespaceRe.ReplaceAllString(content, " ")
	content = readMoreRe.ReplaceAllString(content, "")
	content = norm.NFC.String(content)
	return strings.TrimSpace(content)
}

// GenerateContentID derives the stable article key from title, source and
// publish time. The same entry fetched twice always maps to the same id.
func GenerateContentID(title, source string, publishedAt time.Time) string {
	payload := fmt.Sprintf("%s|%s|%s", title, source, publishedAt.UTC().Format(time.RFC3339))
	sum := sha256.Sum256([]byte(payload))
	slug := strings.ReplaceAll(strings.ToLower(source), " ", "-")
	return fmt.Sprintf("%s:%s", slug, hex.EncodeToString(sum[:])[:12])
}
