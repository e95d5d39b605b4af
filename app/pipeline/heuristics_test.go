package pipeline

import (
	"strings"
	"testing"

	"aiflash/app/database"
)

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name  string
		link  string
		title string
		want  string
	}{
		{"arxiv url", "https://arxiv.org/abs/2401.1234", "Scaling laws revisited", "paper"},
		{"paper in title", "https://example.com/post", "A new paper on attention", "paper"},
		{"github url", "https://github.com/org/repo", "Fast inference kernels", "code"},
		{"release title", "https://example.com/blog", "Announcing our v2 release", "release"},
		{"plain blog", "https://example.com/blog", "Thoughts on agents", "blog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectContentType(tt.link, tt.title); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractBadges(t *testing.T) {
	refs := []database.Reference{
		{Label: "Code", URL: "https://github.com/org/repo"},
	}

	badges := ExtractBadges("We release the dataset and benchmark results. Easy to reproduce.", refs)

	want := []string{"CODE", "DATA", "REPRO", "BENCHMARK"}
	if len(badges) != len(want) {
		t.Fatalf("expected %v, got %v", want, badges)
	}
	for i := range want {
		if badges[i] != want[i] {
			t.Errorf("expected badge %q at %d, got %q", want[i], i, badges[i])
		}
	}
}

func TestExtractBadgesNoSignals(t *testing.T) {
	if badges := ExtractBadges("An opinion piece about the industry.", nil); len(badges) != 0 {
		t.Errorf("expected no badges, got %v", badges)
	}
}

func TestTruncateTlDr(t *testing.T) {
	short := "Model beats baselines."
	if got := TruncateTlDr(short); got != short {
		t.Errorf("short tl;dr changed: %q", got)
	}

	long := strings.Repeat("a", 200)
	got := TruncateTlDr(long)
	if len([]rune(got)) != TlDrMaxLen {
		t.Errorf("expected %d runes, got %d", TlDrMaxLen, len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
}

func TestLimitTags(t *testing.T) {
	got := LimitTags([]string{"llm", "", "  ", "vision", "audio", "robotics"})
	want := []string{"llm", "vision", "audio"}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected tag %q at %d, got %q", want[i], i, got[i])
		}
	}
}

func TestMakeSnippet(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := MakeSnippet(long)
	if len([]rune(got)) != SnippetLen+3 {
		t.Errorf("expected %d runes, got %d", SnippetLen+3, len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix")
	}

	if got := MakeSnippet("short text"); got != "short text" {
		t.Errorf("short text changed: %q", got)
	}
}
