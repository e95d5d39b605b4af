package feed

import (
	"strings"
	"testing"
	"time"
)

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips html tags",
			input:    "<p>Hello <b>world</b></p>",
			expected: "Hello world",
		},
		{
			name:     "collapses whitespace",
			input:    "Hello\n\n  world\t!",
			expected: "Hello world !",
		},
		{
			name:     "removes read more artifact",
			input:    "Interesting result. Read more at our blog",
			expected: "Interesting result.",
		},
		{
			name:     "removes continue reading artifact",
			input:    "Key finding here. Continue Reading →",
			expected: "Key finding here.",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanContent(tt.input)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestGenerateContentID(t *testing.T) {
	publishedAt := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)

	id1 := GenerateContentID("GPT-5 released", "OpenAI", publishedAt)
	id2 := GenerateContentID("GPT-5 released", "OpenAI", publishedAt)
	if id1 != id2 {
		t.Errorf("Expected stable content id, got %q and %q", id1, id2)
	}

	if !strings.HasPrefix(id1, "openai:") {
		t.Errorf("Expected source-prefixed id, got %q", id1)
	}

	id3 := GenerateContentID("GPT-5 released", "Hugging Face", publishedAt)
	if id1 == id3 {
		t.Error("Expected different sources to produce different ids")
	}
	if !strings.HasPrefix(id3, "hugging-face:") {
		t.Errorf("Expected slugged source prefix, got %q", id3)
	}

	id4 := GenerateContentID("GPT-5 released", "OpenAI", publishedAt.Add(time.Hour))
	if id1 == id4 {
		t.Error("Expected different publish times to produce different ids")
	}
}
