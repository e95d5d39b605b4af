package database

import "testing"

func TestScorePassed(t *testing.T) {
	passing := 0.9
	failing := 0.3
	boundary := RelevanceThreshold

	tests := []struct {
		name    string
		article Article
		want    bool
	}{
		{"unchecked", Article{}, false},
		{"checked without score", Article{RelevanceChecked: true}, false},
		{"checked below threshold", Article{RelevanceChecked: true, RelevanceScore: &failing}, false},
		{"checked at threshold", Article{RelevanceChecked: true, RelevanceScore: &boundary}, true},
		{"checked above threshold", Article{RelevanceChecked: true, RelevanceScore: &passing}, true},
		{"score without check", Article{RelevanceScore: &passing}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.article.ScorePassed(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
