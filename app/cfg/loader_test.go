package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestGetPanicsBeforeLoad(t *testing.T) {
	saved := globalCfg
	globalCfg = nil
	defer func() {
		globalCfg = saved
		if r := recover(); r == nil {
			t.Error("Get should panic before Load is called")
		}
	}()
	Get()
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:         "./data/test.db",
		SourcesFile:    "./sources.yml",
		FeedLimit:      25,
		AIEndpoint:     "https://api.openai.com/v1",
		ChatModel:      "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
		ScoreBatch:     20,
		SummarizeBatch: 10,
		BriefTopN:      10,
		TopicTopK:      15,
		Port:           "8080",
		WorkerCount:    3,
		RetentionDays:  90,
		UserAgent:      "Test Agent",
	}

	if cfg.DBPath != "./data/test.db" {
		t.Errorf("Expected db path './data/test.db', got '%s'", cfg.DBPath)
	}
	if cfg.BriefTopN != 10 {
		t.Errorf("Expected brief top n 10, got %d", cfg.BriefTopN)
	}
	if cfg.TopicTopK != 15 {
		t.Errorf("Expected topic top k 15, got %d", cfg.TopicTopK)
	}
	if cfg.RetentionDays != 90 {
		t.Errorf("Expected retention days 90, got %d", cfg.RetentionDays)
	}
}
