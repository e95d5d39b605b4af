package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/aiflash.db" description:"Path to the SQLite database file"`

	// Feed ingestion configuration
	SourcesFile  string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file listing feed sources"`
	FeedLimit    int    `long:"feed-limit" env:"FEED_LIMIT" default:"25" description:"Maximum entries ingested per feed per fetch run"`
	ExtractFloor int    `long:"extract-floor" env:"EXTRACT_FLOOR" default:"200" description:"Minimum feed-provided content length before full-page extraction is attempted"`

	// AI provider configuration
	AIEndpoint     string `long:"ai-endpoint" env:"AI_ENDPOINT" default:"https://api.openai.com/v1" description:"Base URL of the OpenAI-compatible API"`
	AIAPIKey       string `long:"ai-api-key" env:"AI_API_KEY" description:"API key for the AI provider (required)" required:"true"`
	ChatModel      string `long:"chat-model" env:"CHAT_MODEL" default:"gpt-4o-mini" description:"Chat model used for scoring and summarization"`
	EmbeddingModel string `long:"embedding-model" env:"EMBEDDING_MODEL" default:"text-embedding-3-small" description:"Model used for embeddings"`

	// Pipeline configuration
	ScoreBatch     int `long:"score-batch" env:"SCORE_BATCH" default:"20" description:"Maximum articles scored per scorer run"`
	SummarizeBatch int `long:"summarize-batch" env:"SUMMARIZE_BATCH" default:"10" description:"Maximum articles summarized per enricher run"`
	IndexBatch     int `long:"index-batch" env:"INDEX_BATCH" default:"50" description:"Maximum articles published per index-sync run"`
	RetentionDays  int `long:"retention-days" env:"RETENTION_DAYS" default:"90" description:"Articles older than this are removed by the cleanup job"`

	// Scheduler configuration
	WorkerCount     int `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for pipeline jobs"`
	FetchInterval   int `long:"fetch-interval" env:"FETCH_INTERVAL" default:"3600" description:"Feed fetch interval in seconds"`
	EnrichInterval  int `long:"enrich-interval" env:"ENRICH_INTERVAL" default:"300" description:"Scoring/summarization interval in seconds"`
	SyncInterval    int `long:"sync-interval" env:"SYNC_INTERVAL" default:"600" description:"Vector index sync interval in seconds"`
	CleanupInterval int `long:"cleanup-interval" env:"CLEANUP_INTERVAL" default:"86400" description:"Retention sweep interval in seconds"`

	// HTTP configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for management endpoints (optional)"`
	BriefTopN    int    `long:"brief-top-n" env:"BRIEF_TOP_N" default:"10" description:"Number of items in the morning brief"`
	TopicTopK    int    `long:"topic-top-k" env:"TOPIC_TOP_K" default:"15" description:"Number of items in a topic feed response"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"AIFlash/1.0 (AI Research Aggregator)" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:          raw.DBPath,
		SourcesFile:     raw.SourcesFile,
		FeedLimit:       raw.FeedLimit,
		ExtractFloor:    raw.ExtractFloor,
		AIEndpoint:      raw.AIEndpoint,
		AIAPIKey:        raw.AIAPIKey,
		ChatModel:       raw.ChatModel,
		EmbeddingModel:  raw.EmbeddingModel,
		ScoreBatch:      raw.ScoreBatch,
		SummarizeBatch:  raw.SummarizeBatch,
		IndexBatch:      raw.IndexBatch,
		RetentionDays:   raw.RetentionDays,
		WorkerCount:     raw.WorkerCount,
		FetchInterval:   raw.FetchInterval,
		EnrichInterval:  raw.EnrichInterval,
		SyncInterval:    raw.SyncInterval,
		CleanupInterval: raw.CleanupInterval,
		Port:            raw.Port,
		APIAccessKey:    raw.APIAccessKey,
		BriefTopN:       raw.BriefTopN,
		TopicTopK:       raw.TopicTopK,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
