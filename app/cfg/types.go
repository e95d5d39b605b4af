package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Feed ingestion configuration
	SourcesFile  string
	FeedLimit    int
	ExtractFloor int

	// AI provider configuration (OpenAI-compatible API)
	AIEndpoint     string
	AIAPIKey       string
	ChatModel      string
	EmbeddingModel string

	// Pipeline configuration
	ScoreBatch     int
	SummarizeBatch int
	IndexBatch     int
	RetentionDays  int

	// Scheduler configuration
	WorkerCount     int
	FetchInterval   int
	EnrichInterval  int
	SyncInterval    int
	CleanupInterval int

	// HTTP configuration
	Port         string
	APIAccessKey string
	BriefTopN    int
	TopicTopK    int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
