package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"aiflash/app/cfg"
	"aiflash/app/database"
	"aiflash/app/pipeline"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// outcomeReporter is implemented by tasks that describe their result.
type outcomeReporter interface {
	Outcome() string
}

type Scheduler struct {
	ingestor *pipeline.Ingestor
	scorer   *pipeline.Scorer
	enricher *pipeline.Enricher
	indexer  *pipeline.Indexer
	repo     database.ArticleRepository

	scoreBatch     int
	summarizeBatch int
	indexBatch     int
	retentionDays  int

	fetchInterval   time.Duration
	enrichInterval  time.Duration
	syncInterval    time.Duration
	cleanupInterval time.Duration

	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	// typeLocks enforce at most one concurrent run per job type. A job
	// whose previous run is still active is skipped, not queued up.
	typeLocks map[TaskType]*sync.Mutex

	runsMu   sync.Mutex
	lastRuns map[TaskType]RunRecord
}

func NewScheduler(ingestor *pipeline.Ingestor, scorer *pipeline.Scorer, enricher *pipeline.Enricher,
	indexer *pipeline.Indexer, repo database.ArticleRepository) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	typeLocks := make(map[TaskType]*sync.Mutex)
	for _, taskType := range []TaskType{TaskTypeFetch, TaskTypeScore, TaskTypeSummarize, TaskTypeIndexSync, TaskTypeCleanup} {
		typeLocks[taskType] = &sync.Mutex{}
	}

	return &Scheduler{
		ingestor:        ingestor,
		scorer:          scorer,
		enricher:        enricher,
		indexer:         indexer,
		repo:            repo,
		scoreBatch:      cfg.ScoreBatch,
		summarizeBatch:  cfg.SummarizeBatch,
		indexBatch:      cfg.IndexBatch,
		retentionDays:   cfg.RetentionDays,
		fetchInterval:   time.Duration(cfg.FetchInterval) * time.Second,
		enrichInterval:  time.Duration(cfg.EnrichInterval) * time.Second,
		syncInterval:    time.Duration(cfg.SyncInterval) * time.Second,
		cleanupInterval: time.Duration(cfg.CleanupInterval) * time.Second,
		workerCount:     cfg.WorkerCount,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 100),
		typeLocks:       typeLocks,
		lastRuns:        make(map[TaskType]RunRecord),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		fetchTicker := time.NewTicker(s.fetchInterval)
		defer fetchTicker.Stop()
		enrichTicker := time.NewTicker(s.enrichInterval)
		defer enrichTicker.Stop()
		syncTicker := time.NewTicker(s.syncInterval)
		defer syncTicker.Stop()
		cleanupTicker := time.NewTicker(s.cleanupInterval)
		defer cleanupTicker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-fetchTicker.C:
				s.enqueueJobLogged(TaskTypeFetch)
			case <-enrichTicker.C:
				s.enqueueJobLogged(TaskTypeScore)
				s.enqueueJobLogged(TaskTypeSummarize)
			case <-syncTicker.C:
				s.enqueueJobLogged(TaskTypeIndexSync)
			case <-cleanupTicker.C:
				s.enqueueJobLogged(TaskTypeCleanup)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueJob builds a fresh task of the given type and queues it. This is
// the entry point for both the tickers and the manual-trigger endpoint.
func (s *Scheduler) EnqueueJob(taskType TaskType) error {
	task, err := s.newJobTask(taskType)
	if err != nil {
		return err
	}
	return s.EnqueueTask(task)
}

// LastRuns returns the most recent run record of each job type.
func (s *Scheduler) LastRuns() []RunRecord {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	records := make([]RunRecord, 0, len(s.lastRuns))
	for _, record := range s.lastRuns {
		records = append(records, record)
	}
	return records
}

func (s *Scheduler) newJobTask(taskType TaskType) (TaskInterface, error) {
	switch taskType {
	case TaskTypeFetch:
		return NewFetchTask(s.ingestor), nil
	case TaskTypeScore:
		return NewScoreTask(s.scorer, s.scoreBatch), nil
	case TaskTypeSummarize:
		return NewSummarizeTask(s.enricher, s.summarizeBatch), nil
	case TaskTypeIndexSync:
		return NewIndexSyncTask(s.indexer, s.indexBatch), nil
	case TaskTypeCleanup:
		return NewCleanupTask(s.repo, s.retentionDays), nil
	default:
		return nil, fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	for _, taskType := range []TaskType{TaskTypeFetch, TaskTypeScore, TaskTypeSummarize, TaskTypeIndexSync} {
		s.enqueueJobLogged(taskType)
	}
}

func (s *Scheduler) enqueueJobLogged(taskType TaskType) {
	if err := s.EnqueueJob(taskType); err != nil {
		slog.Warn("Failed to enqueue task", "type", string(taskType), "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	if lock := s.typeLocks[task.GetType()]; lock != nil {
		if !lock.TryLock() {
			slog.Debug("Skipping task, previous run still active", "type", string(task.GetType()), "id", task.GetID())
			return
		}
		defer lock.Unlock()
	}

	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	s.recordRun(task, err)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}

func (s *Scheduler) recordRun(task TaskInterface, err error) {
	record := RunRecord{
		Type:        task.GetType(),
		CompletedAt: time.Now().UTC(),
		Duration:    task.GetDuration().String(),
	}
	if err != nil {
		record.Error = err.Error()
	} else if reporter, ok := task.(outcomeReporter); ok {
		record.Outcome = reporter.Outcome()
	}

	s.runsMu.Lock()
	s.lastRuns[task.GetType()] = record
	s.runsMu.Unlock()
}
