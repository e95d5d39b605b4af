package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"aiflash/app/database"
	"aiflash/app/retrieval"
	"aiflash/app/tasks"
)

func NewHandler(engine RetrievalEngine, repo database.ArticleRepository,
	index IndexStats, scheduler tasks.TaskSchedulerInterface, briefTopN int) *Handler {
	return &Handler{
		engine:    engine,
		repo:      repo,
		index:     index,
		scheduler: scheduler,
		briefTopN: briefTopN,
	}
}

func (h *Handler) GetMorningBrief(c *gin.Context) {
	brief, err := h.engine.MorningBrief(c.Request.Context(), h.briefTopN)
	if err != nil {
		slog.Error("Failed to build morning brief", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve morning brief"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":        brief.Cards,
		"generated_at": brief.GeneratedAt.Format(time.RFC3339),
		"count":        len(brief.Cards),
	})
}

func (h *Handler) GetTopicFeed(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	timeframe := c.DefaultQuery("timeframe", "all")
	if _, err := retrieval.WindowStart(timeframe, time.Now().UTC()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.TopicFeed(c.Request.Context(), query, timeframe)
	if err != nil {
		slog.Error("Failed to build topic feed", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve topic feed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetCard(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing card id"})
		return
	}

	article, err := h.repo.Get(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_card", "content_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
		return
	}

	c.JSON(http.StatusOK, retrieval.DisplayCard(article))
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if count, err := h.repo.Count(); err == nil {
		health["articles"] = count
	}
	health["indexed"] = h.index.Count()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.repo.Stats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": gin.H{
			"total":      stats.Total,
			"unscored":   stats.Unscored,
			"checked":    stats.Checked,
			"passed":     stats.Passed,
			"summarized": stats.Summarized,
			"parked":     stats.Parked,
		},
		"indexed":  h.index.Count(),
		"last_runs": h.scheduler.LastRuns(),
	})
}

func (h *Handler) TriggerJob(c *gin.Context) {
	jobType := tasks.TaskType(c.Param("type"))

	switch jobType {
	case tasks.TaskTypeFetch, tasks.TaskTypeScore, tasks.TaskTypeSummarize,
		tasks.TaskTypeIndexSync, tasks.TaskTypeCleanup:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown job type",
			"message": "Use: fetch, score, summarize, index_sync, cleanup"})
		return
	}

	if err := h.scheduler.EnqueueJob(jobType); err != nil {
		slog.Error("Failed to enqueue job", "type", string(jobType), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "enqueued", "type": string(jobType)})
}
