package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/domain"
	"github.com/jafarshop/ledgersync/internal/repository"
	"github.com/jafarshop/ledgersync/pkg/errors"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// SyncRunner starts a sync run (service.Syncer satisfies it)
type SyncRunner interface {
	RunSync(ctx context.Context) (*domain.SyncRun, error)
}

// HandleTriggerSync handles POST /internal/sync
func HandleTriggerSync(syncer SyncRunner, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The run outlives a disconnecting client
		ctx := context.WithoutCancel(c.Request.Context())

		run, err := syncer.RunSync(ctx)
		if err != nil {
			if errors.IsConflict(err) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			logger.Error("Manual sync failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{
				"error": err.Error(),
				"run":   run,
			})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"run": run})
	}
}

// HandleGetStats handles GET /internal/sync/stats
func HandleGetStats(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := repos.Stats.Get(c.Request.Context())
		if err != nil {
			logger.Error("Failed to get sync stats", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

// HandleListLogs handles GET /internal/sync/logs?limit=N or ?run_id=<uuid>
func HandleListLogs(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if runIDParam := c.Query("run_id"); runIDParam != "" {
			runID, err := uuid.Parse(runIDParam)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run_id"})
				return
			}
			entries, err := repos.SyncLog.ListByRunID(ctx, runID)
			if err != nil {
				logger.Error("Failed to list sync log by run", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"entries": nonNil(entries)})
			return
		}

		limit := defaultLogLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}
		if limit > maxLogLimit {
			limit = maxLogLimit
		}

		entries, err := repos.SyncLog.ListRecent(ctx, limit)
		if err != nil {
			logger.Error("Failed to list sync log", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"entries": nonNil(entries)})
	}
}

func nonNil(entries []*domain.SyncLogEntry) []*domain.SyncLogEntry {
	if entries == nil {
		return []*domain.SyncLogEntry{}
	}
	return entries
}
