package service

import (
	"context"
	"encoding/json"
	"fmt"

	"coursecat-web/internal/models"
	"coursecat-web/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// LogTracker reports outcomes to the shared logger. Used by the worker as a
// fallback sink and by the sample generator.
type LogTracker struct {
	Log *logrus.Logger
}

func (t *LogTracker) Row(outcome RowOutcome) {
	fields := logrus.Fields{
		"line":      outcome.Line,
		"operation": outcome.Operation,
		"messages":  outcome.Messages,
	}
	if outcome.Succeeded {
		t.Log.WithFields(fields).Info("row imported")
	} else {
		t.Log.WithFields(fields).Warn("row rejected")
	}
}

func (t *LogTracker) Finish(stats models.ImportStats) {
	t.Log.WithFields(logrus.Fields{
		"total":   stats.Total,
		"created": stats.Created,
		"updated": stats.Updated,
		"deleted": stats.Deleted,
		"errors":  stats.Errors,
	}).Info("import finished")
}

// SessionTracker persists per-row outcomes to the import session and pushes
// percentage progress to Redis so the API can poll it.
type SessionTracker struct {
	session *models.ImportSession
	repo    *repository.ImportRepository
	redis   *redis.Client
	log     *logrus.Logger
	seen    int
}

func NewSessionTracker(session *models.ImportSession, repo *repository.ImportRepository, redisClient *redis.Client, log *logrus.Logger) *SessionTracker {
	return &SessionTracker{
		session: session,
		repo:    repo,
		redis:   redisClient,
		log:     log,
	}
}

// ProgressKey is the Redis key holding a session's progress percentage.
func ProgressKey(sessionCode string) string {
	return fmt.Sprintf("import:progress:%s", sessionCode)
}

func (t *SessionTracker) Row(outcome RowOutcome) {
	t.seen++

	messages, _ := json.Marshal(outcome.Messages)
	rawData, _ := json.Marshal(outcome.Data)

	row := &models.ImportRow{
		SessionID:  t.session.ID,
		LineNumber: outcome.Line,
		Succeeded:  outcome.Succeeded,
		Operation:  string(outcome.Operation),
		CategoryID: outcome.CategoryID,
		Messages:   string(messages),
		RawData:    string(rawData),
	}
	if err := t.repo.InsertRow(row); err != nil {
		t.log.WithError(err).WithField("line", outcome.Line).Error("failed to persist row result")
	}

	if t.redis != nil && t.session.TotalRows > 0 {
		progress := float64(t.seen) / float64(t.session.TotalRows) * 100
		key := ProgressKey(t.session.SessionCode)
		if err := t.redis.Set(context.Background(), key, fmt.Sprintf("%.2f", progress), 0).Err(); err != nil {
			t.log.WithError(err).Debug("failed to publish progress")
		}
	}
}

func (t *SessionTracker) Finish(stats models.ImportStats) {
	t.session.CreatedCount = stats.Created
	t.session.UpdatedCount = stats.Updated
	t.session.DeletedCount = stats.Deleted
	t.session.ErrorCount = stats.Errors
	if err := t.repo.UpdateSession(t.session); err != nil {
		t.log.WithError(err).Error("failed to persist session totals")
	}
}
