package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"coursecat-web/internal/config"
	"coursecat-web/internal/models"
	"coursecat-web/internal/repository"
	"coursecat-web/internal/service"
	"coursecat-web/internal/utils"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// TaskImportCategories is the asynq task type for one import session run.
const TaskImportCategories = "categories:import"

type ImportTaskPayload struct {
	SessionID   int    `json:"session_id"`
	SessionCode string `json:"session_code"`
}

// NewImportTask builds the asynq task for a session.
func NewImportTask(session *models.ImportSession) (*asynq.Task, error) {
	payload, err := json.Marshal(ImportTaskPayload{
		SessionID:   session.ID,
		SessionCode: session.SessionCode,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportCategories, payload), nil
}

type ImportTaskHandler struct {
	redis        *redis.Client
	cfg          *config.Config
	categoryRepo *repository.CategoryRepository
	importRepo   *repository.ImportRepository
	log          *logrus.Logger
}

func NewImportTaskHandler(db *sqlx.DB, redis *redis.Client, cfg *config.Config) *ImportTaskHandler {
	return &ImportTaskHandler{
		redis:        redis,
		cfg:          cfg,
		categoryRepo: repository.NewCategoryRepository(db),
		importRepo:   repository.NewImportRepository(db),
		log:          utils.GetLogger(),
	}
}

// Handle runs one import session end to end. Row failures never fail the
// task; only fatal engine errors mark the session failed.
func (h *ImportTaskHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload ImportTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	log := h.log.WithField("session", payload.SessionCode)
	log.Info("starting category import")

	session, err := h.importRepo.GetSessionByID(payload.SessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	switch session.Status {
	case models.ImportStatusCanceled:
		log.Info("session canceled, skipping")
		return nil
	case models.ImportStatusCompleted, models.ImportStatusFailed:
		log.Infof("session already %s, skipping", session.Status)
		return nil
	}

	policy, err := session.Policy()
	if err != nil {
		_ = h.importRepo.MarkSessionFailed(session.ID, err.Error())
		return fmt.Errorf("invalid session policy: %w", err)
	}

	if err := h.importRepo.UpdateSessionStatus(session.ID, models.ImportStatusProcessing); err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	session.Status = models.ImportStatusProcessing

	decoder, err := service.OpenDecoder(session.FilePath)
	if err != nil {
		_ = h.importRepo.MarkSessionFailed(session.ID, err.Error())
		return fmt.Errorf("failed to open import file: %w", err)
	}

	tracker := service.NewSessionTracker(session, h.importRepo, h.redis, h.log)
	processor := service.NewImportProcessor(decoder, h.categoryRepo, tracker, service.RecordOptions{
		Policy: policy,
		Defaults: models.CategoryDefaults{
			Visible:     h.cfg.CategoryDefaultVisible,
			Description: h.cfg.CategoryDefaultDescription,
			Theme:       h.cfg.CategoryDefaultTheme,
		},
		RootName:    h.cfg.CategoryRootName,
		ProtectedID: h.cfg.CategoryProtectedID,
	})

	stats, err := processor.Execute()
	if err != nil {
		_ = h.importRepo.MarkSessionFailed(session.ID, err.Error())
		return fmt.Errorf("import failed: %w", err)
	}

	session.Status = models.ImportStatusCompleted
	if err := h.importRepo.UpdateSession(session); err != nil {
		log.WithError(err).Error("failed to mark session completed")
	}

	log.WithFields(logrus.Fields{
		"total":   stats.Total,
		"created": stats.Created,
		"updated": stats.Updated,
		"deleted": stats.Deleted,
		"errors":  stats.Errors,
	}).Info("category import completed")

	return nil
}
