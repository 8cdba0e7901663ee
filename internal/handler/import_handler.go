package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"coursecat-web/internal/config"
	"coursecat-web/internal/models"
	"coursecat-web/internal/repository"
	"coursecat-web/internal/service"
	"coursecat-web/internal/utils"
	"coursecat-web/internal/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

var allowedImportExtensions = map[string]bool{
	".csv":  true,
	".txt":  true,
	".xlsx": true,
	".xls":  true,
}

type ImportHandler struct {
	cfg         *config.Config
	importRepo  *repository.ImportRepository
	redis       *redis.Client
	asynqClient *asynq.Client
}

func NewImportHandler(db *sqlx.DB, redisClient *redis.Client, asynqClient *asynq.Client, cfg *config.Config) *ImportHandler {
	return &ImportHandler{
		cfg:         cfg,
		importRepo:  repository.NewImportRepository(db),
		redis:       redisClient,
		asynqClient: asynqClient,
	}
}

// Upload receives the import file plus the run policy, stores both, and leaves
// the session in "uploaded" until Process enqueues it.
func (h *ImportHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Import file is required", err)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImportExtensions[ext] {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported file type, expected .csv, .txt, .xlsx or .xls", nil)
	}
	if fileHeader.Size > int64(h.cfg.UploadMaxSize) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File exceeds the maximum upload size", nil)
	}

	policy, err := parsePolicyForm(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if err := os.MkdirAll(h.cfg.UploadPath, 0o755); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to prepare upload directory", err)
	}

	code := fmt.Sprintf("IMPORT-%s", uuid.New().String()[:8])
	destination := filepath.Join(h.cfg.UploadPath, code+ext)
	if err := saveUploadedFile(fileHeader, destination); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save uploaded file", err)
	}

	totalRows, err := countImportRows(destination)
	if err != nil {
		_ = os.Remove(destination)
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), err)
	}

	userID, _ := c.Locals("user_id").(int)
	session := &models.ImportSession{
		SessionCode:          code,
		UserID:               userID,
		Filename:             fileHeader.Filename,
		FilePath:             destination,
		Mode:                 string(policy.Mode),
		UpdateMode:           string(policy.UpdateMode),
		AllowDeletes:         policy.AllowDeletes,
		AllowRenames:         policy.AllowRenames,
		StandardiseNames:     policy.StandardiseNames,
		CreateMissingParents: policy.CreateMissingParents,
		TotalRows:            totalRows,
		Status:               models.ImportStatusUploaded,
	}
	if err := h.importRepo.CreateSession(session); err != nil {
		_ = os.Remove(destination)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create import session", err)
	}

	return utils.SuccessResponse(c, "File uploaded successfully", session)
}

// Process enqueues an uploaded session for the worker.
func (h *ImportHandler) Process(c *fiber.Ctx) error {
	session, err := h.sessionFromParam(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", err)
	}

	if session.Status != models.ImportStatusUploaded {
		return utils.ErrorResponse(c, fiber.StatusConflict,
			fmt.Sprintf("Session is %s, only uploaded sessions can be processed", session.Status), nil)
	}

	task, err := worker.NewImportTask(session)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build import task", err)
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(0)); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to enqueue import", err)
	}

	if err := h.importRepo.UpdateSessionStatus(session.ID, models.ImportStatusQueued); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update session status", err)
	}
	session.Status = models.ImportStatusQueued

	return utils.SuccessResponse(c, "Import queued for processing", session)
}

func (h *ImportHandler) List(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)

	sessions, total, err := h.importRepo.GetSessions(params.Limit, utils.GetOffset(params.Page, params.Limit))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve import sessions", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Import sessions retrieved successfully", sessions, pagination)
}

func (h *ImportHandler) Get(c *fiber.Ctx) error {
	session, err := h.sessionFromParam(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", err)
	}
	return utils.SuccessResponse(c, "Import session retrieved successfully", session)
}

// Rows returns the per-line outcomes of a session, paginated in line order.
func (h *ImportHandler) Rows(c *fiber.Ctx) error {
	session, err := h.sessionFromParam(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", err)
	}

	params := utils.GetPaginationParams(c)
	rows, total, err := h.importRepo.GetRowsBySession(session.ID, params.Limit, utils.GetOffset(params.Page, params.Limit))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve import rows", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Import rows retrieved successfully", rows, pagination)
}

// Progress reports the percentage published by the worker, falling back to the
// session status when no progress key exists yet.
func (h *ImportHandler) Progress(c *fiber.Ctx) error {
	session, err := h.sessionFromParam(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", err)
	}

	progress := "0"
	switch session.Status {
	case models.ImportStatusCompleted:
		progress = "100"
	case models.ImportStatusProcessing:
		if value, err := h.redis.Get(context.Background(), service.ProgressKey(session.SessionCode)).Result(); err == nil {
			progress = value
		}
	}

	return utils.SuccessResponse(c, "Progress retrieved successfully", fiber.Map{
		"session_code": session.SessionCode,
		"status":       session.Status,
		"progress":     progress,
	})
}

// Cancel marks a pending session canceled. The worker skips canceled sessions;
// a run already processing finishes its current file.
func (h *ImportHandler) Cancel(c *fiber.Ctx) error {
	session, err := h.sessionFromParam(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", err)
	}

	switch session.Status {
	case models.ImportStatusUploaded, models.ImportStatusQueued:
	default:
		return utils.ErrorResponse(c, fiber.StatusConflict,
			fmt.Sprintf("Session is %s and can no longer be canceled", session.Status), nil)
	}

	if err := h.importRepo.UpdateSessionStatus(session.ID, models.ImportStatusCanceled); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to cancel session", err)
	}
	session.Status = models.ImportStatusCanceled

	return utils.SuccessResponse(c, "Import session canceled", session)
}

func (h *ImportHandler) Delete(c *fiber.Ctx) error {
	session, err := h.sessionFromParam(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import session not found", err)
	}

	if session.Status == models.ImportStatusProcessing {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Cannot delete a session while it is processing", nil)
	}

	if err := h.importRepo.DeleteSession(session.ID); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete session", err)
	}

	_ = os.Remove(session.FilePath)
	_ = h.redis.Del(context.Background(), service.ProgressKey(session.SessionCode)).Err()

	return utils.SuccessResponse(c, "Import session deleted", nil)
}

func (h *ImportHandler) sessionFromParam(c *fiber.Ctx) (*models.ImportSession, error) {
	param := c.Params("id")
	if id, err := strconv.Atoi(param); err == nil {
		return h.importRepo.GetSessionByID(id)
	}
	return h.importRepo.GetSessionByCode(param)
}

func parsePolicyForm(c *fiber.Ctx) (models.ImportPolicy, error) {
	mode, err := models.ParseImportMode(c.FormValue("mode", string(models.ModeCreateNew)))
	if err != nil {
		return models.ImportPolicy{}, err
	}
	updateMode, err := models.ParseUpdateMode(c.FormValue("update_mode", string(models.UpdateNothing)))
	if err != nil {
		return models.ImportPolicy{}, err
	}

	policy := models.ImportPolicy{
		Mode:                 mode,
		UpdateMode:           updateMode,
		AllowDeletes:         formBool(c, "allow_deletes"),
		AllowRenames:         formBool(c, "allow_renames"),
		StandardiseNames:     formBoolDefault(c, "standardise_names", true),
		CreateMissingParents: formBoolDefault(c, "create_missing_parents", true),
	}
	return policy, policy.Validate()
}

func formBool(c *fiber.Ctx, name string) bool {
	value, err := strconv.ParseBool(c.FormValue(name, "false"))
	return err == nil && value
}

func formBoolDefault(c *fiber.Ctx, name string, def bool) bool {
	raw := c.FormValue(name, "")
	if raw == "" {
		return def
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return value
}

func saveUploadedFile(fileHeader *multipart.FileHeader, destination string) error {
	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destination)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// countImportRows dry-opens the decoder to validate the file and count its
// data rows before the session is created.
func countImportRows(path string) (int, error) {
	decoder, err := service.OpenDecoder(path)
	if err != nil {
		return 0, err
	}

	hasName := false
	for _, col := range decoder.Columns() {
		if col == "name" {
			hasName = true
			break
		}
	}
	if !hasName {
		return 0, fmt.Errorf("import file must contain a name column")
	}

	count := 0
	for {
		if _, err := decoder.Next(); err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		count++
	}
	return count, nil
}
