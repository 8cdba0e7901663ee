package repository

import (
	"coursecat-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type ImportRepository struct {
	db *sqlx.DB
}

func NewImportRepository(db *sqlx.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

func (r *ImportRepository) CreateSession(session *models.ImportSession) error {
	query := `INSERT INTO import_sessions (session_code, user_id, filename, file_path, mode, update_mode,
	          allow_deletes, allow_renames, standardise_names, create_missing_parents, total_rows, status)
	          VALUES (:session_code, :user_id, :filename, :file_path, :mode, :update_mode,
	          :allow_deletes, :allow_renames, :standardise_names, :create_missing_parents, :total_rows, :status)`
	result, err := r.db.NamedExec(query, session)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	session.ID = int(id)
	return nil
}

func (r *ImportRepository) GetSessionByID(id int) (*models.ImportSession, error) {
	var session models.ImportSession
	query := `SELECT id, session_code, user_id, filename, file_path, mode, update_mode,
	          allow_deletes, allow_renames, standardise_names, create_missing_parents,
	          total_rows, created_count, updated_count, deleted_count, error_count,
	          status, COALESCE(error_message, '') as error_message, created_at, updated_at
	          FROM import_sessions WHERE id = ? LIMIT 1`
	err := r.db.Get(&session, query, id)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ImportRepository) GetSessionByCode(code string) (*models.ImportSession, error) {
	var session models.ImportSession
	query := `SELECT id, session_code, user_id, filename, file_path, mode, update_mode,
	          allow_deletes, allow_renames, standardise_names, create_missing_parents,
	          total_rows, created_count, updated_count, deleted_count, error_count,
	          status, COALESCE(error_message, '') as error_message, created_at, updated_at
	          FROM import_sessions WHERE session_code = ? LIMIT 1`
	err := r.db.Get(&session, query, code)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ImportRepository) GetSessions(limit, offset int) ([]models.ImportSession, int, error) {
	var sessions []models.ImportSession
	var total int

	countQuery := "SELECT COUNT(*) FROM import_sessions"
	err := r.db.Get(&total, countQuery)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT id, session_code, user_id, filename, file_path, mode, update_mode,
	          allow_deletes, allow_renames, standardise_names, create_missing_parents,
	          total_rows, created_count, updated_count, deleted_count, error_count,
	          status, COALESCE(error_message, '') as error_message, created_at, updated_at
	          FROM import_sessions ORDER BY created_at DESC LIMIT ? OFFSET ?`
	err = r.db.Select(&sessions, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (r *ImportRepository) UpdateSession(session *models.ImportSession) error {
	query := `UPDATE import_sessions SET total_rows = :total_rows, created_count = :created_count,
	          updated_count = :updated_count, deleted_count = :deleted_count, error_count = :error_count,
	          status = :status, error_message = :error_message WHERE id = :id`
	_, err := r.db.NamedExec(query, session)
	return err
}

func (r *ImportRepository) UpdateSessionStatus(id int, status string) error {
	query := "UPDATE import_sessions SET status = ? WHERE id = ?"
	_, err := r.db.Exec(query, status, id)
	return err
}

func (r *ImportRepository) MarkSessionFailed(id int, message string) error {
	query := "UPDATE import_sessions SET status = ?, error_message = ? WHERE id = ?"
	_, err := r.db.Exec(query, models.ImportStatusFailed, message, id)
	return err
}

func (r *ImportRepository) DeleteSession(id int) error {
	// import_rows are removed by the FK cascade.
	query := "DELETE FROM import_sessions WHERE id = ?"
	_, err := r.db.Exec(query, id)
	return err
}

func (r *ImportRepository) InsertRow(row *models.ImportRow) error {
	query := `INSERT INTO import_rows (session_id, line_number, succeeded, operation, category_id, messages, raw_data)
	          VALUES (:session_id, :line_number, :succeeded, :operation, :category_id, :messages, :raw_data)`
	result, err := r.db.NamedExec(query, row)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	row.ID = id
	return nil
}

func (r *ImportRepository) GetRowsBySession(sessionID int, limit, offset int) ([]models.ImportRow, int, error) {
	var rows []models.ImportRow
	var total int

	countQuery := "SELECT COUNT(*) FROM import_rows WHERE session_id = ?"
	err := r.db.Get(&total, countQuery, sessionID)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT id, session_id, line_number, succeeded, operation, category_id,
	          COALESCE(messages, '{}') as messages, COALESCE(raw_data, '{}') as raw_data, created_at
	          FROM import_rows WHERE session_id = ? ORDER BY line_number LIMIT ? OFFSET ?`
	err = r.db.Select(&rows, query, sessionID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}
