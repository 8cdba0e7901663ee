package repository

import (
	"testing"

	"coursecat-web/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockImportRepo(t *testing.T) (*ImportRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewImportRepository(sqlx.NewDb(db, "mysql")), mock
}

func TestCreateSessionAssignsID(t *testing.T) {
	repo, mock := newMockImportRepo(t)

	mock.ExpectExec(`INSERT INTO import_sessions`).
		WillReturnResult(sqlmock.NewResult(3, 1))

	session := &models.ImportSession{
		SessionCode: "IMPORT-abcd1234",
		Filename:    "categories.csv",
		Mode:        "createnew",
		UpdateMode:  "nothing",
		Status:      models.ImportStatusUploaded,
	}
	require.NoError(t, repo.CreateSession(session))
	assert.Equal(t, 3, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSessionStatus(t *testing.T) {
	repo, mock := newMockImportRepo(t)

	mock.ExpectExec(`UPDATE import_sessions SET status = \? WHERE id = \?`).
		WithArgs(models.ImportStatusQueued, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateSessionStatus(3, models.ImportStatusQueued))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSessionFailed(t *testing.T) {
	repo, mock := newMockImportRepo(t)

	mock.ExpectExec(`UPDATE import_sessions SET status = \?, error_message = \? WHERE id = \?`).
		WithArgs(models.ImportStatusFailed, "boom", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSessionFailed(3, "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRow(t *testing.T) {
	repo, mock := newMockImportRepo(t)

	mock.ExpectExec(`INSERT INTO import_rows`).
		WillReturnResult(sqlmock.NewResult(11, 1))

	row := &models.ImportRow{
		SessionID:  3,
		LineNumber: 1,
		Succeeded:  true,
		Operation:  "create",
		Messages:   `{"coursecategoriescreated":"category created"}`,
		RawData:    `{"name":"Science"}`,
	}
	require.NoError(t, repo.InsertRow(row))
	assert.Equal(t, int64(11), row.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
