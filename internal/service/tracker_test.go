package service

import (
	"testing"

	"coursecat-web/internal/models"
	"coursecat-web/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressKey(t *testing.T) {
	assert.Equal(t, "import:progress:IMPORT-abcd1234", ProgressKey("IMPORT-abcd1234"))
}

func TestSessionTrackerPersistsRowsAndTotals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewImportRepository(sqlx.NewDb(db, "mysql"))
	session := &models.ImportSession{ID: 3, SessionCode: "IMPORT-abcd1234", TotalRows: 2}
	tracker := NewSessionTracker(session, repo, nil, logrus.New())

	mock.ExpectExec(`INSERT INTO import_rows`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE import_sessions SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tracker.Row(RowOutcome{
		Line:       1,
		Succeeded:  true,
		Operation:  OpCreate,
		CategoryID: 5,
		Messages:   map[string]string{string(StatusCreated): "category created"},
		Data:       map[string]string{"name": "Science"},
	})
	tracker.Finish(models.ImportStats{Total: 2, Created: 1, Errors: 1})

	assert.Equal(t, 1, session.CreatedCount)
	assert.Equal(t, 1, session.ErrorCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
