package service

import (
	"bytes"
	"testing"

	"coursecat-web/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteCategoryTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCategoryTemplate(&buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, templateHeaders, rows[0])
}

func TestWriteCategoryExport(t *testing.T) {
	var buf bytes.Buffer
	categories := []models.Category{
		{ID: 1, Name: "Science", IDNumber: "1001", Visible: true},
		{ID: 2, Name: "Physics", ParentID: 1},
	}
	require.NoError(t, WriteCategoryExport(&buf, categories))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Science", rows[1][1])
	assert.Equal(t, "Physics", rows[2][1])
}
