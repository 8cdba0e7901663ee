package service

import (
	"fmt"
	"io"

	"coursecat-web/internal/models"

	"github.com/xuri/excelize/v2"
)

var templateHeaders = []string{"name", "idnumber", "description", "visible", "theme", "deleted", "oldname"}

// WriteCategoryTemplate writes an import template workbook with the header
// row and a couple of example rows.
func WriteCategoryTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, header := range templateHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	examples := [][]interface{}{
		{"Science", "1001", "All science courses", 1, "", "", ""},
		{"Science/Physics", "1002", "", 1, "", "", ""},
	}
	for r, row := range examples {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// WriteCategoryExport writes the given categories to a workbook.
func WriteCategoryExport(w io.Writer, categories []models.Category) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"ID", "Name", "Parent ID", "ID Number", "Description", "Visible", "Theme"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for r, category := range categories {
		visible := 0
		if category.Visible {
			visible = 1
		}
		values := []interface{}{
			category.ID, category.Name, category.ParentID, category.IDNumber,
			category.Description, visible, category.Theme,
		}
		for c, value := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
