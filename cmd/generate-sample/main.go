package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"coursecat-web/internal/service"
)

// Generates sample import files for manual testing: a CSV exercising the
// create, update, rename and delete branches, plus the XLSX template.
func main() {
	outDir := flag.String("out", filepath.Join("storage", "uploads"), "output directory")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	csvPath := filepath.Join(*outDir, "sample_categories.csv")
	if err := writeSampleCSV(csvPath); err != nil {
		log.Fatalf("Failed to write sample CSV: %v", err)
	}
	fmt.Printf("Sample CSV created: %s\n", csvPath)

	templatePath := filepath.Join(*outDir, "category_import_template.xlsx")
	f, err := os.Create(templatePath)
	if err != nil {
		log.Fatalf("Failed to create template file: %v", err)
	}
	defer f.Close()
	if err := service.WriteCategoryTemplate(f); err != nil {
		log.Fatalf("Failed to write template: %v", err)
	}
	fmt.Printf("Import template created: %s\n", templatePath)
}

func writeSampleCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{
		{"name", "idnumber", "description", "visible", "theme", "deleted", "oldname"},
		{"Science", "1001", "All science courses", "1", "", "", ""},
		{"Science/Physics", "1002", "Physics courses", "1", "", "", ""},
		{"Science/Chemistry", "1003", "", "1", "", "", ""},
		{"Humanities/History/Modern", "2001", "Auto-creates the missing ancestors", "1", "", "", ""},
		{"Science/Biology", "", "Renamed from Life Sciences", "1", "", "", "Science/Life Sciences"},
		{"Science/Chemistry", "", "", "", "", "1", ""},
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
