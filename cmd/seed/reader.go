package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ikkim/foodgram-backend/internal/app/service"
	"github.com/xuri/excelize/v2"
)

// readIngredients loads (name, measurement_unit) rows from .xlsx or .csv.
// A leading header row whose first cell is "name" is skipped.
func readIngredients(filePath string) ([]service.IngredientInput, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		return readXLSX(filePath)
	case ".csv":
		f, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer f.Close()
		return readCSV(f)
	}
	return nil, fmt.Errorf("unsupported file type %q, expected .xlsx or .csv", filepath.Ext(filePath))
}

func readXLSX(filePath string) ([]service.IngredientInput, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rowsToIngredients(rows), nil
}

func readCSV(r io.Reader) ([]service.IngredientInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rowsToIngredients(rows), nil
}

func rowsToIngredients(rows [][]string) []service.IngredientInput {
	items := make([]service.IngredientInput, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if i == 0 && strings.EqualFold(name, "name") {
			continue
		}
		items = append(items, service.IngredientInput{
			Name:            name,
			MeasurementUnit: strings.TrimSpace(row[1]),
		})
	}
	return items
}
