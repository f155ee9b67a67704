package service

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	"github.com/ikkim/foodgram-backend/internal/metrics"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	ShoppingListFormatText = "txt"
	ShoppingListFormatXLSX = "xlsx"

	shoppingListHeader = "Список покупок:"
	shoppingListSheet  = "Shopping list"
)

// ShoppingListFile is a rendered download.
type ShoppingListFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

type ShoppingListService interface {
	Lines(userID uint) ([]model.ShoppingListLine, error)
	// Export renders the user's aggregated cart as txt or xlsx.
	Export(userID uint, format string) (*ShoppingListFile, error)
}

type shoppingListService struct {
	relationRepo repository.RelationRepository
}

func NewShoppingListService(relationRepo repository.RelationRepository) ShoppingListService {
	return &shoppingListService{relationRepo: relationRepo}
}

func (s *shoppingListService) Lines(userID uint) ([]model.ShoppingListLine, error) {
	return s.relationRepo.ShoppingList(userID)
}

func (s *shoppingListService) Export(userID uint, format string) (*ShoppingListFile, error) {
	if format == "" {
		format = ShoppingListFormatText
	}
	if format != ShoppingListFormatText && format != ShoppingListFormatXLSX {
		return nil, &ValidationError{Fields: map[string]string{"format": "Format must be txt or xlsx"}}
	}

	lines, err := s.Lines(userID)
	if err != nil {
		return nil, err
	}

	var file *ShoppingListFile
	switch format {
	case ShoppingListFormatXLSX:
		content, err := RenderShoppingListXLSX(lines)
		if err != nil {
			logger.Error("Failed to render shopping list workbook", err, map[string]interface{}{
				"user_id": userID,
			})
			return nil, err
		}
		file = &ShoppingListFile{
			Filename:    "shopping_cart.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:     content,
		}
	default:
		file = &ShoppingListFile{
			Filename:    "shopping_cart.txt",
			ContentType: "text/plain; charset=utf-8",
			Content:     []byte(RenderShoppingListText(lines)),
		}
	}

	metrics.ShoppingListExports.WithLabelValues(format).Inc()
	logger.Info("Shopping list exported", map[string]interface{}{
		"user_id": userID,
		"format":  format,
		"lines":   len(lines),
	})
	return file, nil
}

// RenderShoppingListText formats lines as
//
//	Список покупок:
//
//	• Мука (г) - 350
func RenderShoppingListText(lines []model.ShoppingListLine) string {
	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = fmt.Sprintf("• %s (%s) - %d", l.Name, l.MeasurementUnit, l.Amount)
	}
	return shoppingListHeader + "\n\n" + strings.Join(rows, "\n")
}

func RenderShoppingListXLSX(lines []model.ShoppingListLine) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), shoppingListSheet); err != nil {
		return nil, err
	}
	header := []interface{}{"Ingredient", "Unit", "Amount"}
	if err := f.SetSheetRow(shoppingListSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, l := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{l.Name, l.MeasurementUnit, l.Amount}
		if err := f.SetSheetRow(shoppingListSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
