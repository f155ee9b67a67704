package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	apperrors "github.com/ikkim/foodgram-backend/internal/errors"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

type IngredientInput struct {
	Name            string
	MeasurementUnit string
}

type IngredientService interface {
	// ListIngredients filters by a case-sensitive name prefix when namePrefix is set.
	ListIngredients(namePrefix string) ([]model.Ingredient, error)
	GetIngredient(id uint) (*model.Ingredient, error)
	CreateIngredient(input IngredientInput) (*model.Ingredient, error)
	UpdateIngredient(id uint, input IngredientInput) (*model.Ingredient, error)
	DeleteIngredient(id uint) error
	// Import inserts the catalog rows that are not present yet.
	Import(items []IngredientInput) (int64, error)
}

type ingredientService struct {
	ingredientRepo repository.IngredientRepository
}

func NewIngredientService(ingredientRepo repository.IngredientRepository) IngredientService {
	return &ingredientService{ingredientRepo: ingredientRepo}
}

func normalizeIngredient(input IngredientInput) IngredientInput {
	return IngredientInput{
		Name:            strings.TrimSpace(input.Name),
		MeasurementUnit: strings.TrimSpace(input.MeasurementUnit),
	}
}

func validateIngredient(input IngredientInput) error {
	v := &validator{}
	v.check(input.Name != "" && utf8.RuneCountInString(input.Name) <= 200, "name", "Name is required and must be at most 200 characters")
	v.check(input.MeasurementUnit != "" && utf8.RuneCountInString(input.MeasurementUnit) <= 200, "measurement_unit", "Measurement unit is required and must be at most 200 characters")
	return v.err()
}

func (s *ingredientService) ListIngredients(namePrefix string) ([]model.Ingredient, error) {
	return s.ingredientRepo.FindAll(namePrefix)
}

func (s *ingredientService) GetIngredient(id uint) (*model.Ingredient, error) {
	ingredient, err := s.ingredientRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}
	return ingredient, nil
}

func (s *ingredientService) CreateIngredient(input IngredientInput) (*model.Ingredient, error) {
	input = normalizeIngredient(input)
	if err := validateIngredient(input); err != nil {
		return nil, err
	}

	ingredient := &model.Ingredient{Name: input.Name, MeasurementUnit: input.MeasurementUnit}
	if err := s.ingredientRepo.Create(ingredient); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrIngredientExists
		}
		return nil, err
	}

	logger.Info("Ingredient created", map[string]interface{}{
		"ingredient_id": ingredient.ID,
		"name":          ingredient.Name,
	})
	return ingredient, nil
}

func (s *ingredientService) UpdateIngredient(id uint, input IngredientInput) (*model.Ingredient, error) {
	ingredient, err := s.GetIngredient(id)
	if err != nil {
		return nil, err
	}

	input = normalizeIngredient(input)
	if err := validateIngredient(input); err != nil {
		return nil, err
	}

	ingredient.Name, ingredient.MeasurementUnit = input.Name, input.MeasurementUnit
	if err := s.ingredientRepo.Update(ingredient); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrIngredientExists
		}
		return nil, err
	}

	logger.Info("Ingredient updated", map[string]interface{}{"ingredient_id": id})
	return ingredient, nil
}

func (s *ingredientService) DeleteIngredient(id uint) error {
	deleted, err := s.ingredientRepo.Delete(id)
	if err != nil {
		if apperrors.IsForeignKeyViolation(err) {
			logger.Warn("Ingredient delete rejected: used by recipes", map[string]interface{}{
				"ingredient_id": id,
			})
			return ErrIngredientInUse
		}
		return err
	}
	if deleted == 0 {
		return ErrIngredientNotFound
	}

	logger.Info("Ingredient deleted", map[string]interface{}{"ingredient_id": id})
	return nil
}

func (s *ingredientService) Import(items []IngredientInput) (int64, error) {
	seen := make(map[string]bool, len(items))
	rows := make([]model.Ingredient, 0, len(items))
	for i, item := range items {
		item = normalizeIngredient(item)
		if err := validateIngredient(item); err != nil {
			logger.Warn("Skipping invalid catalog row", map[string]interface{}{
				"row":   i + 1,
				"error": err.Error(),
			})
			continue
		}
		if seen[item.Name] {
			continue
		}
		seen[item.Name] = true
		rows = append(rows, model.Ingredient{Name: item.Name, MeasurementUnit: item.MeasurementUnit})
	}

	inserted, err := s.ingredientRepo.BulkCreate(rows)
	if err != nil {
		return 0, err
	}

	logger.Info("Ingredient catalog imported", map[string]interface{}{
		"rows":     len(items),
		"inserted": inserted,
	})
	return inserted, nil
}
