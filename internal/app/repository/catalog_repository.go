package repository

import (
	"unicode/utf8"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagRepository interface {
	FindAll() ([]model.Tag, error)
	FindByID(id uint) (*model.Tag, error)
	FindByIDs(ids []uint) ([]model.Tag, error)
	Create(tag *model.Tag) error
	Update(tag *model.Tag) error
	Delete(id uint) (int64, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) FindAll() ([]model.Tag, error) {
	logger.Debug("Finding all tags in database")

	var tags []model.Tag
	if err := r.db.Order("name ASC").Find(&tags).Error; err != nil {
		logger.Error("Failed to find tags in database", err)
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) FindByID(id uint) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.First(&tag, id).Error; err != nil {
		logger.Error("Failed to find tag by ID in database", err, map[string]interface{}{
			"tag_id": id,
		})
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindByIDs(ids []uint) ([]model.Tag, error) {
	var tags []model.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.db.Where("id IN ?", ids).Order("name ASC").Find(&tags).Error; err != nil {
		logger.Error("Failed to find tags by IDs in database", err, map[string]interface{}{
			"tag_ids": ids,
		})
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Create(tag *model.Tag) error {
	logger.Debug("Creating tag in database", map[string]interface{}{
		"slug": tag.Slug,
	})

	if err := r.db.Create(tag).Error; err != nil {
		logger.Error("Failed to create tag in database", err, map[string]interface{}{
			"slug": tag.Slug,
		})
		return err
	}
	return nil
}

func (r *tagRepository) Update(tag *model.Tag) error {
	if err := r.db.Save(tag).Error; err != nil {
		logger.Error("Failed to update tag in database", err, map[string]interface{}{
			"tag_id": tag.ID,
		})
		return err
	}
	return nil
}

func (r *tagRepository) Delete(id uint) (int64, error) {
	logger.Debug("Deleting tag from database", map[string]interface{}{
		"tag_id": id,
	})

	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// detach from recipes first, the join table has no cascade
		if err := tx.Exec("DELETE FROM recipe_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Tag{}, id)
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		logger.Error("Failed to delete tag from database", err, map[string]interface{}{
			"tag_id": id,
		})
		return 0, err
	}
	return deleted, nil
}

type IngredientRepository interface {
	// FindAll lists ingredients whose name starts with namePrefix (case-sensitive).
	FindAll(namePrefix string) ([]model.Ingredient, error)
	FindByID(id uint) (*model.Ingredient, error)
	FindByIDs(ids []uint) ([]model.Ingredient, error)
	Create(ingredient *model.Ingredient) error
	// BulkCreate inserts in batches and skips names that already exist.
	BulkCreate(ingredients []model.Ingredient) (int64, error)
	Update(ingredient *model.Ingredient) error
	Delete(id uint) (int64, error)
}

type ingredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) FindAll(namePrefix string) ([]model.Ingredient, error) {
	logger.Debug("Finding ingredients in database", map[string]interface{}{
		"name_prefix": namePrefix,
	})

	query := r.db.Model(&model.Ingredient{})
	if namePrefix != "" {
		// SUBSTR keeps the match case-sensitive on both postgres and sqlite.
		query = query.Where("SUBSTR(name, 1, ?) = ?", utf8.RuneCountInString(namePrefix), namePrefix)
	}

	var ingredients []model.Ingredient
	if err := query.Order("name ASC").Find(&ingredients).Error; err != nil {
		logger.Error("Failed to find ingredients in database", err, map[string]interface{}{
			"name_prefix": namePrefix,
		})
		return nil, err
	}

	logger.Debug("Ingredients found in database", map[string]interface{}{
		"count": len(ingredients),
	})
	return ingredients, nil
}

func (r *ingredientRepository) FindByID(id uint) (*model.Ingredient, error) {
	var ingredient model.Ingredient
	if err := r.db.First(&ingredient, id).Error; err != nil {
		logger.Error("Failed to find ingredient by ID in database", err, map[string]interface{}{
			"ingredient_id": id,
		})
		return nil, err
	}
	return &ingredient, nil
}

func (r *ingredientRepository) FindByIDs(ids []uint) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		logger.Error("Failed to find ingredients by IDs in database", err, map[string]interface{}{
			"ingredient_ids": ids,
		})
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) Create(ingredient *model.Ingredient) error {
	logger.Debug("Creating ingredient in database", map[string]interface{}{
		"name": ingredient.Name,
	})

	if err := r.db.Create(ingredient).Error; err != nil {
		logger.Error("Failed to create ingredient in database", err, map[string]interface{}{
			"name": ingredient.Name,
		})
		return err
	}
	return nil
}

func (r *ingredientRepository) BulkCreate(ingredients []model.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	logger.Debug("Bulk creating ingredients", map[string]interface{}{
		"count": len(ingredients),
	})

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).CreateInBatches(&ingredients, 500)
	if result.Error != nil {
		logger.Error("Failed to bulk create ingredients", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *ingredientRepository) Update(ingredient *model.Ingredient) error {
	if err := r.db.Save(ingredient).Error; err != nil {
		logger.Error("Failed to update ingredient in database", err, map[string]interface{}{
			"ingredient_id": ingredient.ID,
		})
		return err
	}
	return nil
}

func (r *ingredientRepository) Delete(id uint) (int64, error) {
	result := r.db.Delete(&model.Ingredient{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete ingredient from database", result.Error, map[string]interface{}{
			"ingredient_id": id,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
