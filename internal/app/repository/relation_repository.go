package repository

import (
	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

// RelationRepository stores favorites and shopping cart items. Both tables
// have the same shape, so every method takes the kind to operate on.
type RelationRepository interface {
	Add(kind model.RelationKind, userID, recipeID uint) error
	Remove(kind model.RelationKind, userID, recipeID uint) (int64, error)
	Exists(kind model.RelationKind, userID, recipeID uint) (bool, error)
	// MarkedAmong returns which of recipeIDs the user has in the kind's table.
	MarkedAmong(kind model.RelationKind, userID uint, recipeIDs []uint) (map[uint]bool, error)
	// ShoppingList sums ingredient amounts over the user's cart,
	// one line per (name, unit), ordered by name then unit.
	ShoppingList(userID uint) ([]model.ShoppingListLine, error)
}

type relationRepository struct {
	db *gorm.DB
}

func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

func (r *relationRepository) Add(kind model.RelationKind, userID, recipeID uint) error {
	logger.Debug("Creating relation in database", map[string]interface{}{
		"relation":  kind,
		"user_id":   userID,
		"recipe_id": recipeID,
	})

	if err := r.db.Create(kind.NewRow(userID, recipeID)).Error; err != nil {
		logger.Error("Failed to create relation in database", err, map[string]interface{}{
			"relation":  kind,
			"user_id":   userID,
			"recipe_id": recipeID,
		})
		return err
	}
	return nil
}

func (r *relationRepository) Remove(kind model.RelationKind, userID, recipeID uint) (int64, error) {
	logger.Debug("Deleting relation from database", map[string]interface{}{
		"relation":  kind,
		"user_id":   userID,
		"recipe_id": recipeID,
	})

	result := r.db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(kind.NewRow(0, 0))
	if result.Error != nil {
		logger.Error("Failed to delete relation from database", result.Error, map[string]interface{}{
			"relation":  kind,
			"user_id":   userID,
			"recipe_id": recipeID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *relationRepository) Exists(kind model.RelationKind, userID, recipeID uint) (bool, error) {
	var count int64
	err := r.db.Table(kind.TableName()).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to check relation", err, map[string]interface{}{
			"relation":  kind,
			"user_id":   userID,
			"recipe_id": recipeID,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *relationRepository) MarkedAmong(kind model.RelationKind, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	marked := make(map[uint]bool, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return marked, nil
	}

	var ids []uint
	err := r.db.Table(kind.TableName()).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		logger.Error("Failed to load relations", err, map[string]interface{}{
			"relation": kind,
			"user_id":  userID,
		})
		return nil, err
	}
	for _, id := range ids {
		marked[id] = true
	}
	return marked, nil
}

func (r *relationRepository) ShoppingList(userID uint) ([]model.ShoppingListLine, error) {
	logger.Debug("Aggregating shopping list", map[string]interface{}{
		"user_id": userID,
	})

	var lines []model.ShoppingListLine
	err := r.db.Table("shopping_cart_items").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_cart_items.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_cart_items.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC, ingredients.measurement_unit ASC").
		Scan(&lines).Error
	if err != nil {
		logger.Error("Failed to aggregate shopping list", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Shopping list aggregated", map[string]interface{}{
		"user_id": userID,
		"lines":   len(lines),
	})
	return lines, nil
}
