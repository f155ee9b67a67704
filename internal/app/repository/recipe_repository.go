package repository

import (
	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

// RecipeFilter narrows ListRecipes. Zero values mean "no constraint".
type RecipeFilter struct {
	TagSlugs    []string // any of
	AuthorID    *uint
	Name        string // exact
	FavoritedBy *uint
	InCartOf    *uint
	Limit       int
	Offset      int
}

type RecipeRepository interface {
	// Transaction runs fn with a repository bound to one database transaction.
	Transaction(fn func(tx RecipeRepository) error) error

	Create(recipe *model.Recipe) error
	UpdateFields(recipe *model.Recipe) error
	ReplaceTags(recipeID uint, tags []model.Tag) error
	ReplaceIngredients(recipeID uint, items []model.RecipeIngredient) error
	Delete(recipeID uint) error

	FindByID(id uint) (*model.Recipe, error)
	FindWithFilter(filter RecipeFilter) ([]model.Recipe, int64, error)
	ExistsByAuthorAndName(authorID uint, name string, excludeID uint) (bool, error)
	CountByImage(image string) (int64, error)
	CountByAuthors(authorIDs []uint) (map[uint]int64, error)
	// FindPreviewsByAuthor returns newest recipes first; limit < 0 means all.
	FindPreviewsByAuthor(authorID uint, limit int) ([]model.Recipe, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Transaction(fn func(tx RecipeRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&recipeRepository{db: tx})
	})
}

func (r *recipeRepository) Create(recipe *model.Recipe) error {
	logger.Debug("Creating recipe in database", map[string]interface{}{
		"author_id": recipe.AuthorID,
		"name":      recipe.Name,
	})

	if err := r.db.Omit("Tags", "Ingredients", "Author").Create(recipe).Error; err != nil {
		logger.Error("Failed to create recipe in database", err, map[string]interface{}{
			"author_id": recipe.AuthorID,
			"name":      recipe.Name,
		})
		return err
	}

	logger.Debug("Recipe created in database", map[string]interface{}{
		"recipe_id": recipe.ID,
	})
	return nil
}

func (r *recipeRepository) UpdateFields(recipe *model.Recipe) error {
	logger.Debug("Updating recipe in database", map[string]interface{}{
		"recipe_id": recipe.ID,
	})

	err := r.db.Model(recipe).
		Select("name", "image", "text", "cooking_time", "updated_at").
		Updates(recipe).Error
	if err != nil {
		logger.Error("Failed to update recipe in database", err, map[string]interface{}{
			"recipe_id": recipe.ID,
		})
		return err
	}
	return nil
}

func (r *recipeRepository) ReplaceTags(recipeID uint, tags []model.Tag) error {
	logger.Debug("Replacing recipe tags", map[string]interface{}{
		"recipe_id": recipeID,
		"count":     len(tags),
	})

	if err := r.db.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID).Error; err != nil {
		logger.Error("Failed to clear recipe tags", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	rows := make([]map[string]interface{}, len(tags))
	for i, tag := range tags {
		rows[i] = map[string]interface{}{"recipe_id": recipeID, "tag_id": tag.ID}
	}
	if err := r.db.Table("recipe_tags").Create(&rows).Error; err != nil {
		logger.Error("Failed to insert recipe tags", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		return err
	}
	return nil
}

func (r *recipeRepository) ReplaceIngredients(recipeID uint, items []model.RecipeIngredient) error {
	logger.Debug("Replacing recipe ingredients", map[string]interface{}{
		"recipe_id": recipeID,
		"count":     len(items),
	})

	if err := r.db.Where("recipe_id = ?", recipeID).Delete(&model.RecipeIngredient{}).Error; err != nil {
		logger.Error("Failed to clear recipe ingredients", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		return err
	}
	if len(items) == 0 {
		return nil
	}

	rows := make([]model.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = model.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		}
	}
	if err := r.db.Omit("Ingredient").CreateInBatches(&rows, 100).Error; err != nil {
		logger.Error("Failed to insert recipe ingredients", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		return err
	}
	return nil
}

// Delete removes the recipe and every row pointing at it.
// Callers run it inside Transaction.
func (r *recipeRepository) Delete(recipeID uint) error {
	logger.Debug("Deleting recipe from database", map[string]interface{}{
		"recipe_id": recipeID,
	})

	children := []interface{}{
		&model.RecipeIngredient{},
		&model.Favorite{},
		&model.ShoppingCartItem{},
	}
	for _, child := range children {
		if err := r.db.Where("recipe_id = ?", recipeID).Delete(child).Error; err != nil {
			logger.Error("Failed to delete recipe children", err, map[string]interface{}{
				"recipe_id": recipeID,
			})
			return err
		}
	}
	if err := r.db.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID).Error; err != nil {
		logger.Error("Failed to delete recipe tags", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		return err
	}

	result := r.db.Delete(&model.Recipe{}, recipeID)
	if result.Error != nil {
		logger.Error("Failed to delete recipe", result.Error, map[string]interface{}{
			"recipe_id": recipeID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tags.name ASC")
		}).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("recipe_ingredients.id ASC")
		}).
		Preload("Ingredients.Ingredient")
}

func (r *recipeRepository) FindByID(id uint) (*model.Recipe, error) {
	logger.Debug("Finding recipe by ID in database", map[string]interface{}{
		"recipe_id": id,
	})

	var recipe model.Recipe
	if err := r.withDetails(r.db).First(&recipe, id).Error; err != nil {
		logger.Error("Failed to find recipe by ID in database", err, map[string]interface{}{
			"recipe_id": id,
		})
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) applyFilter(filter RecipeFilter) *gorm.DB {
	query := r.db.Model(&model.Recipe{})

	if len(filter.TagSlugs) > 0 {
		tagged := r.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if filter.Name != "" {
		query = query.Where("recipes.name = ?", filter.Name)
	}
	if filter.FavoritedBy != nil {
		favorited := r.db.Model(&model.Favorite{}).Select("recipe_id").Where("user_id = ?", *filter.FavoritedBy)
		query = query.Where("recipes.id IN (?)", favorited)
	}
	if filter.InCartOf != nil {
		inCart := r.db.Model(&model.ShoppingCartItem{}).Select("recipe_id").Where("user_id = ?", *filter.InCartOf)
		query = query.Where("recipes.id IN (?)", inCart)
	}
	return query
}

func (r *recipeRepository) FindWithFilter(filter RecipeFilter) ([]model.Recipe, int64, error) {
	logger.Debug("Finding recipes with filter", map[string]interface{}{
		"tags":         filter.TagSlugs,
		"author_id":    filter.AuthorID,
		"name":         filter.Name,
		"favorited_by": filter.FavoritedBy,
		"in_cart_of":   filter.InCartOf,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})

	var total int64
	if err := r.applyFilter(filter).Count(&total).Error; err != nil {
		logger.Error("Failed to count recipes", err)
		return nil, 0, err
	}

	query := r.withDetails(r.applyFilter(filter)).
		Order("recipes.created_at DESC").
		Order("recipes.id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var recipes []model.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		logger.Error("Failed to find recipes with filter", err)
		return nil, 0, err
	}

	logger.Debug("Recipes found with filter", map[string]interface{}{
		"count": len(recipes),
		"total": total,
	})
	return recipes, total, nil
}

func (r *recipeRepository) ExistsByAuthorAndName(authorID uint, name string, excludeID uint) (bool, error) {
	query := r.db.Model(&model.Recipe{}).Where("author_id = ? AND name = ?", authorID, name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		logger.Error("Failed to check recipe name", err, map[string]interface{}{
			"author_id": authorID,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) CountByImage(image string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Recipe{}).Where("image = ?", image).Count(&count).Error; err != nil {
		logger.Error("Failed to count recipes by image", err, map[string]interface{}{
			"image": image,
		})
		return 0, err
	}
	return count, nil
}

func (r *recipeRepository) CountByAuthors(authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID uint
		Count    int64
	}
	err := r.db.Model(&model.Recipe{}).
		Select("author_id, COUNT(*) AS count").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count recipes by author", err)
		return nil, err
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Count
	}
	return counts, nil
}

func (r *recipeRepository) FindPreviewsByAuthor(authorID uint, limit int) ([]model.Recipe, error) {
	if limit == 0 {
		return []model.Recipe{}, nil
	}
	query := r.db.Where("author_id = ?", authorID).
		Order("created_at DESC").
		Order("id DESC")
	if limit >= 0 {
		query = query.Limit(limit)
	}

	var recipes []model.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		logger.Error("Failed to find recipes by author", err, map[string]interface{}{
			"author_id": authorID,
		})
		return nil, err
	}
	return recipes, nil
}
