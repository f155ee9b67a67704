package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createUser(t *testing.T, testDB *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "First",
		LastName:     "Last",
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createTag(t *testing.T, testDB *gorm.DB, slug string) *model.Tag {
	t.Helper()
	var count int64
	testDB.Model(&model.Tag{}).Count(&count)
	tag := &model.Tag{Name: "Tag " + slug, Color: fmt.Sprintf("#%06X", count+1), Slug: slug}
	require.NoError(t, testDB.Create(tag).Error)
	return tag
}

func createIngredient(t *testing.T, testDB *gorm.DB, name, unit string) *model.Ingredient {
	t.Helper()
	ingredient := &model.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, testDB.Create(ingredient).Error)
	return ingredient
}

type line struct {
	ingredient *model.Ingredient
	amount     int
}

// createRecipe inserts a recipe with its tags and ingredient lines through the repository.
func createRecipe(t *testing.T, testDB *gorm.DB, author *model.User, name string, tags []*model.Tag, lines ...line) *model.Recipe {
	t.Helper()
	repo := NewRecipeRepository(testDB)
	recipe := &model.Recipe{AuthorID: author.ID, Name: name, Text: "text", CookingTime: 10}

	err := repo.Transaction(func(tx RecipeRepository) error {
		if err := tx.Create(recipe); err != nil {
			return err
		}
		tagRows := make([]model.Tag, len(tags))
		for i, tag := range tags {
			tagRows[i] = *tag
		}
		if err := tx.ReplaceTags(recipe.ID, tagRows); err != nil {
			return err
		}
		items := make([]model.RecipeIngredient, len(lines))
		for i, l := range lines {
			items[i] = model.RecipeIngredient{IngredientID: l.ingredient.ID, Amount: l.amount}
		}
		return tx.ReplaceIngredients(recipe.ID, items)
	})
	require.NoError(t, err)

	// distinct created_at values keep ordering assertions deterministic
	time.Sleep(2 * time.Millisecond)
	return recipe
}
