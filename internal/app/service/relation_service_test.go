package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func TestRelationService_AddRemove(t *testing.T) {
	kinds := []model.RelationKind{model.RelationFavorite, model.RelationShoppingCart}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			f := setupServices(t)
			author := f.user(t, "author")
			reader := f.user(t, "reader")
			tag := f.tag(t, "Обед", "#49B64E", "lunch")
			flour := f.ingredient(t, "Мука", "г")

			recipe, err := f.recipes.CreateRecipe(context.Background(), author.ID,
				recipeInput("Хлеб", []uint{tag.ID}, IngredientLine{ID: flour.ID, Amount: 500}))
			require.NoError(t, err)

			short, err := f.relations.Add(kind, reader.ID, recipe.ID)
			require.NoError(t, err)
			assert.Equal(t, RecipeShort{ID: recipe.ID, Name: "Хлеб", Image: recipe.Image, CookingTime: 30}, *short)

			_, err = f.relations.Add(kind, reader.ID, recipe.ID)
			assert.ErrorIs(t, err, ErrRelationAlreadyExists)

			_, err = f.relations.Add(kind, reader.ID, 999)
			assert.ErrorIs(t, err, ErrRecipeNotFound)

			require.NoError(t, f.relations.Remove(kind, reader.ID, recipe.ID))
			assert.ErrorIs(t, f.relations.Remove(kind, reader.ID, recipe.ID), ErrRelationNotFound)
			assert.ErrorIs(t, f.relations.Remove(kind, reader.ID, 999), ErrRecipeNotFound)
		})
	}
}

// racingRelationRepo misses a row committed by a concurrent request during
// the existence check, so the insert is the first place the duplicate shows.
type racingRelationRepo struct {
	repository.RelationRepository
	addErr error
}

func (r *racingRelationRepo) Exists(model.RelationKind, uint, uint) (bool, error) {
	return false, nil
}

func (r *racingRelationRepo) Add(kind model.RelationKind, userID, recipeID uint) error {
	if r.addErr != nil {
		return r.addErr
	}
	return r.RelationRepository.Add(kind, userID, recipeID)
}

func TestRelationService_ConcurrentDuplicateAdd(t *testing.T) {
	tests := []struct {
		name   string
		addErr error
	}{
		{name: "Unique index rejects insert", addErr: nil},
		{name: "Translated driver error", addErr: gorm.ErrDuplicatedKey},
	}

	for _, kind := range []model.RelationKind{model.RelationFavorite, model.RelationShoppingCart} {
		for _, tt := range tests {
			t.Run(string(kind)+"/"+tt.name, func(t *testing.T) {
				f := setupServices(t)
				author := f.user(t, "author")
				reader := f.user(t, "reader")
				tag := f.tag(t, "Обед", "#49B64E", "lunch")
				flour := f.ingredient(t, "Мука", "г")

				recipe, err := f.recipes.CreateRecipe(context.Background(), author.ID,
					recipeInput("Хлеб", []uint{tag.ID}, IngredientLine{ID: flour.ID, Amount: 500}))
				require.NoError(t, err)

				relationRepo := repository.NewRelationRepository(f.db)
				require.NoError(t, relationRepo.Add(kind, reader.ID, recipe.ID))

				svc := NewRelationService(
					repository.NewRecipeRepository(f.db),
					&racingRelationRepo{RelationRepository: relationRepo, addErr: tt.addErr},
				)
				_, err = svc.Add(kind, reader.ID, recipe.ID)
				assert.ErrorIs(t, err, ErrRelationAlreadyExists)
			})
		}
	}
}

func TestRelationService_KindsAreIndependent(t *testing.T) {
	f := setupServices(t)
	author := f.user(t, "author")
	tag := f.tag(t, "Обед", "#49B64E", "lunch")
	flour := f.ingredient(t, "Мука", "г")

	recipe, err := f.recipes.CreateRecipe(context.Background(), author.ID,
		recipeInput("Хлеб", []uint{tag.ID}, IngredientLine{ID: flour.ID, Amount: 500}))
	require.NoError(t, err)

	_, err = f.relations.Add(model.RelationFavorite, author.ID, recipe.ID)
	require.NoError(t, err)
	_, err = f.relations.Add(model.RelationShoppingCart, author.ID, recipe.ID)
	require.NoError(t, err)

	view, err := f.recipes.GetRecipe(author.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, view.IsFavorited)
	assert.True(t, view.IsInShoppingCart)

	require.NoError(t, f.relations.Remove(model.RelationFavorite, author.ID, recipe.ID))
	view, err = f.recipes.GetRecipe(author.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, view.IsFavorited)
	assert.True(t, view.IsInShoppingCart)
}

func TestShoppingListService_Export(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	author := f.user(t, "author")
	buyer := f.user(t, "buyer")
	tag := f.tag(t, "Обед", "#49B64E", "lunch")
	flour := f.ingredient(t, "flour", "g")
	sugar := f.ingredient(t, "sugar", "g")

	r1, err := f.recipes.CreateRecipe(ctx, author.ID, recipeInput("R1", []uint{tag.ID},
		IngredientLine{ID: flour.ID, Amount: 200}))
	require.NoError(t, err)
	r2, err := f.recipes.CreateRecipe(ctx, author.ID, recipeInput("R2", []uint{tag.ID},
		IngredientLine{ID: flour.ID, Amount: 100},
		IngredientLine{ID: sugar.ID, Amount: 50}))
	require.NoError(t, err)

	t.Run("Empty cart", func(t *testing.T) {
		file, err := f.shoppingList.Export(buyer.ID, "")
		require.NoError(t, err)
		assert.Equal(t, "Список покупок:\n\n", string(file.Content))
	})

	for _, r := range []*RecipeView{r1, r2} {
		_, err := f.relations.Add(model.RelationShoppingCart, buyer.ID, r.ID)
		require.NoError(t, err)
	}

	t.Run("Text", func(t *testing.T) {
		file, err := f.shoppingList.Export(buyer.ID, ShoppingListFormatText)
		require.NoError(t, err)
		assert.Equal(t, "shopping_cart.txt", file.Filename)
		assert.Equal(t, "text/plain; charset=utf-8", file.ContentType)
		assert.Equal(t, "Список покупок:\n\n• flour (g) - 300\n• sugar (g) - 50", string(file.Content))
	})

	t.Run("Workbook", func(t *testing.T) {
		file, err := f.shoppingList.Export(buyer.ID, ShoppingListFormatXLSX)
		require.NoError(t, err)
		assert.Equal(t, "shopping_cart.xlsx", file.Filename)

		wb, err := excelize.OpenReader(bytes.NewReader(file.Content))
		require.NoError(t, err)
		defer wb.Close()

		rows, err := wb.GetRows(shoppingListSheet)
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"Ingredient", "Unit", "Amount"},
			{"flour", "g", "300"},
			{"sugar", "g", "50"},
		}, rows)
	})

	t.Run("Unknown format", func(t *testing.T) {
		_, err := f.shoppingList.Export(buyer.ID, "pdf")
		_, ok := AsValidationError(err)
		assert.True(t, ok)
	})

	t.Run("Other users see their own cart", func(t *testing.T) {
		lines, err := f.shoppingList.Lines(author.ID)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}

func TestRenderShoppingListText(t *testing.T) {
	lines := []model.ShoppingListLine{
		{Name: "Мука", MeasurementUnit: "г", Amount: 350},
		{Name: "Яйцо", MeasurementUnit: "шт", Amount: 3},
	}
	assert.Equal(t, "Список покупок:\n\n• Мука (г) - 350\n• Яйцо (шт) - 3", RenderShoppingListText(lines))
}
