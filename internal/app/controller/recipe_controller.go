package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/foodgram-backend/config"
	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/service"
	apperrors "github.com/ikkim/foodgram-backend/internal/errors"
	"github.com/ikkim/foodgram-backend/internal/middleware"
)

type RecipeController struct {
	recipeService       service.RecipeService
	relationService     service.RelationService
	shoppingListService service.ShoppingListService
	pagination          config.PaginationConfig
}

func NewRecipeController(
	recipeService service.RecipeService,
	relationService service.RelationService,
	shoppingListService service.ShoppingListService,
	pagination config.PaginationConfig,
) *RecipeController {
	return &RecipeController{
		recipeService:       recipeService,
		relationService:     relationService,
		shoppingListService: shoppingListService,
		pagination:          pagination,
	}
}

type RecipeIngredientRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeRequest is shared by create and PATCH; omitted scalars stay nil.
type RecipeRequest struct {
	Name        *string                   `json:"name"`
	Text        *string                   `json:"text"`
	CookingTime *int                      `json:"cooking_time"`
	Image       *string                   `json:"image"`
	Tags        []uint                    `json:"tags"`
	Ingredients []RecipeIngredientRequest `json:"ingredients"`
}

func (r RecipeRequest) input() service.RecipeInput {
	lines := make([]service.IngredientLine, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		lines[i] = service.IngredientLine{ID: ing.ID, Amount: ing.Amount}
	}
	return service.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Image:       r.Image,
		Tags:        r.Tags,
		Ingredients: lines,
	}
}

func actor(c *gin.Context, userID uint) service.Actor {
	return service.Actor{UserID: userID, IsAdmin: middleware.IsAdmin(c)}
}

// ListRecipes GET /api/recipes
// Query params:
//   - tags: slug, repeatable (any of)
//   - author: user id
//   - name: exact name
//   - is_favorited, is_in_shopping_cart: 1|true, ignored for anonymous viewers
//   - page, limit
func (ctrl *RecipeController) ListRecipes(c *gin.Context) {
	page, ok := parsePagination(c, ctrl.pagination)
	if !ok {
		return
	}

	query := service.RecipeQuery{
		TagSlugs:         c.QueryArray("tags"),
		Name:             c.Query("name"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if raw := c.Query("author"); raw != "" {
		authorID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apperrors.RespondWithValidationError(c, map[string]string{
				"author": "Author must be a user id",
			})
			return
		}
		id := uint(authorID)
		query.AuthorID = &id
	}

	recipes, err := ctrl.recipeService.ListRecipes(middleware.GetViewerID(c), query, page)
	if err != nil {
		respondError(c, err, "list recipes")
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// GetRecipe GET /api/recipes/:id
func (ctrl *RecipeController) GetRecipe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	recipe, err := ctrl.recipeService.GetRecipe(middleware.GetViewerID(c), id)
	if err != nil {
		respondError(c, err, "get recipe")
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// CreateRecipe POST /api/recipes
func (ctrl *RecipeController) CreateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	recipe, err := ctrl.recipeService.CreateRecipe(c.Request.Context(), userID, req.input())
	if err != nil {
		respondError(c, err, "create recipe")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Recipe created", map[string]interface{}{
		"recipe_id": recipe.ID,
		"author_id": userID,
	})
	c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe PATCH /api/recipes/:id (author or admin)
func (ctrl *RecipeController) UpdateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	recipe, err := ctrl.recipeService.UpdateRecipe(c.Request.Context(), actor(c, userID), id, req.input())
	if err != nil {
		respondError(c, err, "update recipe")
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe DELETE /api/recipes/:id (author or admin)
func (ctrl *RecipeController) DeleteRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.recipeService.DeleteRecipe(c.Request.Context(), actor(c, userID), id); err != nil {
		respondError(c, err, "delete recipe")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddRelation handles POST /api/recipes/:id/favorite and /shopping_cart.
func (ctrl *RecipeController) AddRelation(kind model.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		recipeID, ok := parseID(c, "id")
		if !ok {
			return
		}

		recipe, err := ctrl.relationService.Add(kind, userID, recipeID)
		if err != nil {
			respondError(c, err, fmt.Sprintf("add recipe to %s", kind))
			return
		}
		c.JSON(http.StatusCreated, recipe)
	}
}

// RemoveRelation handles DELETE /api/recipes/:id/favorite and /shopping_cart.
func (ctrl *RecipeController) RemoveRelation(kind model.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		recipeID, ok := parseID(c, "id")
		if !ok {
			return
		}

		if err := ctrl.relationService.Remove(kind, userID, recipeID); err != nil {
			respondError(c, err, fmt.Sprintf("remove recipe from %s", kind))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DownloadShoppingCart GET /api/recipes/download_shopping_cart?format=txt|xlsx
func (ctrl *RecipeController) DownloadShoppingCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	file, err := ctrl.shoppingListService.Export(userID, c.Query("format"))
	if err != nil {
		respondError(c, err, "download shopping cart")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
