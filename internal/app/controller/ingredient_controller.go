package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/foodgram-backend/internal/app/service"
	"github.com/ikkim/foodgram-backend/internal/middleware"
)

type IngredientController struct {
	ingredientService service.IngredientService
}

func NewIngredientController(ingredientService service.IngredientService) *IngredientController {
	return &IngredientController{ingredientService: ingredientService}
}

type IngredientRequest struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func (r IngredientRequest) input() service.IngredientInput {
	return service.IngredientInput{Name: r.Name, MeasurementUnit: r.MeasurementUnit}
}

// ListIngredients GET /api/ingredients?name=<prefix>
func (ctrl *IngredientController) ListIngredients(c *gin.Context) {
	ingredients, err := ctrl.ingredientService.ListIngredients(c.Query("name"))
	if err != nil {
		respondError(c, err, "list ingredients")
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

// GetIngredient GET /api/ingredients/:id
func (ctrl *IngredientController) GetIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ingredient, err := ctrl.ingredientService.GetIngredient(id)
	if err != nil {
		respondError(c, err, "get ingredient")
		return
	}
	c.JSON(http.StatusOK, ingredient)
}

// CreateIngredient POST /api/ingredients (admin)
func (ctrl *IngredientController) CreateIngredient(c *gin.Context) {
	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	ingredient, err := ctrl.ingredientService.CreateIngredient(req.input())
	if err != nil {
		respondError(c, err, "create ingredient")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Ingredient created", map[string]interface{}{
		"ingredient_id": ingredient.ID,
	})
	c.JSON(http.StatusCreated, ingredient)
}

// UpdateIngredient PATCH /api/ingredients/:id (admin)
func (ctrl *IngredientController) UpdateIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	ingredient, err := ctrl.ingredientService.UpdateIngredient(id, req.input())
	if err != nil {
		respondError(c, err, "update ingredient")
		return
	}
	c.JSON(http.StatusOK, ingredient)
}

// DeleteIngredient DELETE /api/ingredients/:id (admin)
func (ctrl *IngredientController) DeleteIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.ingredientService.DeleteIngredient(id); err != nil {
		respondError(c, err, "delete ingredient")
		return
	}
	c.Status(http.StatusNoContent)
}
