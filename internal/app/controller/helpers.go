package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/foodgram-backend/config"
	"github.com/ikkim/foodgram-backend/internal/app/service"
	apperrors "github.com/ikkim/foodgram-backend/internal/errors"
	"github.com/ikkim/foodgram-backend/internal/middleware"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors maps sentinel errors to HTTP responses. Duplicate adds and
// missing removes are client errors (400), absent targets are 404.
var serviceErrors = []errorMapping{
	{service.ErrEmailAlreadyExists, http.StatusBadRequest, apperrors.AuthEmailAlreadyExists, "A user with this email already exists"},
	{service.ErrUsernameAlreadyExists, http.StatusBadRequest, apperrors.AuthUsernameExists, "A user with this username already exists"},
	{service.ErrInvalidCredentials, http.StatusBadRequest, apperrors.AuthInvalidCredentials, "Unable to log in with provided credentials"},
	{service.ErrWrongPassword, http.StatusBadRequest, apperrors.AuthWrongPassword, "Current password is incorrect"},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid refresh token"},
	{service.ErrUserNotFound, http.StatusNotFound, apperrors.UserNotFound, "User not found"},

	{service.ErrSelfSubscription, http.StatusBadRequest, apperrors.SubscriptionSelf, "You cannot subscribe to yourself"},
	{service.ErrAlreadySubscribed, http.StatusBadRequest, apperrors.SubscriptionAlreadyExists, "Already subscribed to this author"},
	{service.ErrSubscriptionNotFound, http.StatusBadRequest, apperrors.SubscriptionNotFound, "You are not subscribed to this author"},

	{service.ErrTagNotFound, http.StatusNotFound, apperrors.TagNotFound, "Tag not found"},
	{service.ErrTagAlreadyExists, http.StatusBadRequest, apperrors.TagAlreadyExists, "A tag with this name, color or slug already exists"},
	{service.ErrIngredientNotFound, http.StatusNotFound, apperrors.IngredientNotFound, "Ingredient not found"},
	{service.ErrIngredientExists, http.StatusBadRequest, apperrors.IngredientAlreadyExists, "Ingredient already exists"},
	{service.ErrIngredientInUse, http.StatusConflict, apperrors.IngredientInUse, "Ingredient is used by recipes"},

	{service.ErrRecipeNotFound, http.StatusNotFound, apperrors.RecipeNotFound, "Recipe not found"},
	{service.ErrRecipeNameTaken, http.StatusBadRequest, apperrors.RecipeAlreadyExists, "You already have a recipe with this name"},
	{service.ErrNotRecipeAuthor, http.StatusForbidden, apperrors.AuthzAuthorOnly, "Only the author can change this recipe"},

	{service.ErrRelationAlreadyExists, http.StatusBadRequest, apperrors.RelationAlreadyExists, "Recipe is already added"},
	{service.ErrRelationNotFound, http.StatusBadRequest, apperrors.RelationNotFound, "Recipe was not added"},
}

// respondError writes the response for a service error. operation names
// the failed action for logs and fallback messages, e.g. "create recipe".
func respondError(c *gin.Context, err error, operation string) {
	log := middleware.GetLoggerFromContext(c)

	if ve, ok := service.AsValidationError(err); ok {
		log.Warn(operation+": validation failed", map[string]interface{}{
			"fields": ve.Fields,
		})
		apperrors.RespondWithValidationError(c, ve.Fields)
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			log.Warn(operation+" rejected", map[string]interface{}{
				"reason": err.Error(),
			})
			apperrors.RespondWithError(c, m.status, m.code, m.message)
			return
		}
	}

	log.Error(operation+" failed", err)
	apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, operation)
}

func invalidInput(c *gin.Context, err error) {
	middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
		"path":  c.Request.URL.Path,
		"error": err.Error(),
	})
	apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads ?page= and ?limit=. page >= 1, 1 <= limit <= max.
func parsePagination(c *gin.Context, cfg config.PaginationConfig) (service.Pagination, bool) {
	fields := map[string]string{}
	page := service.Pagination{Page: 1, Limit: cfg.DefaultPageSize}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields["page"] = "Page must be a positive integer"
		}
		page.Page = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > cfg.MaxPageSize {
			fields["limit"] = "Limit must be between 1 and " + strconv.Itoa(cfg.MaxPageSize)
		}
		page.Limit = n
	}

	if len(fields) > 0 {
		apperrors.RespondWithValidationError(c, fields)
		return service.Pagination{}, false
	}
	return page, true
}

// parseRecipesLimit reads ?recipes_limit=; absent means no limit.
func parseRecipesLimit(c *gin.Context) (int, bool) {
	raw, ok := c.GetQuery("recipes_limit")
	if !ok {
		return service.UnlimitedRecipes, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		apperrors.RespondWithValidationError(c, map[string]string{
			"recipes_limit": "recipes_limit must be a non-negative integer",
		})
		return 0, false
	}
	return n, true
}

// queryFlag treats "1" and "true" as set.
func queryFlag(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "1" || v == "true"
}

// currentUser returns the authenticated user id; the route must run Authenticate.
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
	}
	return userID, ok
}
