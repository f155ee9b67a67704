package controller

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/foodgram-backend/config"
	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	"github.com/ikkim/foodgram-backend/internal/app/service"
	"github.com/ikkim/foodgram-backend/internal/db"
	"github.com/ikkim/foodgram-backend/internal/middleware"
	"github.com/ikkim/foodgram-backend/internal/storage"
	ws "github.com/ikkim/foodgram-backend/internal/websocket"
	"github.com/ikkim/foodgram-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret = "test-secret"

	// 1x1 transparent PNG
	testImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
)

var testPagination = config.PaginationConfig{DefaultPageSize: 6, MaxPageSize: 100}

type controllerFixture struct {
	db     *gorm.DB
	router *gin.Engine
}

func setupControllers(t *testing.T) *controllerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	userRepo := repository.NewUserRepository(testDB)
	subscriptionRepo := repository.NewSubscriptionRepository(testDB)
	tagRepo := repository.NewTagRepository(testDB)
	ingredientRepo := repository.NewIngredientRepository(testDB)
	recipeRepo := repository.NewRecipeRepository(testDB)
	relationRepo := repository.NewRelationRepository(testDB)

	authService := service.NewAuthService(userRepo, nil, testSecret, 15*time.Minute, 7*24*time.Hour)
	recipeService := service.NewRecipeService(
		recipeRepo,
		tagRepo,
		ingredientRepo,
		relationRepo,
		subscriptionRepo,
		storage.NewLocalStorage(t.TempDir(), "/media"),
		hub,
	)

	authController := NewAuthController(authService)
	userController := NewUserController(authService, service.NewUserService(userRepo, subscriptionRepo), testPagination)
	subscriptionController := NewSubscriptionController(
		service.NewSubscriptionService(userRepo, subscriptionRepo, recipeRepo),
		testPagination,
	)
	tagController := NewTagController(service.NewTagService(tagRepo, nil))
	ingredientController := NewIngredientController(service.NewIngredientService(ingredientRepo))
	recipeController := NewRecipeController(
		recipeService,
		service.NewRelationService(recipeRepo, relationRepo),
		service.NewShoppingListService(relationRepo),
		testPagination,
	)
	authMiddleware := middleware.NewAuthMiddleware(testSecret, nil)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	authenticated := authMiddleware.Authenticate()
	optional := authMiddleware.OptionalAuthenticate()
	admin := authMiddleware.RequireAdmin()

	api := router.Group("/api")
	api.POST("/auth/token/login", authController.Login)
	api.POST("/auth/token/refresh", authController.Refresh)
	api.POST("/auth/token/logout", authenticated, authController.Logout)

	api.POST("/users", userController.Register)
	api.GET("/users", optional, userController.ListUsers)
	api.GET("/users/me", authenticated, userController.Me)
	api.POST("/users/set_password", authenticated, userController.SetPassword)
	api.GET("/users/subscriptions", authenticated, subscriptionController.ListSubscriptions)
	api.GET("/users/:id", optional, userController.GetUser)
	api.POST("/users/:id/subscribe", authenticated, subscriptionController.Subscribe)
	api.DELETE("/users/:id/subscribe", authenticated, subscriptionController.Unsubscribe)

	api.GET("/tags", tagController.ListTags)
	api.GET("/tags/:id", tagController.GetTag)
	api.POST("/tags", authenticated, admin, tagController.CreateTag)
	api.PATCH("/tags/:id", authenticated, admin, tagController.UpdateTag)
	api.DELETE("/tags/:id", authenticated, admin, tagController.DeleteTag)

	api.GET("/ingredients", ingredientController.ListIngredients)
	api.GET("/ingredients/:id", ingredientController.GetIngredient)
	api.POST("/ingredients", authenticated, admin, ingredientController.CreateIngredient)
	api.PATCH("/ingredients/:id", authenticated, admin, ingredientController.UpdateIngredient)
	api.DELETE("/ingredients/:id", authenticated, admin, ingredientController.DeleteIngredient)

	api.GET("/recipes", optional, recipeController.ListRecipes)
	api.POST("/recipes", authenticated, recipeController.CreateRecipe)
	api.GET("/recipes/download_shopping_cart", authenticated, recipeController.DownloadShoppingCart)
	api.GET("/recipes/:id", optional, recipeController.GetRecipe)
	api.PATCH("/recipes/:id", authenticated, recipeController.UpdateRecipe)
	api.DELETE("/recipes/:id", authenticated, recipeController.DeleteRecipe)
	api.POST("/recipes/:id/favorite", authenticated, recipeController.AddRelation(model.RelationFavorite))
	api.DELETE("/recipes/:id/favorite", authenticated, recipeController.RemoveRelation(model.RelationFavorite))
	api.POST("/recipes/:id/shopping_cart", authenticated, recipeController.AddRelation(model.RelationShoppingCart))
	api.DELETE("/recipes/:id/shopping_cart", authenticated, recipeController.RemoveRelation(model.RelationShoppingCart))

	return &controllerFixture{db: testDB, router: router}
}

// user inserts an account and returns it with a valid access token.
func (f *controllerFixture) user(t *testing.T, username string, role model.UserRole) (*model.User, string) {
	t.Helper()
	hash, err := util.HashPassword("password123")
	require.NoError(t, err)

	u := &model.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    username,
		LastName:     "Test",
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, f.db.Create(u).Error)

	tokens, err := util.GenerateTokenPair(u.ID, u.Email, u.TokenRole(), testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return u, tokens.AccessToken
}

func (f *controllerFixture) tag(t *testing.T, name, color, slug string) *model.Tag {
	t.Helper()
	tag := &model.Tag{Name: name, Color: color, Slug: slug}
	require.NoError(t, f.db.Create(tag).Error)
	return tag
}

func (f *controllerFixture) ingredient(t *testing.T, name, unit string) *model.Ingredient {
	t.Helper()
	ing := &model.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, f.db.Create(ing).Error)
	return ing
}

// do sends a JSON request; token may be empty for anonymous calls.
func (f *controllerFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func recipeBody(name string, tagIDs []uint, ingredients ...RecipeIngredientRequest) gin.H {
	return gin.H{
		"name":         name,
		"text":         "Смешать и запечь",
		"cooking_time": 30,
		"image":        testImage,
		"tags":         tagIDs,
		"ingredients":  ingredients,
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
