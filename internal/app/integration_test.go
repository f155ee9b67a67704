package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/foodgram-backend/config"
	"github.com/ikkim/foodgram-backend/internal/app/controller"
	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	"github.com/ikkim/foodgram-backend/internal/app/service"
	"github.com/ikkim/foodgram-backend/internal/db"
	"github.com/ikkim/foodgram-backend/internal/metrics"
	"github.com/ikkim/foodgram-backend/internal/middleware"
	"github.com/ikkim/foodgram-backend/internal/router"
	"github.com/ikkim/foodgram-backend/internal/storage"
	"github.com/ikkim/foodgram-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
}

func setupIntegrationTest(t *testing.T) *TestServer {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	metrics.Init()

	cfg := &config.Config{
		Server:     config.ServerConfig{GinMode: gin.TestMode},
		JWT:        config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: 15 * time.Minute, RefreshTokenExpiry: time.Hour},
		CORS:       config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Storage:    config.StorageConfig{Driver: "local", LocalDir: t.TempDir(), LocalURLPrefix: "/media"},
		Pagination: config.PaginationConfig{DefaultPageSize: 6, MaxPageSize: 100},
	}

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	userRepo := repository.NewUserRepository(testDB)
	subscriptionRepo := repository.NewSubscriptionRepository(testDB)
	tagRepo := repository.NewTagRepository(testDB)
	ingredientRepo := repository.NewIngredientRepository(testDB)
	recipeRepo := repository.NewRecipeRepository(testDB)
	relationRepo := repository.NewRelationRepository(testDB)

	authService := service.NewAuthService(userRepo, nil, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	recipeService := service.NewRecipeService(
		recipeRepo,
		tagRepo,
		ingredientRepo,
		relationRepo,
		subscriptionRepo,
		storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.LocalURLPrefix),
		hub,
	)

	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewUserController(authService, service.NewUserService(userRepo, subscriptionRepo), cfg.Pagination),
		controller.NewSubscriptionController(service.NewSubscriptionService(userRepo, subscriptionRepo, recipeRepo), cfg.Pagination),
		controller.NewTagController(service.NewTagService(tagRepo, nil)),
		controller.NewIngredientController(service.NewIngredientService(ingredientRepo)),
		controller.NewRecipeController(
			recipeService,
			service.NewRelationService(recipeRepo, relationRepo),
			service.NewShoppingListService(relationRepo),
			cfg.Pagination,
		),
		controller.NewUploadController(nil),
		controller.NewFeedController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(cfg.JWT.Secret, nil),
		cfg,
	)

	return &TestServer{Router: r.Setup(), DB: testDB}
}

func (s *TestServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func responseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// signUp registers through the API and returns the user id and access token.
func (s *TestServer) signUp(t *testing.T, username string) (uint, string) {
	t.Helper()
	w := s.request(t, "POST", "/api/users", "", map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": username,
		"last_name":  "Test",
		"password":   "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := uint(responseBody(t, w)["id"].(float64))

	w = s.request(t, "POST", "/api/auth/token/login", "", map[string]string{
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return id, responseBody(t, w)["access_token"].(string)
}

func TestCompleteUserJourney(t *testing.T) {
	server := setupIntegrationTest(t)

	tag := model.Tag{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"}
	require.NoError(t, server.DB.Create(&tag).Error)
	flour := model.Ingredient{Name: "Мука", MeasurementUnit: "г"}
	milk := model.Ingredient{Name: "Молоко", MeasurementUnit: "мл"}
	require.NoError(t, server.DB.Create(&flour).Error)
	require.NoError(t, server.DB.Create(&milk).Error)

	authorID, authorToken := server.signUp(t, "chef")
	_, readerToken := server.signUp(t, "gourmet")

	t.Run("Follow the author", func(t *testing.T) {
		w := server.request(t, "POST", fmt.Sprintf("/api/users/%d/subscribe", authorID), readerToken, nil)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	var recipeID uint
	t.Run("Publish a recipe", func(t *testing.T) {
		w := server.request(t, "POST", "/api/recipes", authorToken, map[string]interface{}{
			"name":         "Блины",
			"text":         "Смешать муку с молоком и жарить",
			"cooking_time": 25,
			"image":        "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==",
			"tags":         []uint{tag.ID},
			"ingredients": []map[string]interface{}{
				{"id": flour.ID, "amount": 250},
				{"id": milk.ID, "amount": 500},
			},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := responseBody(t, w)
		recipeID = uint(body["id"].(float64))

		image := body["image"].(string)
		require.True(t, strings.HasPrefix(image, "/media/recipes/"), image)

		w = server.request(t, "GET", image, "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Reader sees the recipe annotated", func(t *testing.T) {
		w := server.request(t, "GET", fmt.Sprintf("/api/recipes?author=%d&tags=breakfast", authorID), readerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := responseBody(t, w)
		assert.Equal(t, float64(1), page["count"])

		recipe := page["results"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, true, recipe["author"].(map[string]interface{})["is_subscribed"])
		assert.Equal(t, false, recipe["is_in_shopping_cart"])
	})

	t.Run("Favorite and shopping cart", func(t *testing.T) {
		path := fmt.Sprintf("/api/recipes/%d", recipeID)
		assert.Equal(t, http.StatusCreated, server.request(t, "POST", path+"/favorite", readerToken, nil).Code)
		assert.Equal(t, http.StatusBadRequest, server.request(t, "POST", path+"/favorite", readerToken, nil).Code)
		assert.Equal(t, http.StatusCreated, server.request(t, "POST", path+"/shopping_cart", readerToken, nil).Code)

		w := server.request(t, "GET", "/api/recipes/download_shopping_cart", readerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Список покупок:\n\n• Молоко (мл) - 500\n• Мука (г) - 250", w.Body.String())
	})

	t.Run("Subscriptions list", func(t *testing.T) {
		w := server.request(t, "GET", "/api/users/subscriptions?recipes_limit=0", readerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		author := responseBody(t, w)["results"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, float64(1), author["recipes_count"])
		assert.Empty(t, author["recipes"])
	})

	t.Run("Author deletes the recipe", func(t *testing.T) {
		path := fmt.Sprintf("/api/recipes/%d", recipeID)
		assert.Equal(t, http.StatusForbidden, server.request(t, "DELETE", path, readerToken, nil).Code)
		assert.Equal(t, http.StatusNoContent, server.request(t, "DELETE", path, authorToken, nil).Code)

		w := server.request(t, "GET", "/api/recipes/download_shopping_cart", readerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Список покупок:\n\n", w.Body.String())
	})
}

func TestInfrastructureRoutes(t *testing.T) {
	server := setupIntegrationTest(t)

	w := server.request(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", responseBody(t, w)["status"])

	server.request(t, "GET", "/api/tags", "", nil)
	w = server.request(t, "GET", "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/api/tags",status="200"}`)

	req := httptest.NewRequest("OPTIONS", "/api/recipes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	server.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	w = server.request(t, "POST", "/api/upload/presigned-url", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUnauthorizedAccess(t *testing.T) {
	server := setupIntegrationTest(t)

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/recipes"},
		{"PATCH", "/api/recipes/1"},
		{"DELETE", "/api/recipes/1"},
		{"POST", "/api/recipes/1/favorite"},
		{"DELETE", "/api/recipes/1/shopping_cart"},
		{"GET", "/api/recipes/download_shopping_cart"},
		{"GET", "/api/users/me"},
		{"GET", "/api/users/subscriptions"},
		{"POST", "/api/users/1/subscribe"},
		{"POST", "/api/tags"},
		{"POST", "/api/auth/token/logout"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			w := server.request(t, ep.method, ep.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	_, token := server.signUp(t, "regular")
	w := server.request(t, "POST", "/api/tags", token, map[string]string{"name": "x", "color": "#000000", "slug": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
