package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/foodgram-backend/config"
	"github.com/ikkim/foodgram-backend/internal/app/controller"
	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/metrics"
	"github.com/ikkim/foodgram-backend/internal/middleware"
)

type Router struct {
	authController         *controller.AuthController
	userController         *controller.UserController
	subscriptionController *controller.SubscriptionController
	tagController          *controller.TagController
	ingredientController   *controller.IngredientController
	recipeController       *controller.RecipeController
	uploadController       *controller.UploadController
	feedController         *controller.FeedController
	authMiddleware         *middleware.AuthMiddleware
	config                 *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	userController *controller.UserController,
	subscriptionController *controller.SubscriptionController,
	tagController *controller.TagController,
	ingredientController *controller.IngredientController,
	recipeController *controller.RecipeController,
	uploadController *controller.UploadController,
	feedController *controller.FeedController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:         authController,
		userController:         userController,
		subscriptionController: subscriptionController,
		tagController:          tagController,
		ingredientController:   ingredientController,
		recipeController:       recipeController,
		uploadController:       uploadController,
		feedController:         feedController,
		authMiddleware:         authMiddleware,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Foodgram API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	if r.config.Storage.Driver == "local" {
		router.Static(r.config.Storage.LocalURLPrefix, r.config.Storage.LocalDir)
	}

	authenticated := r.authMiddleware.Authenticate()
	optional := r.authMiddleware.OptionalAuthenticate()
	admin := []gin.HandlerFunc{authenticated, r.authMiddleware.RequireAdmin()}

	api := router.Group("/api")
	{
		auth := api.Group("/auth/token")
		{
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/logout", authenticated, r.authController.Logout)
		}

		users := api.Group("/users")
		{
			users.POST("", r.userController.Register)
			users.GET("", optional, r.userController.ListUsers)
			users.GET("/me", authenticated, r.userController.Me)
			users.POST("/set_password", authenticated, r.userController.SetPassword)
			users.GET("/subscriptions", authenticated, r.subscriptionController.ListSubscriptions)
			users.GET("/:id", optional, r.userController.GetUser)
			users.POST("/:id/subscribe", authenticated, r.subscriptionController.Subscribe)
			users.DELETE("/:id/subscribe", authenticated, r.subscriptionController.Unsubscribe)
		}

		tags := api.Group("/tags")
		{
			tags.GET("", r.tagController.ListTags)
			tags.GET("/:id", r.tagController.GetTag)
			tags.POST("", append(admin, r.tagController.CreateTag)...)
			tags.PATCH("/:id", append(admin, r.tagController.UpdateTag)...)
			tags.DELETE("/:id", append(admin, r.tagController.DeleteTag)...)
		}

		ingredients := api.Group("/ingredients")
		{
			ingredients.GET("", r.ingredientController.ListIngredients)
			ingredients.GET("/:id", r.ingredientController.GetIngredient)
			ingredients.POST("", append(admin, r.ingredientController.CreateIngredient)...)
			ingredients.PATCH("/:id", append(admin, r.ingredientController.UpdateIngredient)...)
			ingredients.DELETE("/:id", append(admin, r.ingredientController.DeleteIngredient)...)
		}

		recipes := api.Group("/recipes")
		{
			recipes.GET("", optional, r.recipeController.ListRecipes)
			recipes.POST("", authenticated, r.recipeController.CreateRecipe)
			recipes.GET("/download_shopping_cart", authenticated, r.recipeController.DownloadShoppingCart)
			recipes.GET("/:id", optional, r.recipeController.GetRecipe)
			recipes.PATCH("/:id", authenticated, r.recipeController.UpdateRecipe)
			recipes.DELETE("/:id", authenticated, r.recipeController.DeleteRecipe)

			recipes.POST("/:id/favorite", authenticated, r.recipeController.AddRelation(model.RelationFavorite))
			recipes.DELETE("/:id/favorite", authenticated, r.recipeController.RemoveRelation(model.RelationFavorite))
			recipes.POST("/:id/shopping_cart", authenticated, r.recipeController.AddRelation(model.RelationShoppingCart))
			recipes.DELETE("/:id/shopping_cart", authenticated, r.recipeController.RemoveRelation(model.RelationShoppingCart))
		}

		api.POST("/upload/presigned-url", authenticated, r.uploadController.GeneratePresignedURL)
		api.GET("/ws", authenticated, r.feedController.Connect)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PATCH, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
