package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/foodgram-backend/internal/app/service"
	"github.com/ikkim/foodgram-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login issues a token pair
// POST /api/auth/token/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err, "login")
		return
	}

	log.Info("Login successful", map[string]interface{}{
		"user_id": user.ID,
	})
	c.JSON(http.StatusOK, tokens)
}

// Refresh exchanges a refresh token for a new pair
// POST /api/auth/token/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	tokens, err := ctrl.authService.Refresh(req.RefreshToken)
	if err != nil {
		respondError(c, err, "refresh token")
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// Logout revokes the current access token
// POST /api/auth/token/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	if err := ctrl.authService.Logout(c.Request.Context(), middleware.GetAccessToken(c)); err != nil {
		respondError(c, err, "logout")
		return
	}
	c.Status(http.StatusNoContent)
}
