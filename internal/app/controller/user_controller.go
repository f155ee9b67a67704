package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/foodgram-backend/config"
	"github.com/ikkim/foodgram-backend/internal/app/service"
	"github.com/ikkim/foodgram-backend/internal/middleware"
)

type UserController struct {
	authService service.AuthService
	userService service.UserService
	pagination  config.PaginationConfig
}

func NewUserController(authService service.AuthService, userService service.UserService, pagination config.PaginationConfig) *UserController {
	return &UserController{
		authService: authService,
		userService: userService,
		pagination:  pagination,
	}
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Username  string `json:"username" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type RegisterResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates an account
// POST /api/users
func (ctrl *UserController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	user, err := ctrl.authService.Register(service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err, "register user")
		return
	}

	log.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	c.JSON(http.StatusCreated, RegisterResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// ListUsers GET /api/users
func (ctrl *UserController) ListUsers(c *gin.Context) {
	page, ok := parsePagination(c, ctrl.pagination)
	if !ok {
		return
	}

	users, err := ctrl.userService.ListUsers(middleware.GetViewerID(c), page)
	if err != nil {
		respondError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser GET /api/users/:id
func (ctrl *UserController) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.userService.GetUser(middleware.GetViewerID(c), id)
	if err != nil {
		respondError(c, err, "get user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me GET /api/users/me
func (ctrl *UserController) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := ctrl.userService.Me(userID)
	if err != nil {
		respondError(c, err, "get current user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetPassword POST /api/users/set_password
func (ctrl *UserController) SetPassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	if err := ctrl.authService.SetPassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err, "set password")
		return
	}
	c.Status(http.StatusNoContent)
}
