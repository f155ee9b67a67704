package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/foodgram-backend/internal/app/model"
	apperrors "github.com/ikkim/foodgram-backend/internal/errors"
	"github.com/ikkim/foodgram-backend/pkg/util"
)

// Context keys for user information
const (
	UserIDKey      = "user_id"
	UserEmailKey   = "user_email"
	UserRoleKey    = "user_role"
	AccessTokenKey = "access_token"
)

// TokenChecker reports revoked access tokens. Implemented by *redis.Store.
type TokenChecker interface {
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

type AuthMiddleware struct {
	jwtSecret string
	revoked   TokenChecker
}

// NewAuthMiddleware builds the middleware; revoked may be nil when Redis is disabled.
func NewAuthMiddleware(jwtSecret string, revoked TokenChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		revoked:   revoked,
	}
}

// extractToken reads "Authorization: Bearer <token>" (or "Token <token>"),
// falling back to the ?token= query parameter used by websocket clients.
func extractToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("token")
		return token, token != ""
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || (parts[0] != "Bearer" && parts[0] != "Token") {
		return "", false
	}
	return parts[1], true
}

// verify checks signature, expiry, token type and the revocation list.
func (m *AuthMiddleware) verify(c *gin.Context, token string) (*util.Claims, error) {
	claims, err := util.ValidateToken(token, m.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeAccess {
		return nil, util.ErrInvalidToken
	}
	if m.revoked != nil {
		revoked, err := m.revoked.IsTokenBlacklisted(c.Request.Context(), token)
		if err != nil {
			// fail open while Redis is unavailable
			GetLoggerFromContext(c).Warn("Token blacklist unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		} else if revoked {
			return nil, errTokenRevoked
		}
	}
	return claims, nil
}

var errTokenRevoked = errors.New("token has been revoked")

func setClaims(c *gin.Context, claims *util.Claims, token string) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(UserEmailKey, claims.Email)
	c.Set(UserRoleKey, model.UserRole(claims.Role))
	c.Set(AccessTokenKey, token)
}

// Authenticate validates JWT token (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := extractToken(c)
		if !ok {
			log.Warn("Missing or malformed authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := m.verify(c, token)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			switch {
			case errors.Is(err, util.ErrExpiredToken):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Token has expired")
			case errors.Is(err, errTokenRevoked):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "Token has been revoked")
			default:
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid token")
			}
			c.Abort()
			return
		}

		setClaims(c, claims, token)

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})

		c.Next()
	}
}

// OptionalAuthenticate validates JWT token if present (optional)
// - If token is present and valid: sets user info in context
// - If token is missing or invalid: continues as anonymous
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		token, ok := extractToken(c)
		if !ok {
			log.Debug("Invalid authorization header format - continuing as anonymous", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			c.Next()
			return
		}

		claims, err := m.verify(c, token)
		if err != nil {
			log.Debug("Token validation failed - continuing as anonymous", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Next()
			return
		}

		setClaims(c, claims, token)
		c.Next()
	}
}

// RequireAdmin must run after Authenticate.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		role, exists := GetUserRole(c)
		if !exists || role != model.RoleAdmin {
			userID, _ := GetUserID(c)
			log.Warn("Admin access denied", map[string]interface{}{
				"user_id": userID,
				"role":    role,
				"path":    c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzAdminOnly, "Administrator access is required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetViewerID returns the authenticated user ID or 0 for anonymous requests.
func GetViewerID(c *gin.Context) uint {
	id, _ := GetUserID(c)
	return id
}

func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	return email.(string), true
}

func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	return role.(model.UserRole), true
}

// IsAdmin reports whether the authenticated user carries the admin role.
func IsAdmin(c *gin.Context) bool {
	role, _ := GetUserRole(c)
	return role == model.RoleAdmin
}

func GetAccessToken(c *gin.Context) string {
	return c.GetString(AccessTokenKey)
}
