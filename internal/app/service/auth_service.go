package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	apperrors "github.com/ikkim/foodgram-backend/internal/errors"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"github.com/ikkim/foodgram-backend/pkg/util"
	"gorm.io/gorm"
)

// TokenBlacklist revokes access tokens before they expire.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, token string, expiry time.Duration) error
}

type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

type AuthService interface {
	Register(input RegisterInput) (*model.User, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Refresh(refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	SetPassword(userID uint, currentPassword, newPassword string) error
	GetUserByID(id uint) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	blacklist     TokenBlacklist
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewAuthService builds the auth service; blacklist may be nil when Redis is disabled.
func NewAuthService(
	userRepo repository.UserRepository,
	blacklist TokenBlacklist,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		blacklist:     blacklist,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func validateRegistration(input RegisterInput) error {
	v := &validator{}
	v.check(strings.Contains(input.Email, "@") && utf8.RuneCountInString(input.Email) <= 254, "email", "Enter a valid email address")
	v.check(input.Username != "" && utf8.RuneCountInString(input.Username) <= util.UsernameMaxLength, "username", "Username is required and must be at most 150 characters")
	if err := util.ValidateUsername(input.Username); err != nil && input.Username != "" {
		v.check(false, "username", err.Error())
	}
	v.check(strings.TrimSpace(input.FirstName) != "" && utf8.RuneCountInString(input.FirstName) <= 150, "first_name", "First name is required")
	v.check(strings.TrimSpace(input.LastName) != "" && utf8.RuneCountInString(input.LastName) <= 150, "last_name", "Last name is required")
	v.check(len(input.Password) >= 8, "password", "Password must be at least 8 characters")
	v.check(len(input.Password) <= util.MaxPasswordBytes, "password", util.ErrPasswordTooLong.Error())
	return v.err()
}

func (s *authService) Register(input RegisterInput) (*model.User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	logger.Info("Attempting user registration", map[string]interface{}{
		"email":    input.Email,
		"username": input.Username,
	})

	if err := validateRegistration(input); err != nil {
		logger.Warn("Registration rejected by validation", map[string]interface{}{
			"email": input.Email,
			"error": err.Error(),
		})
		return nil, err
	}

	if exists, err := s.userRepo.ExistsByEmail(input.Email); err != nil {
		return nil, err
	} else if exists {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": input.Email,
		})
		return nil, ErrEmailAlreadyExists
	}
	if exists, err := s.userRepo.ExistsByUsername(input.Username); err != nil {
		return nil, err
	} else if exists {
		logger.Warn("Registration failed: username already exists", map[string]interface{}{
			"username": input.Username,
		})
		return nil, ErrUsernameAlreadyExists
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": input.Email,
		})
		return nil, err
	}

	user := &model.User{
		Email:        input.Email,
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hashedPassword,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			// lost a race with a concurrent registration; the translated
			// error does not name the column, so ask the store which one won
			return nil, s.duplicateUserError(input)
		}
		return nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

func (s *authService) duplicateUserError(input RegisterInput) error {
	taken, err := s.userRepo.ExistsByUsername(input.Username)
	if err != nil {
		return err
	}
	logger.Warn("Registration lost a concurrent insert", map[string]interface{}{
		"email":          input.Email,
		"username":       input.Username,
		"username_taken": taken,
	})
	if taken {
		if emailTaken, err := s.userRepo.ExistsByEmail(input.Email); err == nil && emailTaken {
			return ErrEmailAlreadyExists
		}
		return ErrUsernameAlreadyExists
	}
	return ErrEmailAlreadyExists
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		user.TokenRole(),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

func (s *authService) Refresh(refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtSecret)
	if err != nil || claims.TokenType != util.TokenTypeRefresh {
		logger.Warn("Refresh rejected", map[string]interface{}{
			"reason": errorString(err, "not a refresh token"),
		})
		return nil, ErrInvalidRefreshToken
	}

	// role may have changed since the refresh token was issued
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return s.issueTokens(user)
}

func (s *authService) Logout(ctx context.Context, accessToken string) error {
	if s.blacklist == nil {
		logger.Debug("Token blacklist disabled, logout is client-side only")
		return nil
	}

	claims, err := util.ValidateToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, accessToken, util.TokenTTL(claims)); err != nil {
		logger.Error("Failed to revoke token on logout", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) SetPassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !util.VerifyPassword(user.PasswordHash, currentPassword) {
		logger.Warn("Set password rejected: wrong current password", map[string]interface{}{
			"user_id": userID,
		})
		return ErrWrongPassword
	}

	v := &validator{}
	v.check(len(newPassword) >= 8, "new_password", "Password must be at least 8 characters")
	v.check(len(newPassword) <= util.MaxPasswordBytes, "new_password", util.ErrPasswordTooLong.Error())
	v.check(newPassword != currentPassword, "new_password", "New password must differ from the current one")
	if err := v.err(); err != nil {
		return err
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(userID, hash); err != nil {
		return err
	}

	logger.Info("Password changed", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func errorString(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
