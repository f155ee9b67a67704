package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	"github.com/ikkim/foodgram-backend/internal/db"
	"github.com/ikkim/foodgram-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret"

type fakeBlacklist struct {
	tokens map[string]time.Duration
}

func (f *fakeBlacklist) BlacklistToken(_ context.Context, token string, expiry time.Duration) error {
	if f.tokens == nil {
		f.tokens = make(map[string]time.Duration)
	}
	f.tokens[token] = expiry
	return nil
}

func setupAuthServiceTest(t *testing.T) (AuthService, repository.UserRepository, *fakeBlacklist) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	blacklist := &fakeBlacklist{}
	authService := NewAuthService(
		userRepo,
		blacklist,
		testJWTSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	return authService, userRepo, blacklist
}

func validRegistration(email, username string) RegisterInput {
	return RegisterInput{
		Email:     email,
		Username:  username,
		FirstName: "Вася",
		LastName:  "Пупкин",
		Password:  "password123",
	}
}

func TestAuthService_Register(t *testing.T) {
	authService, _, _ := setupAuthServiceTest(t)

	tests := []struct {
		name      string
		input     RegisterInput
		wantErr   error
		wantField string
	}{
		{
			name:  "Valid registration",
			input: validRegistration("vasya@example.com", "vasya"),
		},
		{
			name:    "Duplicate email",
			input:   validRegistration("vasya@example.com", "vasya2"),
			wantErr: ErrEmailAlreadyExists,
		},
		{
			name:    "Duplicate username",
			input:   validRegistration("other@example.com", "vasya"),
			wantErr: ErrUsernameAlreadyExists,
		},
		{
			name:      "Reserved username",
			input:     validRegistration("me@example.com", "Me"),
			wantField: "username",
		},
		{
			name:      "Invalid username characters",
			input:     validRegistration("space@example.com", "has space"),
			wantField: "username",
		},
		{
			name:  "Long cyrillic username within character limit",
			input: validRegistration("long@example.com", strings.Repeat("ж", 150)),
		},
		{
			name:      "Username over character limit",
			input:     validRegistration("longer@example.com", strings.Repeat("ж", 151)),
			wantField: "username",
		},
		{
			name: "Long cyrillic names",
			input: func() RegisterInput {
				in := validRegistration("names@example.com", "names")
				in.FirstName = strings.Repeat("Я", 150)
				in.LastName = strings.Repeat("Ю", 150)
				return in
			}(),
		},
		{
			name: "Password longer than bcrypt accepts",
			input: func() RegisterInput {
				in := validRegistration("long-pass@example.com", "longpass")
				in.Password = strings.Repeat("п", 40)
				return in
			}(),
			wantField: "password",
		},
		{
			name: "Short password",
			input: func() RegisterInput {
				in := validRegistration("short@example.com", "short")
				in.Password = "123"
				return in
			}(),
			wantField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := authService.Register(tt.input)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
			case tt.wantField != "":
				ve, ok := AsValidationError(err)
				require.True(t, ok, "expected validation error, got %v", err)
				assert.Contains(t, ve.Fields, tt.wantField)
				assert.Nil(t, user)
			default:
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.NotZero(t, user.ID)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.Equal(t, model.RoleUser, user.Role)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
			}
		})
	}
}

func TestAuthService_LoginAndRefresh(t *testing.T) {
	authService, _, _ := setupAuthServiceTest(t)

	_, err := authService.Register(validRegistration("cook@example.com", "cook"))
	require.NoError(t, err)

	t.Run("Wrong password", func(t *testing.T) {
		_, _, err := authService.Login("cook@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unknown email", func(t *testing.T) {
		_, _, err := authService.Login("nobody@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	user, tokens, err := authService.Login("COOK@example.com", "password123")
	require.NoError(t, err)
	require.NotNil(t, tokens)
	assert.Equal(t, "cook", user.Username)

	claims, err := util.ValidateToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, util.TokenTypeAccess, claims.TokenType)

	t.Run("Refresh with refresh token", func(t *testing.T) {
		pair, err := authService.Refresh(tokens.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
	})

	t.Run("Refresh with access token is rejected", func(t *testing.T) {
		_, err := authService.Refresh(tokens.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	authService, _, blacklist := setupAuthServiceTest(t)

	_, err := authService.Register(validRegistration("cook@example.com", "cook"))
	require.NoError(t, err)
	_, tokens, err := authService.Login("cook@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, authService.Logout(context.Background(), tokens.AccessToken))
	ttl, ok := blacklist.tokens[tokens.AccessToken]
	require.True(t, ok)
	assert.Greater(t, ttl, time.Duration(0))

	// garbage tokens are ignored
	assert.NoError(t, authService.Logout(context.Background(), "not-a-token"))
}

func TestAuthService_SetPassword(t *testing.T) {
	authService, _, _ := setupAuthServiceTest(t)

	user, err := authService.Register(validRegistration("cook@example.com", "cook"))
	require.NoError(t, err)

	err = authService.SetPassword(user.ID, "wrong", "newpassword1")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = authService.SetPassword(user.ID, "password123", "short")
	_, ok := AsValidationError(err)
	assert.True(t, ok)

	require.NoError(t, authService.SetPassword(user.ID, "password123", "newpassword1"))

	_, _, err = authService.Login("cook@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = authService.Login("cook@example.com", "newpassword1")
	assert.NoError(t, err)

	assert.ErrorIs(t, authService.SetPassword(999, "a", "bbbbbbbb"), ErrUserNotFound)
}

// staleUserRepo answers the pre-insert existence checks as if a concurrent
// registration had not committed yet.
type staleUserRepo struct {
	repository.UserRepository
	inserted bool
}

func (r *staleUserRepo) Create(user *model.User) error {
	r.inserted = true
	return r.UserRepository.Create(user)
}

func (r *staleUserRepo) ExistsByEmail(email string) (bool, error) {
	if !r.inserted {
		return false, nil
	}
	return r.UserRepository.ExistsByEmail(email)
}

func (r *staleUserRepo) ExistsByUsername(username string) (bool, error) {
	if !r.inserted {
		return false, nil
	}
	return r.UserRepository.ExistsByUsername(username)
}

func TestAuthService_Register_ConcurrentDuplicate(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{name: "Username taken", input: validRegistration("other@example.com", "chef"), wantErr: ErrUsernameAlreadyExists},
		{name: "Email taken", input: validRegistration("chef@example.com", "other"), wantErr: ErrEmailAlreadyExists},
		{name: "Both taken", input: validRegistration("chef@example.com", "chef"), wantErr: ErrEmailAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDB, err := db.SetupTestDB()
			require.NoError(t, err)
			defer db.CleanupTestDB(testDB)

			userRepo := repository.NewUserRepository(testDB)
			require.NoError(t, userRepo.Create(&model.User{
				Email:        "chef@example.com",
				Username:     "chef",
				FirstName:    "Шеф",
				LastName:     "Повар",
				PasswordHash: "hash",
				Role:         model.RoleUser,
			}))

			authService := NewAuthService(&staleUserRepo{UserRepository: userRepo}, nil, testJWTSecret, time.Minute, time.Hour)
			_, err = authService.Register(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
