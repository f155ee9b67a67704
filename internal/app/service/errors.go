package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrWrongPassword         = errors.New("current password is incorrect")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")

	ErrSelfSubscription     = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed    = errors.New("already subscribed to this author")
	ErrSubscriptionNotFound = errors.New("not subscribed to this author")

	ErrTagNotFound        = errors.New("tag not found")
	ErrTagAlreadyExists   = errors.New("tag with this name, color or slug already exists")
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrIngredientExists   = errors.New("ingredient already exists")
	ErrIngredientInUse    = errors.New("ingredient is used by recipes")

	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrRecipeNameTaken = errors.New("you already have a recipe with this name")
	ErrNotRecipeAuthor = errors.New("only the author or an admin can change this recipe")

	ErrRelationAlreadyExists = errors.New("recipe is already added")
	ErrRelationNotFound      = errors.New("recipe was not added")
)

// ValidationError collects rule violations per input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type validator struct {
	fields map[string]string
}

func (v *validator) check(ok bool, field, message string) {
	if ok {
		return
	}
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = message
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// AsValidationError unwraps a *ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
