package errors

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

type ErrorInfo struct {
	Code    string
	Message string
}

// IsUniqueViolation reports whether err came from a unique constraint,
// on postgres (pgx) or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key")
}

// IsForeignKeyViolation reports whether err came from a foreign key
// constraint, e.g. deleting a row that is still referenced.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

// ParseError converts repository errors into a code and a message that is
// safe to show to clients. context names the operation, e.g. "create recipe".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Internal server error"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}
	if IsUniqueViolation(err) {
		return parseDuplicateKeyError(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return ErrorInfo{Code: ResourceConflict, Message: "Referenced data does not exist or is still in use"}
		case pgNotNullViolation:
			return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
		case pgCheckViolation:
			return ErrorInfo{Code: ValidationInvalidRange, Message: "A value is out of the allowed range"}
		}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated), strings.Contains(lower, "foreign key constraint"):
		return ErrorInfo{Code: ResourceConflict, Message: "Referenced data does not exist or is still in use"}
	case strings.Contains(lower, "check constraint"):
		return ErrorInfo{Code: ValidationInvalidRange, Message: "A value is out of the allowed range"}
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "timeout"):
		return ErrorInfo{Code: InternalDatabaseError, Message: "Storage is temporarily unavailable, try again later"}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

// parseDuplicateKeyError names the conflicting resource from the constraint
// when the driver reports one. gorm.ErrDuplicatedKey carries no detail.
func parseDuplicateKeyError(err error) ErrorInfo {
	var detail string
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		detail = pgErr.ConstraintName + " " + pgErr.TableName + " " + pgErr.Message
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
	default:
		detail = err.Error()
	}
	lower := strings.ToLower(detail)

	switch {
	case strings.Contains(lower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "A user with this email already exists"}
	case strings.Contains(lower, "username"):
		return ErrorInfo{Code: AuthUsernameExists, Message: "A user with this username already exists"}
	case strings.Contains(lower, "favorites"), strings.Contains(lower, "shopping_cart"):
		return ErrorInfo{Code: RelationAlreadyExists, Message: "Recipe is already added"}
	case strings.Contains(lower, "subscriptions"):
		return ErrorInfo{Code: SubscriptionAlreadyExists, Message: "Already subscribed to this author"}
	case strings.Contains(lower, "recipes"):
		return ErrorInfo{Code: RecipeAlreadyExists, Message: "You already have a recipe with this name"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func notFoundMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "recipe"):
		return "Recipe not found"
	case strings.Contains(lower, "ingredient"):
		return "Ingredient not found"
	case strings.Contains(lower, "tag"):
		return "Tag not found"
	case strings.Contains(lower, "user"), strings.Contains(lower, "author"):
		return "User not found"
	}
	return "Requested data not found"
}

func defaultMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "create"):
		return "Failed to create, try again later"
	case strings.Contains(lower, "update"):
		return "Failed to update, try again later"
	case strings.Contains(lower, "delete"):
		return "Failed to delete, try again later"
	}
	return "Internal server error, try again later"
}

// ParseAndRespond writes a JSON error for err with the given status.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{Error: info.Code, Message: info.Message})
}
