package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map messages from these codes.

const (
	// ==================== AUTH_ ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthUsernameExists     = "AUTH_USERNAME_EXISTS"
	AuthWrongPassword      = "AUTH_WRONG_PASSWORD"

	// ==================== AUTHZ_ ====================
	AuthzForbidden  = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly  = "AUTHZ_ADMIN_ONLY"
	AuthzAuthorOnly = "AUTHZ_AUTHOR_ONLY"

	// ==================== VALIDATION_ ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== RESOURCE_ ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== USER_ / SUBSCRIPTION_ ====================
	UserNotFound              = "USER_NOT_FOUND"
	SubscriptionSelf          = "SUBSCRIPTION_SELF"
	SubscriptionAlreadyExists = "SUBSCRIPTION_ALREADY_EXISTS"
	SubscriptionNotFound      = "SUBSCRIPTION_NOT_FOUND"

	// ==================== CATALOG ====================
	TagNotFound             = "TAG_NOT_FOUND"
	TagAlreadyExists        = "TAG_ALREADY_EXISTS"
	IngredientNotFound      = "INGREDIENT_NOT_FOUND"
	IngredientAlreadyExists = "INGREDIENT_ALREADY_EXISTS"
	IngredientInUse         = "INGREDIENT_IN_USE"

	// ==================== RECIPE_ ====================
	RecipeNotFound      = "RECIPE_NOT_FOUND"
	RecipeAlreadyExists = "RECIPE_ALREADY_EXISTS"

	// ==================== RELATION_ (favorite / shopping cart) ====================
	RelationAlreadyExists = "RELATION_ALREADY_EXISTS"
	RelationNotFound      = "RELATION_NOT_FOUND"

	// ==================== UPLOAD_ ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"
	UploadNotConfigured   = "UPLOAD_NOT_CONFIGURED"

	// ==================== INTERNAL_ ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
