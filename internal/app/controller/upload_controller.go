package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/foodgram-backend/internal/errors"
	"github.com/ikkim/foodgram-backend/internal/middleware"
	"github.com/ikkim/foodgram-backend/internal/storage"
)

// ImagePresigner issues direct upload URLs. Implemented by *storage.S3Storage.
type ImagePresigner interface {
	PresignImageUpload(ctx context.Context, contentType string) (*storage.PresignedURLResponse, error)
}

type UploadController struct {
	presigner ImagePresigner
}

// NewUploadController accepts a nil presigner when the local storage driver is used.
func NewUploadController(presigner ImagePresigner) *UploadController {
	return &UploadController{presigner: presigner}
}

type GeneratePresignedURLRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// GeneratePresignedURL returns a presigned PUT URL for a recipe image
// POST /api/upload/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.presigner == nil {
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.UploadNotConfigured,
			"Direct uploads require the s3 storage driver")
		return
	}

	var req GeneratePresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	resp, err := ctrl.presigner.PresignImageUpload(c.Request.Context(), req.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			log.Warn("Invalid content type", map[string]interface{}{
				"content_type": req.ContentType,
			})
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only image files are allowed (JPEG, PNG, GIF, WEBP)")
			return
		}
		log.Error("Failed to generate presigned URL", err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to generate upload URL")
		return
	}

	log.Info("Presigned URL generated", map[string]interface{}{
		"key": resp.Key,
	})
	c.JSON(http.StatusOK, resp)
}
