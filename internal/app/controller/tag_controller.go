package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/foodgram-backend/internal/app/service"
	"github.com/ikkim/foodgram-backend/internal/middleware"
)

type TagController struct {
	tagService service.TagService
}

func NewTagController(tagService service.TagService) *TagController {
	return &TagController{tagService: tagService}
}

type TagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

func (r TagRequest) input() service.TagInput {
	return service.TagInput{Name: r.Name, Color: r.Color, Slug: r.Slug}
}

// ListTags GET /api/tags
func (ctrl *TagController) ListTags(c *gin.Context) {
	tags, err := ctrl.tagService.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err, "list tags")
		return
	}
	c.JSON(http.StatusOK, tags)
}

// GetTag GET /api/tags/:id
func (ctrl *TagController) GetTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tag, err := ctrl.tagService.GetTag(id)
	if err != nil {
		respondError(c, err, "get tag")
		return
	}
	c.JSON(http.StatusOK, tag)
}

// CreateTag POST /api/tags (admin)
func (ctrl *TagController) CreateTag(c *gin.Context) {
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	tag, err := ctrl.tagService.CreateTag(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err, "create tag")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Tag created", map[string]interface{}{
		"tag_id": tag.ID,
		"slug":   tag.Slug,
	})
	c.JSON(http.StatusCreated, tag)
}

// UpdateTag PATCH /api/tags/:id (admin)
func (ctrl *TagController) UpdateTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, err)
		return
	}

	tag, err := ctrl.tagService.UpdateTag(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err, "update tag")
		return
	}
	c.JSON(http.StatusOK, tag)
}

// DeleteTag DELETE /api/tags/:id (admin)
func (ctrl *TagController) DeleteTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.tagService.DeleteTag(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete tag")
		return
	}
	c.Status(http.StatusNoContent)
}
