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
	"gorm.io/gorm"
)

const (
	tagListCacheKey = "tags:all"
	tagListCacheTTL = time.Hour
)

// Cache is a JSON key/value cache. Implemented by *redis.Store.
type Cache interface {
	GetJSON(ctx context.Context, name string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, name string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, names ...string) error
}

type TagInput struct {
	Name  string
	Color string
	Slug  string
}

type TagService interface {
	ListTags(ctx context.Context) ([]model.Tag, error)
	GetTag(id uint) (*model.Tag, error)
	CreateTag(ctx context.Context, input TagInput) (*model.Tag, error)
	UpdateTag(ctx context.Context, id uint, input TagInput) (*model.Tag, error)
	DeleteTag(ctx context.Context, id uint) error
	// RefreshCache reloads the cached tag list from the database.
	RefreshCache(ctx context.Context) error
}

type tagService struct {
	tagRepo repository.TagRepository
	cache   Cache
}

// NewTagService builds the tag service; cache may be nil.
func NewTagService(tagRepo repository.TagRepository, cache Cache) TagService {
	return &tagService{tagRepo: tagRepo, cache: cache}
}

func validateTag(input TagInput) error {
	v := &validator{}
	v.check(input.Name != "" && utf8.RuneCountInString(input.Name) <= 200, "name", "Name is required and must be at most 200 characters")
	v.check(model.TagColorPattern.MatchString(input.Color), "color", "Color must be a hex code like #E26C2D")
	v.check(model.TagSlugPattern.MatchString(input.Slug), "slug", "Slug may contain only letters, digits, hyphens and underscores")
	return v.err()
}

func (s *tagService) ListTags(ctx context.Context) ([]model.Tag, error) {
	if s.cache != nil {
		var cached []model.Tag
		if ok, err := s.cache.GetJSON(ctx, tagListCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	tags, err := s.tagRepo.FindAll()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, tagListCacheKey, tags, tagListCacheTTL); err != nil {
			logger.Warn("Failed to cache tag list", map[string]interface{}{"error": err.Error()})
		}
	}
	return tags, nil
}

func (s *tagService) GetTag(id uint) (*model.Tag, error) {
	tag, err := s.tagRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return tag, nil
}

func (s *tagService) CreateTag(ctx context.Context, input TagInput) (*model.Tag, error) {
	input.Color = strings.ToUpper(input.Color)
	if err := validateTag(input); err != nil {
		return nil, err
	}

	tag := &model.Tag{Name: input.Name, Color: input.Color, Slug: input.Slug}
	if err := s.tagRepo.Create(tag); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrTagAlreadyExists
		}
		return nil, err
	}

	logger.Info("Tag created", map[string]interface{}{
		"tag_id": tag.ID,
		"slug":   tag.Slug,
	})
	s.invalidate(ctx)
	return tag, nil
}

func (s *tagService) UpdateTag(ctx context.Context, id uint, input TagInput) (*model.Tag, error) {
	tag, err := s.GetTag(id)
	if err != nil {
		return nil, err
	}

	input.Color = strings.ToUpper(input.Color)
	if err := validateTag(input); err != nil {
		return nil, err
	}

	tag.Name, tag.Color, tag.Slug = input.Name, input.Color, input.Slug
	if err := s.tagRepo.Update(tag); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrTagAlreadyExists
		}
		return nil, err
	}

	logger.Info("Tag updated", map[string]interface{}{"tag_id": tag.ID})
	s.invalidate(ctx)
	return tag, nil
}

func (s *tagService) DeleteTag(ctx context.Context, id uint) error {
	deleted, err := s.tagRepo.Delete(id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrTagNotFound
	}

	logger.Info("Tag deleted", map[string]interface{}{"tag_id": id})
	s.invalidate(ctx)
	return nil
}

func (s *tagService) RefreshCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	tags, err := s.tagRepo.FindAll()
	if err != nil {
		return err
	}
	if err := s.cache.SetJSON(ctx, tagListCacheKey, tags, tagListCacheTTL); err != nil {
		return err
	}
	logger.Debug("Tag cache refreshed", map[string]interface{}{"count": len(tags)})
	return nil
}

func (s *tagService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, tagListCacheKey); err != nil {
		logger.Warn("Failed to invalidate tag cache", map[string]interface{}{"error": err.Error()})
	}
}
