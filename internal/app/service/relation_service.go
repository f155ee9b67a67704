package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	apperrors "github.com/ikkim/foodgram-backend/internal/errors"
	"github.com/ikkim/foodgram-backend/internal/metrics"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

// RelationService adds and removes recipes from a user's favorites or
// shopping cart. Both lists behave the same way.
type RelationService interface {
	Add(kind model.RelationKind, userID, recipeID uint) (*RecipeShort, error)
	Remove(kind model.RelationKind, userID, recipeID uint) error
}

type relationService struct {
	recipeRepo   repository.RecipeRepository
	relationRepo repository.RelationRepository
}

func NewRelationService(recipeRepo repository.RecipeRepository, relationRepo repository.RelationRepository) RelationService {
	return &relationService{recipeRepo: recipeRepo, relationRepo: relationRepo}
}

func (s *relationService) findRecipe(recipeID uint) (*model.Recipe, error) {
	recipe, err := s.recipeRepo.FindByID(recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (s *relationService) Add(kind model.RelationKind, userID, recipeID uint) (*RecipeShort, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown relation kind %q", kind)
	}

	recipe, err := s.findRecipe(recipeID)
	if err != nil {
		return nil, err
	}

	exists, err := s.relationRepo.Exists(kind, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Warn("Relation already exists", map[string]interface{}{
			"relation":  kind,
			"user_id":   userID,
			"recipe_id": recipeID,
		})
		return nil, ErrRelationAlreadyExists
	}

	if err := s.relationRepo.Add(kind, userID, recipeID); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrRelationAlreadyExists
		}
		return nil, err
	}

	metrics.RelationChanges.WithLabelValues(string(kind), "add").Inc()
	logger.Info("Recipe added to relation", map[string]interface{}{
		"relation":  kind,
		"user_id":   userID,
		"recipe_id": recipeID,
	})

	short := newRecipeShort(recipe)
	return &short, nil
}

func (s *relationService) Remove(kind model.RelationKind, userID, recipeID uint) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown relation kind %q", kind)
	}

	if _, err := s.findRecipe(recipeID); err != nil {
		return err
	}

	removed, err := s.relationRepo.Remove(kind, userID, recipeID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrRelationNotFound
	}

	metrics.RelationChanges.WithLabelValues(string(kind), "remove").Inc()
	logger.Info("Recipe removed from relation", map[string]interface{}{
		"relation":  kind,
		"user_id":   userID,
		"recipe_id": recipeID,
	})
	return nil
}
