package service

import (
	"errors"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	apperrors "github.com/ikkim/foodgram-backend/internal/errors"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

// UnlimitedRecipes disables the recipe preview limit on author cards.
const UnlimitedRecipes = -1

type SubscriptionService interface {
	Subscribe(userID, authorID uint, recipesLimit int) (*AuthorView, error)
	Unsubscribe(userID, authorID uint) error
	ListSubscriptions(userID uint, page Pagination, recipesLimit int) (*Page[AuthorView], error)
}

type subscriptionService struct {
	userRepo   repository.UserRepository
	subRepo    repository.SubscriptionRepository
	recipeRepo repository.RecipeRepository
}

func NewSubscriptionService(
	userRepo repository.UserRepository,
	subRepo repository.SubscriptionRepository,
	recipeRepo repository.RecipeRepository,
) SubscriptionService {
	return &subscriptionService{
		userRepo:   userRepo,
		subRepo:    subRepo,
		recipeRepo: recipeRepo,
	}
}

func (s *subscriptionService) findAuthor(authorID uint) (*model.User, error) {
	author, err := s.userRepo.FindByID(authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return author, nil
}

func (s *subscriptionService) Subscribe(userID, authorID uint, recipesLimit int) (*AuthorView, error) {
	author, err := s.findAuthor(authorID)
	if err != nil {
		return nil, err
	}

	if userID == authorID {
		logger.Warn("Subscription rejected: self subscription", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrSelfSubscription
	}

	exists, err := s.subRepo.Exists(userID, authorID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadySubscribed
	}

	if err := s.subRepo.Create(&model.Subscription{UserID: userID, AuthorID: authorID}); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}

	logger.Info("User subscribed to author", map[string]interface{}{
		"user_id":   userID,
		"author_id": authorID,
	})

	views, err := s.authorViews([]model.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *subscriptionService) Unsubscribe(userID, authorID uint) error {
	if _, err := s.findAuthor(authorID); err != nil {
		return err
	}

	removed, err := s.subRepo.Delete(userID, authorID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrSubscriptionNotFound
	}

	logger.Info("User unsubscribed from author", map[string]interface{}{
		"user_id":   userID,
		"author_id": authorID,
	})
	return nil
}

func (s *subscriptionService) ListSubscriptions(userID uint, page Pagination, recipesLimit int) (*Page[AuthorView], error) {
	authors, total, err := s.subRepo.FindAuthors(userID, page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}

	views, err := s.authorViews(authors, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &Page[AuthorView]{Count: total, Results: views}, nil
}

// authorViews builds cards for authors the viewer is subscribed to.
func (s *subscriptionService) authorViews(authors []model.User, recipesLimit int) ([]AuthorView, error) {
	ids := make([]uint, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	counts, err := s.recipeRepo.CountByAuthors(ids)
	if err != nil {
		return nil, err
	}

	views := make([]AuthorView, len(authors))
	for i := range authors {
		recipes, err := s.recipeRepo.FindPreviewsByAuthor(authors[i].ID, recipesLimit)
		if err != nil {
			return nil, err
		}
		shorts := make([]RecipeShort, len(recipes))
		for j := range recipes {
			shorts[j] = newRecipeShort(&recipes[j])
		}
		views[i] = AuthorView{
			UserView:     newUserView(&authors[i], true),
			RecipesCount: counts[authors[i].ID],
			Recipes:      shorts,
		}
	}
	return views, nil
}
