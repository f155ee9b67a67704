package service

import (
	"errors"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

// UserService serves public profiles. viewerID 0 is an anonymous viewer.
type UserService interface {
	GetUser(viewerID, id uint) (*UserView, error)
	Me(userID uint) (*UserView, error)
	ListUsers(viewerID uint, page Pagination) (*Page[UserView], error)
}

type userService struct {
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
}

func NewUserService(userRepo repository.UserRepository, subRepo repository.SubscriptionRepository) UserService {
	return &userService{userRepo: userRepo, subRepo: subRepo}
}

func (s *userService) GetUser(viewerID, id uint) (*UserView, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	subscribed := false
	if viewerID != 0 && viewerID != id {
		subscribed, err = s.subRepo.Exists(viewerID, id)
		if err != nil {
			return nil, err
		}
	}

	view := newUserView(user, subscribed)
	return &view, nil
}

func (s *userService) Me(userID uint) (*UserView, error) {
	return s.GetUser(userID, userID)
}

func (s *userService) ListUsers(viewerID uint, page Pagination) (*Page[UserView], error) {
	users, total, err := s.userRepo.List(page.Offset(), page.Limit)
	if err != nil {
		logger.Error("Failed to list users", err)
		return nil, err
	}

	subscribed, err := s.subscribedAmong(viewerID, users)
	if err != nil {
		return nil, err
	}

	results := make([]UserView, len(users))
	for i := range users {
		results[i] = newUserView(&users[i], subscribed[users[i].ID])
	}
	return &Page[UserView]{Count: total, Results: results}, nil
}

func (s *userService) subscribedAmong(viewerID uint, users []model.User) (map[uint]bool, error) {
	if viewerID == 0 || len(users) == 0 {
		return map[uint]bool{}, nil
	}
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return s.subRepo.SubscribedAmong(viewerID, ids)
}
