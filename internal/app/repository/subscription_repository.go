package repository

import (
	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Create(sub *model.Subscription) error
	Delete(userID, authorID uint) (int64, error)
	Exists(userID, authorID uint) (bool, error)
	// SubscribedAmong returns which of authorIDs userID follows.
	SubscribedAmong(userID uint, authorIDs []uint) (map[uint]bool, error)
	FindAuthors(userID uint, offset, limit int) ([]model.User, int64, error)
	FollowerIDs(authorID uint) ([]uint, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(sub *model.Subscription) error {
	logger.Debug("Creating subscription in database", map[string]interface{}{
		"user_id":   sub.UserID,
		"author_id": sub.AuthorID,
	})

	if err := r.db.Create(sub).Error; err != nil {
		logger.Error("Failed to create subscription in database", err, map[string]interface{}{
			"user_id":   sub.UserID,
			"author_id": sub.AuthorID,
		})
		return err
	}
	return nil
}

func (r *subscriptionRepository) Delete(userID, authorID uint) (int64, error) {
	logger.Debug("Deleting subscription from database", map[string]interface{}{
		"user_id":   userID,
		"author_id": authorID,
	})

	result := r.db.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&model.Subscription{})
	if result.Error != nil {
		logger.Error("Failed to delete subscription from database", result.Error, map[string]interface{}{
			"user_id":   userID,
			"author_id": authorID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *subscriptionRepository) Exists(userID, authorID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Subscription{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to check subscription", err, map[string]interface{}{
			"user_id":   userID,
			"author_id": authorID,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *subscriptionRepository) SubscribedAmong(userID uint, authorIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(authorIDs))
	if len(authorIDs) == 0 {
		return result, nil
	}

	var ids []uint
	err := r.db.Model(&model.Subscription{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		logger.Error("Failed to load subscriptions", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *subscriptionRepository) FindAuthors(userID uint, offset, limit int) ([]model.User, int64, error) {
	logger.Debug("Finding subscribed authors", map[string]interface{}{
		"user_id": userID,
		"offset":  offset,
		"limit":   limit,
	})

	var total int64
	if err := r.db.Model(&model.Subscription{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		logger.Error("Failed to count subscriptions", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, 0, err
	}

	var authors []model.User
	err := r.db.Model(&model.User{}).
		Select("users.*").
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Order("subscriptions.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&authors).Error
	if err != nil {
		logger.Error("Failed to find subscribed authors", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, 0, err
	}

	logger.Debug("Subscribed authors found", map[string]interface{}{
		"user_id": userID,
		"count":   len(authors),
	})
	return authors, total, nil
}

func (r *subscriptionRepository) FollowerIDs(authorID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.Subscription{}).Where("author_id = ?", authorID).Pluck("user_id", &ids).Error
	if err != nil {
		logger.Error("Failed to load followers", err, map[string]interface{}{
			"author_id": authorID,
		})
		return nil, err
	}
	return ids, nil
}
