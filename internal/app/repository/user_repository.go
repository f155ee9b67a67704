package repository

import (
	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	ExistsByEmail(email string) (bool, error)
	ExistsByUsername(username string) (bool, error)
	List(offset, limit int) ([]model.User, int64, error)
	UpdatePassword(id uint, passwordHash string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email":    user.Email,
		"username": user.Username,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	logger.Debug("Finding user by ID in database", map[string]interface{}{
		"user_id": id,
	})

	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		logger.Error("Failed to find user by ID in database", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	logger.Debug("Finding user by email in database", map[string]interface{}{
		"email": email,
	})

	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		logger.Error("Failed to find user by email in database", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmail(email string) (bool, error) {
	return r.exists("email = ?", email)
}

func (r *userRepository) ExistsByUsername(username string) (bool, error) {
	return r.exists("username = ?", username)
}

func (r *userRepository) exists(cond string, arg interface{}) (bool, error) {
	var count int64
	if err := r.db.Model(&model.User{}).Where(cond, arg).Count(&count).Error; err != nil {
		logger.Error("Failed to check user existence", err, map[string]interface{}{
			"condition": cond,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) List(offset, limit int) ([]model.User, int64, error) {
	logger.Debug("Listing users in database", map[string]interface{}{
		"offset": offset,
		"limit":  limit,
	})

	var total int64
	if err := r.db.Model(&model.User{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count users", err)
		return nil, 0, err
	}

	var users []model.User
	if err := r.db.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		logger.Error("Failed to list users", err)
		return nil, 0, err
	}

	logger.Debug("Users listed", map[string]interface{}{
		"count": len(users),
		"total": total,
	})
	return users, total, nil
}

func (r *userRepository) UpdatePassword(id uint, passwordHash string) error {
	logger.Debug("Updating user password", map[string]interface{}{
		"user_id": id,
	})

	result := r.db.Model(&model.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if result.Error != nil {
		logger.Error("Failed to update user password", result.Error, map[string]interface{}{
			"user_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
