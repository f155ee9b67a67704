package db

import (
	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Subscription{},
		&model.Tag{},
		&model.Ingredient{},
		&model.Recipe{},
		&model.RecipeIngredient{},
		&model.Favorite{},
		&model.ShoppingCartItem{},
	}
}

// DefaultTags are created on an empty database.
var DefaultTags = []model.Tag{
	{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
	{Name: "Обед", Color: "#49B64E", Slug: "lunch"},
	{Name: "Ужин", Color: "#8775D2", Slug: "dinner"},
}

// Migrate runs AutoMigrate against the global connection and seeds tags.
func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedTags(conn); err != nil {
		logger.Error("Failed to seed tags", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

func seedTags(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&model.Tag{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Tags already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	tags := make([]model.Tag, len(DefaultTags))
	copy(tags, DefaultTags)
	if err := conn.Create(&tags).Error; err != nil {
		return err
	}

	logger.Info("Tags seeded successfully", map[string]interface{}{
		"total_tags": len(tags),
	})
	return nil
}
