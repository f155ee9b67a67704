package model

import (
	"time"
)

type ShoppingCartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_shopping_cart_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_shopping_cart_user_recipe;index" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`

	Recipe Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ShoppingCartItem) TableName() string {
	return "shopping_cart_items"
}

// ShoppingListLine is one aggregated row of a user's shopping list.
type ShoppingListLine struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int64  `json:"amount"`
}
