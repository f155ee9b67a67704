package model

import (
	"time"
)

type Recipe struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	AuthorID    uint      `gorm:"not null;uniqueIndex:idx_recipes_author_name" json:"-"`
	Name        string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_recipes_author_name" json:"name"`
	Image       string    `gorm:"type:varchar(500)" json:"image"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CookingTime int       `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1" json:"cooking_time"`
	CreatedAt   time.Time `gorm:"index" json:"pub_date"`
	UpdatedAt   time.Time `json:"-"`

	Author      User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;" json:"-"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"-"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// RecipeIngredient is one ingredient line of a recipe.
type RecipeIngredient struct {
	ID           uint `gorm:"primarykey" json:"id"`
	RecipeID     uint `gorm:"not null;uniqueIndex:idx_recipe_ingredients_recipe_ingredient" json:"recipe_id"`
	IngredientID uint `gorm:"not null;uniqueIndex:idx_recipe_ingredients_recipe_ingredient;index" json:"ingredient_id"`
	Amount       int  `gorm:"not null;check:chk_recipe_ingredients_amount,amount >= 1" json:"amount"`

	Ingredient Ingredient `gorm:"foreignKey:IngredientID" json:"-"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
