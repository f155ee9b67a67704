package model

import "regexp"

var (
	TagSlugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	TagColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Tag is a recipe label such as "breakfast". Listed ordered by name.
type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	Color string `gorm:"type:varchar(7);uniqueIndex;not null" json:"color"` // #RRGGBB
	Slug  string `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`
}

func (Tag) TableName() string {
	return "tags"
}

// Ingredient is a catalog entry; amounts live on RecipeIngredient.
type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	MeasurementUnit string `gorm:"type:varchar(200);not null" json:"measurement_unit"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}
