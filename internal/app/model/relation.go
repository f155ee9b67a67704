package model

import "fmt"

// RelationKind selects one of the user-recipe link tables that share
// add/remove semantics.
type RelationKind string

const (
	RelationFavorite     RelationKind = "favorite"
	RelationShoppingCart RelationKind = "shopping_cart"
)

func (k RelationKind) Valid() bool {
	return k == RelationFavorite || k == RelationShoppingCart
}

func (k RelationKind) TableName() string {
	switch k {
	case RelationFavorite:
		return Favorite{}.TableName()
	case RelationShoppingCart:
		return ShoppingCartItem{}.TableName()
	}
	panic(fmt.Sprintf("unknown relation kind %q", string(k)))
}

// NewRow returns an empty gorm model for the kind's table.
func (k RelationKind) NewRow(userID, recipeID uint) interface{} {
	switch k {
	case RelationFavorite:
		return &Favorite{UserID: userID, RecipeID: recipeID}
	case RelationShoppingCart:
		return &ShoppingCartItem{UserID: userID, RecipeID: recipeID}
	}
	panic(fmt.Sprintf("unknown relation kind %q", string(k)))
}
