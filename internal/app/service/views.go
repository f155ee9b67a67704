package service

import (
	"time"

	"github.com/ikkim/foodgram-backend/internal/app/model"
)

// Page is the paginated list envelope.
type Page[T any] struct {
	Count   int64 `json:"count"`
	Results []T   `json:"results"`
}

// Pagination is a validated page request.
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

type UserView struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

func newUserView(u *model.User, subscribed bool) UserView {
	return UserView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// RecipeShort is the compact card used by relations and subscriptions.
type RecipeShort struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func newRecipeShort(r *model.Recipe) RecipeShort {
	return RecipeShort{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// AuthorView is a followed author with a recipe preview.
type AuthorView struct {
	UserView
	RecipesCount int64         `json:"recipes_count"`
	Recipes      []RecipeShort `json:"recipes"`
}

type IngredientAmount struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeView struct {
	ID               uint               `json:"id"`
	Tags             []model.Tag        `json:"tags"`
	Author           UserView           `json:"author"`
	Ingredients      []IngredientAmount `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
	PubDate          time.Time          `json:"pub_date"`
}

// viewerMarks are the per-viewer flags attached to recipe views.
type viewerMarks struct {
	favorited  map[uint]bool
	inCart     map[uint]bool
	subscribed map[uint]bool
}

func newRecipeView(r *model.Recipe, marks viewerMarks) RecipeView {
	tags := r.Tags
	if tags == nil {
		tags = []model.Tag{}
	}
	ingredients := make([]IngredientAmount, len(r.Ingredients))
	for i, ri := range r.Ingredients {
		ingredients[i] = IngredientAmount{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		}
	}
	return RecipeView{
		ID:               r.ID,
		Tags:             tags,
		Author:           newUserView(&r.Author, marks.subscribed[r.AuthorID]),
		Ingredients:      ingredients,
		IsFavorited:      marks.favorited[r.ID],
		IsInShoppingCart: marks.inCart[r.ID],
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		PubDate:          r.CreatedAt,
	}
}
