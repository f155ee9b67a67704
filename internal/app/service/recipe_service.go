package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	apperrors "github.com/ikkim/foodgram-backend/internal/errors"
	"github.com/ikkim/foodgram-backend/internal/metrics"
	"github.com/ikkim/foodgram-backend/pkg/logger"
	"github.com/ikkim/foodgram-backend/pkg/util"
	"gorm.io/gorm"
)

// EventRecipeCreated is pushed to the author's followers.
const EventRecipeCreated = "recipe_created"

const recipeImageFolder = "recipes/"

// ImageStore persists recipe images and recognises the URLs it serves.
type ImageStore interface {
	Save(ctx context.Context, key string, img *util.DecodedImage) (string, error)
	// KeyFromURL returns the object key of url when this store serves it.
	KeyFromURL(url string) (string, bool)
	Delete(ctx context.Context, key string) error
}

// FeedPublisher delivers live events to connected users.
type FeedPublisher interface {
	SendToUsers(userIDs []uint, eventType string, payload interface{})
}

// Actor is the authenticated caller of a write operation.
type Actor struct {
	UserID  uint
	IsAdmin bool
}

type IngredientLine struct {
	ID     uint
	Amount int
}

// RecipeInput carries a create or partial update. Nil scalars keep the
// stored value on update; tags and ingredients are always required.
type RecipeInput struct {
	Name        *string
	Text        *string
	CookingTime *int
	Image       *string // base64 data URI
	Tags        []uint
	Ingredients []IngredientLine
}

// RecipeQuery is the public list filter.
type RecipeQuery struct {
	TagSlugs         []string
	AuthorID         *uint
	Name             string
	IsFavorited      bool
	IsInShoppingCart bool
}

type RecipeService interface {
	CreateRecipe(ctx context.Context, authorID uint, input RecipeInput) (*RecipeView, error)
	UpdateRecipe(ctx context.Context, actor Actor, id uint, input RecipeInput) (*RecipeView, error)
	DeleteRecipe(ctx context.Context, actor Actor, id uint) error
	GetRecipe(viewerID, id uint) (*RecipeView, error)
	ListRecipes(viewerID uint, query RecipeQuery, page Pagination) (*Page[RecipeView], error)
}

type recipeService struct {
	recipeRepo     repository.RecipeRepository
	tagRepo        repository.TagRepository
	ingredientRepo repository.IngredientRepository
	relationRepo   repository.RelationRepository
	subRepo        repository.SubscriptionRepository
	images         ImageStore
	feed           FeedPublisher
}

// NewRecipeService builds the recipe service; feed may be nil.
func NewRecipeService(
	recipeRepo repository.RecipeRepository,
	tagRepo repository.TagRepository,
	ingredientRepo repository.IngredientRepository,
	relationRepo repository.RelationRepository,
	subRepo repository.SubscriptionRepository,
	images ImageStore,
	feed FeedPublisher,
) RecipeService {
	return &recipeService{
		recipeRepo:     recipeRepo,
		tagRepo:        tagRepo,
		ingredientRepo: ingredientRepo,
		relationRepo:   relationRepo,
		subRepo:        subRepo,
		images:         images,
		feed:           feed,
	}
}

func validateRecipe(input RecipeInput, creating bool) error {
	v := &validator{}

	if input.Name != nil || creating {
		name := ""
		if input.Name != nil {
			name = strings.TrimSpace(*input.Name)
		}
		v.check(name != "" && utf8.RuneCountInString(name) <= 200, "name", "Name is required and must be at most 200 characters")
	}
	if input.Text != nil || creating {
		v.check(input.Text != nil && strings.TrimSpace(*input.Text) != "", "text", "Text is required")
	}
	if input.CookingTime != nil || creating {
		v.check(input.CookingTime != nil && *input.CookingTime >= 1, "cooking_time", "Cooking time must be at least 1 minute")
	}
	if creating {
		v.check(input.Image != nil && *input.Image != "", "image", "Image is required")
	}

	v.check(len(input.Tags) > 0, "tags", "At least one tag is required")
	seenTags := make(map[uint]bool, len(input.Tags))
	for _, id := range input.Tags {
		v.check(!seenTags[id], "tags", "Tags must not repeat")
		seenTags[id] = true
	}

	v.check(len(input.Ingredients) > 0, "ingredients", "At least one ingredient is required")
	seenIngredients := make(map[uint]bool, len(input.Ingredients))
	for _, line := range input.Ingredients {
		v.check(!seenIngredients[line.ID], "ingredients", "Ingredients must not repeat")
		v.check(line.Amount >= 1, "ingredients", "Ingredient amount must be at least 1")
		seenIngredients[line.ID] = true
	}

	return v.err()
}

// resolveCatalog loads the referenced tags and checks every ingredient exists.
func (s *recipeService) resolveCatalog(input RecipeInput) ([]model.Tag, []model.RecipeIngredient, error) {
	tags, err := s.tagRepo.FindByIDs(input.Tags)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) != len(input.Tags) {
		return nil, nil, ErrTagNotFound
	}

	ids := make([]uint, len(input.Ingredients))
	for i, line := range input.Ingredients {
		ids[i] = line.ID
	}
	found, err := s.ingredientRepo.FindByIDs(ids)
	if err != nil {
		return nil, nil, err
	}
	if len(found) != len(ids) {
		return nil, nil, ErrIngredientNotFound
	}

	lines := make([]model.RecipeIngredient, len(input.Ingredients))
	for i, line := range input.Ingredients {
		lines[i] = model.RecipeIngredient{IngredientID: line.ID, Amount: line.Amount}
	}
	return tags, lines, nil
}

func (s *recipeService) storeImage(ctx context.Context, dataURI string) (string, error) {
	img, err := util.DecodeBase64Image(dataURI)
	if err != nil {
		return "", &ValidationError{Fields: map[string]string{"image": err.Error()}}
	}
	key := recipeImageFolder + uuid.New().String() + img.Extension
	url, err := s.images.Save(ctx, key, img)
	if err != nil {
		logger.Error("Failed to store recipe image", err, map[string]interface{}{
			"key": key,
		})
		return "", err
	}
	return url, nil
}

// resolveImage accepts a base64 data URI, which is stored now, or the URL of
// an image already uploaded to the store. stored reports the former.
func (s *recipeService) resolveImage(ctx context.Context, image string) (string, bool, error) {
	if strings.HasPrefix(image, "data:") {
		url, err := s.storeImage(ctx, image)
		return url, err == nil, err
	}
	key, ok := s.images.KeyFromURL(image)
	if !ok || !strings.HasPrefix(key, recipeImageFolder) || !util.HasImageExtension(key) {
		return "", false, &ValidationError{Fields: map[string]string{
			"image": "Image must be a base64 data URI or the URL of an uploaded image",
		}}
	}
	return image, false, nil
}

// discardImage removes url from the store once no recipe references it.
func (s *recipeService) discardImage(ctx context.Context, url string) {
	key, ok := s.images.KeyFromURL(url)
	if !ok {
		return
	}
	used, err := s.recipeRepo.CountByImage(url)
	if err != nil || used > 0 {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logger.Warn("Failed to remove recipe image", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (s *recipeService) CreateRecipe(ctx context.Context, authorID uint, input RecipeInput) (*RecipeView, error) {
	logger.Info("Creating recipe", map[string]interface{}{
		"author_id": authorID,
	})

	if err := validateRecipe(input, true); err != nil {
		return nil, err
	}
	tags, lines, err := s.resolveCatalog(input)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(*input.Name)
	taken, err := s.recipeRepo.ExistsByAuthorAndName(authorID, name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrRecipeNameTaken
	}

	imageURL, stored, err := s.resolveImage(ctx, *input.Image)
	if err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		AuthorID:    authorID,
		Name:        name,
		Image:       imageURL,
		Text:        *input.Text,
		CookingTime: *input.CookingTime,
	}
	err = s.recipeRepo.Transaction(func(tx repository.RecipeRepository) error {
		if err := tx.Create(recipe); err != nil {
			return err
		}
		if err := tx.ReplaceTags(recipe.ID, tags); err != nil {
			return err
		}
		return tx.ReplaceIngredients(recipe.ID, lines)
	})
	if err != nil {
		if stored {
			s.discardImage(ctx, imageURL)
		}
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrRecipeNameTaken
		}
		return nil, err
	}

	metrics.RecipesCreated.Inc()
	logger.Info("Recipe created", map[string]interface{}{
		"recipe_id": recipe.ID,
		"author_id": authorID,
	})

	view, err := s.GetRecipe(authorID, recipe.ID)
	if err != nil {
		return nil, err
	}
	s.notifyFollowers(authorID, view)
	return view, nil
}

func (s *recipeService) notifyFollowers(authorID uint, view *RecipeView) {
	if s.feed == nil {
		return
	}
	followers, err := s.subRepo.FollowerIDs(authorID)
	if err != nil {
		logger.Warn("Failed to load followers for feed", map[string]interface{}{
			"author_id": authorID,
			"error":     err.Error(),
		})
		return
	}
	if len(followers) == 0 {
		return
	}
	s.feed.SendToUsers(followers, EventRecipeCreated, map[string]interface{}{
		"recipe": RecipeShort{ID: view.ID, Name: view.Name, Image: view.Image, CookingTime: view.CookingTime},
		"author": map[string]interface{}{"id": view.Author.ID, "username": view.Author.Username},
	})
}

func (s *recipeService) findRecipe(id uint) (*model.Recipe, error) {
	recipe, err := s.recipeRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) UpdateRecipe(ctx context.Context, actor Actor, id uint, input RecipeInput) (*RecipeView, error) {
	recipe, err := s.findRecipe(id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != actor.UserID && !actor.IsAdmin {
		logger.Warn("Recipe update rejected: not the author", map[string]interface{}{
			"recipe_id": id,
			"user_id":   actor.UserID,
		})
		return nil, ErrNotRecipeAuthor
	}

	if err := validateRecipe(input, false); err != nil {
		return nil, err
	}
	tags, lines, err := s.resolveCatalog(input)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		taken, err := s.recipeRepo.ExistsByAuthorAndName(recipe.AuthorID, name, recipe.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrRecipeNameTaken
		}
		recipe.Name = name
	}
	if input.Text != nil {
		recipe.Text = *input.Text
	}
	if input.CookingTime != nil {
		recipe.CookingTime = *input.CookingTime
	}
	previousImage := recipe.Image
	stored := false
	if input.Image != nil && *input.Image != "" {
		url, newlyStored, err := s.resolveImage(ctx, *input.Image)
		if err != nil {
			return nil, err
		}
		recipe.Image, stored = url, newlyStored
	}

	err = s.recipeRepo.Transaction(func(tx repository.RecipeRepository) error {
		if err := tx.UpdateFields(recipe); err != nil {
			return err
		}
		if err := tx.ReplaceTags(recipe.ID, tags); err != nil {
			return err
		}
		return tx.ReplaceIngredients(recipe.ID, lines)
	})
	if err != nil {
		if stored {
			s.discardImage(ctx, recipe.Image)
		}
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrRecipeNameTaken
		}
		return nil, err
	}
	if recipe.Image != previousImage {
		s.discardImage(ctx, previousImage)
	}

	logger.Info("Recipe updated", map[string]interface{}{
		"recipe_id": recipe.ID,
		"user_id":   actor.UserID,
	})
	return s.GetRecipe(actor.UserID, recipe.ID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, actor Actor, id uint) error {
	recipe, err := s.findRecipe(id)
	if err != nil {
		return err
	}
	if recipe.AuthorID != actor.UserID && !actor.IsAdmin {
		logger.Warn("Recipe delete rejected: not the author", map[string]interface{}{
			"recipe_id": id,
			"user_id":   actor.UserID,
		})
		return ErrNotRecipeAuthor
	}

	err = s.recipeRepo.Transaction(func(tx repository.RecipeRepository) error {
		return tx.Delete(id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	s.discardImage(ctx, recipe.Image)

	logger.Info("Recipe deleted", map[string]interface{}{
		"recipe_id": id,
		"user_id":   actor.UserID,
	})
	return nil
}

func (s *recipeService) GetRecipe(viewerID, id uint) (*RecipeView, error) {
	recipe, err := s.findRecipe(id)
	if err != nil {
		return nil, err
	}

	recipes := []model.Recipe{*recipe}
	marks, err := s.viewerMarks(viewerID, recipes)
	if err != nil {
		return nil, err
	}
	view := newRecipeView(recipe, marks)
	return &view, nil
}

func (s *recipeService) ListRecipes(viewerID uint, query RecipeQuery, page Pagination) (*Page[RecipeView], error) {
	filter := repository.RecipeFilter{
		TagSlugs: query.TagSlugs,
		AuthorID: query.AuthorID,
		Name:     query.Name,
		Limit:    page.Limit,
		Offset:   page.Offset(),
	}
	// relation filters only make sense for a known viewer
	if viewerID != 0 {
		if query.IsFavorited {
			filter.FavoritedBy = &viewerID
		}
		if query.IsInShoppingCart {
			filter.InCartOf = &viewerID
		}
	}

	recipes, total, err := s.recipeRepo.FindWithFilter(filter)
	if err != nil {
		return nil, err
	}

	marks, err := s.viewerMarks(viewerID, recipes)
	if err != nil {
		return nil, err
	}

	results := make([]RecipeView, len(recipes))
	for i := range recipes {
		results[i] = newRecipeView(&recipes[i], marks)
	}
	return &Page[RecipeView]{Count: total, Results: results}, nil
}

func (s *recipeService) viewerMarks(viewerID uint, recipes []model.Recipe) (viewerMarks, error) {
	marks := viewerMarks{
		favorited:  map[uint]bool{},
		inCart:     map[uint]bool{},
		subscribed: map[uint]bool{},
	}
	if viewerID == 0 || len(recipes) == 0 {
		return marks, nil
	}

	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs = append(authorIDs, r.AuthorID)
	}

	var err error
	if marks.favorited, err = s.relationRepo.MarkedAmong(model.RelationFavorite, viewerID, recipeIDs); err != nil {
		return marks, err
	}
	if marks.inCart, err = s.relationRepo.MarkedAmong(model.RelationShoppingCart, viewerID, recipeIDs); err != nil {
		return marks, err
	}
	if marks.subscribed, err = s.subRepo.SubscribedAmong(viewerID, authorIDs); err != nil {
		return marks, err
	}
	return marks, nil
}
