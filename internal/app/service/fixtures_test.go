package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	"github.com/ikkim/foodgram-backend/internal/db"
	"github.com/ikkim/foodgram-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 1x1 transparent PNG
const pngBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

var testImage = "data:image/png;base64," + pngBase64

type fakeImageStore struct {
	saved map[string][]byte
}

const fakeMediaPrefix = "/media/"

func (f *fakeImageStore) Save(_ context.Context, key string, img *util.DecodedImage) (string, error) {
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.saved[key] = img.Data
	return fakeMediaPrefix + key, nil
}

func (f *fakeImageStore) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, fakeMediaPrefix)
	return key, ok && key != ""
}

func (f *fakeImageStore) Delete(_ context.Context, key string) error {
	delete(f.saved, key)
	return nil
}

// has reports whether url still points at a stored image.
func (f *fakeImageStore) has(url string) bool {
	key, ok := f.KeyFromURL(url)
	_, stored := f.saved[key]
	return ok && stored
}

type sentEvent struct {
	userIDs   []uint
	eventType string
	payload   interface{}
}

type fakeFeed struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakeFeed) SendToUsers(userIDs []uint, eventType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{userIDs: userIDs, eventType: eventType, payload: payload})
}

type serviceFixture struct {
	db            *gorm.DB
	recipes       RecipeService
	relations     RelationService
	shoppingList  ShoppingListService
	subscriptions SubscriptionService
	users         UserService
	images        *fakeImageStore
	feed          *fakeFeed
}

func setupServices(t *testing.T) *serviceFixture {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	userRepo := repository.NewUserRepository(testDB)
	subRepo := repository.NewSubscriptionRepository(testDB)
	recipeRepo := repository.NewRecipeRepository(testDB)
	relationRepo := repository.NewRelationRepository(testDB)

	images := &fakeImageStore{}
	feed := &fakeFeed{}
	return &serviceFixture{
		db: testDB,
		recipes: NewRecipeService(
			recipeRepo,
			repository.NewTagRepository(testDB),
			repository.NewIngredientRepository(testDB),
			relationRepo,
			subRepo,
			images,
			feed,
		),
		relations:     NewRelationService(recipeRepo, relationRepo),
		shoppingList:  NewShoppingListService(relationRepo),
		subscriptions: NewSubscriptionService(userRepo, subRepo, recipeRepo),
		users:         NewUserService(userRepo, subRepo),
		images:        images,
		feed:          feed,
	}
}

func (f *serviceFixture) user(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    username,
		LastName:     "Test",
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *serviceFixture) tag(t *testing.T, name, color, slug string) *model.Tag {
	t.Helper()
	tag := &model.Tag{Name: name, Color: color, Slug: slug}
	require.NoError(t, f.db.Create(tag).Error)
	return tag
}

func (f *serviceFixture) ingredient(t *testing.T, name, unit string) *model.Ingredient {
	t.Helper()
	ing := &model.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, f.db.Create(ing).Error)
	return ing
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func recipeInput(name string, tags []uint, lines ...IngredientLine) RecipeInput {
	return RecipeInput{
		Name:        strPtr(name),
		Text:        strPtr("Смешать и запечь"),
		CookingTime: intPtr(30),
		Image:       strPtr(testImage),
		Tags:        tags,
		Ingredients: lines,
	}
}
