package repository

import (
	"testing"

	"github.com/ikkim/foodgram-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngredientRepository_FindAllPrefix(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewIngredientRepository(testDB)

	createIngredient(t, testDB, "Мука", "г")
	createIngredient(t, testDB, "Мука ржаная", "г")
	createIngredient(t, testDB, "Мед", "г")
	createIngredient(t, testDB, "мускатный орех", "г")
	createIngredient(t, testDB, "Сахар", "г")

	names := func(items []model.Ingredient) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.Name
		}
		return out
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"Мук", []string{"Мука", "Мука ржаная"}},
		{"М", []string{"Мед", "Мука", "Мука ржаная"}},
		{"мук", []string{}},
		{"ука", []string{}},
		{"", []string{"Мед", "Мука", "Мука ржаная", "Сахар", "мускатный орех"}},
	}

	for _, tt := range tests {
		t.Run("prefix "+tt.prefix, func(t *testing.T) {
			items, err := repo.FindAll(tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(items))
		})
	}
}

func TestIngredientRepository_BulkCreateSkipsExisting(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewIngredientRepository(testDB)

	createIngredient(t, testDB, "Соль", "г")

	_, err := repo.BulkCreate([]model.Ingredient{
		{Name: "Соль", MeasurementUnit: "кг"},
		{Name: "Перец", MeasurementUnit: "г"},
	})
	require.NoError(t, err)

	all, err := repo.FindAll("")
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, it := range all {
		if it.Name == "Соль" {
			assert.Equal(t, "г", it.MeasurementUnit)
		}
	}
}

func TestIngredientRepository_FindByIDs(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewIngredientRepository(testDB)

	a := createIngredient(t, testDB, "A", "g")
	createIngredient(t, testDB, "B", "g")

	found, err := repo.FindByIDs([]uint{a.ID, 999})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)
}

func TestTagRepository_CRUD(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewTagRepository(testDB)

	dinner := &model.Tag{Name: "Ужин", Color: "#8775D2", Slug: "dinner"}
	breakfast := &model.Tag{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"}
	require.NoError(t, repo.Create(dinner))
	require.NoError(t, repo.Create(breakfast))

	// unique color
	assert.Error(t, repo.Create(&model.Tag{Name: "Other", Color: "#8775D2", Slug: "other"}))

	tags, err := repo.FindAll()
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Завтрак", tags[0].Name)

	dinner.Name = "Поздний ужин"
	require.NoError(t, repo.Update(dinner))
	found, err := repo.FindByID(dinner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Поздний ужин", found.Name)

	byIDs, err := repo.FindByIDs([]uint{dinner.ID, breakfast.ID})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	deleted, err := repo.Delete(dinner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = repo.Delete(dinner.ID)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
