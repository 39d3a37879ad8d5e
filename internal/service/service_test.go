package service

import (
	"encoding/base64"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/types"
)

var testDBCounter atomic.Int64

// newTestDB opens a fresh in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestRecipeService wires a RecipeService against a temp-dir file store.
func newTestRecipeService(t *testing.T, db *gorm.DB) (*RecipeService, string) {
	t.Helper()
	mediaRoot := t.TempDir()
	images := NewImageService(storage.NewLocalStore(mediaRoot, "/media"))
	return NewRecipeService(db, images, quietLogger()), mediaRoot
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("testpassword123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hashed),
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTag(t *testing.T, db *gorm.DB, name, color, slug string) models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, Color: color, Slug: slug}
	require.NoError(t, db.Create(&tag).Error)
	return tag
}

func createIngredient(t *testing.T, db *gorm.DB, name, unit string) models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ingredient).Error)
	return ingredient
}

func pngDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not-a-real-png"))
}

// validRecipeInput builds a minimal passing write payload.
func validRecipeInput(tag models.Tag, ingredient models.Ingredient) *types.RecipeInput {
	return &types.RecipeInput{
		Name:        "Borscht",
		Text:        "Simmer everything.",
		CookingTime: 45,
		Image:       pngDataURI(),
		Tags:        []uuid.UUID{tag.ID},
		Ingredients: []types.IngredientEntry{{ID: ingredient.ID, Amount: 2}},
	}
}
