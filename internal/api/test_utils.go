package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/storage"
	"github.com/foodgram/backend/internal/types"
)

var testDBCounter atomic.Int64

// testEnv bundles the wired application against an in-memory database.
type testEnv struct {
	DB         *gorm.DB
	Auth       *service.AuthService
	Recipes    *service.RecipeService
	Membership *service.MembershipService
	Router     *gin.Engine
	MediaRoot  string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	log := logrus.New()
	log.SetOutput(io.Discard)

	mediaRoot := t.TempDir()
	auth := service.NewAuthService(db, "test-secret")
	images := service.NewImageService(storage.NewLocalStore(mediaRoot, "/media"))
	recipes := service.NewRecipeService(db, images, log)
	membership := service.NewMembershipService(db)
	shopping := service.NewShoppingListService(db, mediaRoot)

	// Routes are mounted here rather than through the router package to keep
	// the test wiring explicit.
	engine := gin.New()
	v1 := engine.Group("/api/v1")
	NewAuthHandler(auth).RegisterRoutes(v1)
	NewUserHandler(db, auth, membership).RegisterRoutes(v1, auth)
	NewRecipeHandler(recipes, membership, shopping, auth).RegisterRoutes(v1, auth, nil)
	NewCatalogHandler(db).RegisterRoutes(v1)

	return &testEnv{
		DB:         db,
		Auth:       auth,
		Recipes:    recipes,
		Membership: membership,
		Router:     engine,
		MediaRoot:  mediaRoot,
	}
}

// registerUser creates an account through the service layer and returns the
// user with a valid token.
func (e *testEnv) registerUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user, err := e.Auth.Register(context.Background(), &types.RegisterRequest{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "testpassword123",
	})
	require.NoError(t, err)

	token, err := e.Auth.GenerateToken(&types.TokenClaims{UserID: user.ID, Username: user.Username})
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) seedCatalog(t *testing.T) (models.Tag, models.Ingredient) {
	t.Helper()
	tag := models.Tag{Name: "Dinner", Color: "#8775D2", Slug: "dinner"}
	require.NoError(t, e.DB.Create(&tag).Error)
	ingredient := models.Ingredient{Name: "salt", MeasurementUnit: "g"}
	require.NoError(t, e.DB.Create(&ingredient).Error)
	return tag, ingredient
}

// performRequest issues an HTTP request against the test router. An empty
// token leaves the request anonymous.
func performRequest(router *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}
