package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/storage"
)

// TestEndToEndPostgres runs the full stack against a real postgres: SQL
// migrations, registration, login, recipe creation, favoriting, cart and the
// shopping list download. Skipped when docker is unavailable.
func TestEndToEndPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{
		DBHost:     host,
		DBPort:     mappedPort.Port(),
		DBUser:     "testuser",
		DBPassword: "testpass",
		DBName:     "testdb",
		DBSSLMode:  "disable",
	}
	db, err := database.New(cfg, log)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db, "../../migrations", log))

	// Reruns must be no-ops.
	require.NoError(t, database.RunMigrations(db, "../../migrations", log))

	mediaRoot := t.TempDir()
	auth := service.NewAuthService(db, "integration-secret")
	images := service.NewImageService(storage.NewLocalStore(mediaRoot, "/media"))
	recipes := service.NewRecipeService(db, images, log)
	membership := service.NewMembershipService(db)
	shopping := service.NewShoppingListService(db, mediaRoot)
	engine := router.SetupRouter(db, log, auth, recipes, membership, shopping, nil)

	tag := models.Tag{Name: "Dinner", Color: "#8775D2", Slug: "dinner"}
	require.NoError(t, db.Create(&tag).Error)
	salt := models.Ingredient{Name: "salt", MeasurementUnit: "g"}
	require.NoError(t, db.Create(&salt).Error)

	do := func(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			require.NoError(t, err)
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
		engine.ServeHTTP(w, req)
		return w
	}

	// Register and log in.
	w := do(http.MethodPost, "/api/v1/users", map[string]string{
		"email":      "chef@example.com",
		"username":   "chef",
		"first_name": "Chef",
		"last_name":  "Tester",
		"password":   "integrationpass",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(http.MethodPost, "/api/v1/auth/token/login", map[string]string{
		"email":    "chef@example.com",
		"password": "integrationpass",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var loginBody struct {
		AuthToken string `json:"auth_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginBody))
	token := loginBody.AuthToken
	require.NotEmpty(t, token)

	// Create a recipe.
	image := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("integration-image"))
	w = do(http.MethodPost, "/api/v1/recipes", map[string]interface{}{
		"name":         "Integration soup",
		"text":         "Boil and serve.",
		"cooking_time": 25,
		"image":        image,
		"tags":         []string{tag.ID.String()},
		"ingredients": []map[string]interface{}{
			{"id": salt.ID.String(), "amount": 6},
		},
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Favorite it; a second attempt must hit the unique constraint path.
	favPath := fmt.Sprintf("/api/v1/recipes/%s/favorite", created.ID)
	require.Equal(t, http.StatusCreated, do(http.MethodPost, favPath, nil, token).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, favPath, nil, token).Code)

	// Cart and download.
	cartPath := fmt.Sprintf("/api/v1/recipes/%s/shopping_cart", created.ID)
	require.Equal(t, http.StatusCreated, do(http.MethodPost, cartPath, nil, token).Code)

	w = do(http.MethodGet, "/api/v1/recipes/download_shopping_cart", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "salt — 6 g")
}
