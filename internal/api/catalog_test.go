package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/models"
)

func TestListTags(t *testing.T) {
	env := setupTestEnv(t)
	tag, _ := env.seedCatalog(t)

	w := performRequest(env.Router, http.MethodGet, "/api/v1/tags", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var tags []models.Tag
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tags))
	require.Len(t, tags, 1)
	assert.Equal(t, tag.Slug, tags[0].Slug)

	w = performRequest(env.Router, http.MethodGet, "/api/v1/tags/"+tag.ID.String(), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetMissingTag(t *testing.T) {
	env := setupTestEnv(t)

	w := performRequest(env.Router, http.MethodGet,
		"/api/v1/tags/9b7d3e7c-0000-0000-0000-000000000000", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(env.Router, http.MethodGet, "/api/v1/tags/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngredientNameSearch(t *testing.T) {
	env := setupTestEnv(t)
	for _, seed := range []models.Ingredient{
		{Name: "salt", MeasurementUnit: "g"},
		{Name: "salmon", MeasurementUnit: "g"},
		{Name: "pepper", MeasurementUnit: "g"},
	} {
		seed := seed
		require.NoError(t, env.DB.Create(&seed).Error)
	}

	w := performRequest(env.Router, http.MethodGet, "/api/v1/ingredients?name=sal", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var ingredients []models.Ingredient
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ingredients))
	require.Len(t, ingredients, 2)
	// Prefix match only, ordered by name.
	assert.Equal(t, "salmon", ingredients[0].Name)
	assert.Equal(t, "salt", ingredients[1].Name)

	// Case-insensitive.
	w = performRequest(env.Router, http.MethodGet, "/api/v1/ingredients?name=SAL", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ingredients))
	assert.Len(t, ingredients, 2)
}
