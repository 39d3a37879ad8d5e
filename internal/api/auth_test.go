package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	env.registerUser(t, "vasya")

	w := performRequest(env.Router, http.MethodPost, "/api/v1/auth/token/login", map[string]string{
		"email":    "vasya@example.com",
		"password": "testpassword123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	token, ok := body["auth_token"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	claims, err := env.Auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "vasya", claims.Username)
}

func TestLoginBadCredentials(t *testing.T) {
	env := setupTestEnv(t)
	env.registerUser(t, "vasya")

	w := performRequest(env.Router, http.MethodPost, "/api/v1/auth/token/login", map[string]string{
		"email":    "vasya@example.com",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginMalformedPayload(t *testing.T) {
	env := setupTestEnv(t)

	w := performRequest(env.Router, http.MethodPost, "/api/v1/auth/token/login", map[string]string{
		"email": "not-an-email",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
