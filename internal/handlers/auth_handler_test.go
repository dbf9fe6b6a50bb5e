package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dugnadhub-api/internal/identity"
	"dugnadhub-api/internal/middleware"
	"dugnadhub-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newAuthEnv(t *testing.T) (*gin.Engine, *identity.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	tokens := identity.NewTokens("test-secret", "dugnadhub-api", "dugnadhub-clients", time.Hour)
	svc, err := identity.NewService(db, tokens)
	require.NoError(t, err)

	h := &AuthHandler{Identity: svc}
	r := gin.New()
	r.POST("/api/signup", h.SignUp)
	r.POST("/api/login", h.Login)
	protected := r.Group("", middleware.JWTAuth(tokens))
	protected.PATCH("/api/profile", h.UpdateProfile)
	protected.POST("/api/logout", h.Logout)
	return r, svc
}

func postJSON(t *testing.T, r *gin.Engine, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignUpAndLogin(t *testing.T) {
	r, _ := newAuthEnv(t)

	w := postJSON(t, r, "/api/signup", "", map[string]string{
		"email":       "alice@example.com",
		"password":    "hunter22",
		"displayName": "Alice",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var session SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)
	require.Equal(t, "Alice", session.User.DisplayName)

	w = postJSON(t, r, "/api/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSignUp_DuplicateEmailConflict(t *testing.T) {
	r, _ := newAuthEnv(t)

	w := postJSON(t, r, "/api/signup", "", map[string]string{
		"email": "alice@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, r, "/api/signup", "", map[string]string{
		"email": "alice@example.com", "password": "other1",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	r, _ := newAuthEnv(t)

	w := postJSON(t, r, "/api/signup", "", map[string]string{
		"email": "alice@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, r, "/api/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	r, _ := newAuthEnv(t)

	w := postJSON(t, r, "/api/signup", "", map[string]string{
		"email": "alice@example.com", "password": "hunter22", "displayName": "Alice",
	})
	var session SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))

	data, err := json.Marshal(map[string]string{"displayName": "Alice Berg"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPatch, "/api/profile", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var user identity.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "Alice Berg", user.DisplayName)
}
