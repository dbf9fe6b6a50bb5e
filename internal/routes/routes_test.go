package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dugnadhub-api/internal/blob"
	"dugnadhub-api/internal/identity"
	"dugnadhub-api/internal/realtime"
	"dugnadhub-api/internal/registry"
	"dugnadhub-api/internal/store/document"
	"dugnadhub-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	docs, err := document.New(db)
	require.NoError(t, err)
	reg, err := registry.New(docs, registry.Options{})
	require.NoError(t, err)

	tokens := identity.NewTokens("test-secret", "dugnadhub-api", "dugnadhub-clients", time.Hour)
	ids, err := identity.NewService(db, tokens)
	require.NoError(t, err)

	blobs, err := blob.NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	return Setup(Deps{
		Registry: reg,
		Identity: ids,
		Tokens:   tokens,
		Hub:      realtime.NewHub(),
		Blobs:    blobs,
	})
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
