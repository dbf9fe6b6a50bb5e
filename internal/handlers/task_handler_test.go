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
	"dugnadhub-api/internal/models"
	"dugnadhub-api/internal/registry"
	"dugnadhub-api/internal/store/document"
	"dugnadhub-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type taskEnv struct {
	router   *gin.Engine
	tokens   *identity.Tokens
	registry *registry.Registry
}

func newTaskEnv(t *testing.T) *taskEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	docs, err := document.New(db)
	require.NoError(t, err)
	reg, err := registry.New(docs, registry.Options{})
	require.NoError(t, err)

	tokens := identity.NewTokens("test-secret", "dugnadhub-api", "dugnadhub-clients", time.Hour)

	h := &TaskHandler{Registry: reg}
	ch := &CommentHandler{Registry: reg}

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.JWTAuth(tokens))
	api.GET("/tasks", h.GetTasks)
	api.POST("/tasks/refresh", h.RefreshTasks)
	api.GET("/tasks/:id", h.GetTaskByID)
	api.POST("/tasks", h.CreateTask)
	api.PUT("/tasks/:id", h.UpdateTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.POST("/tasks/:id/join", h.JoinTask)
	api.POST("/tasks/:id/leave", h.LeaveTask)
	api.POST("/tasks/:id/like", h.LikeTask)
	api.POST("/tasks/:id/unlike", h.UnlikeTask)
	api.GET("/tasks/:id/comments", ch.GetComments)
	api.POST("/tasks/:id/comments", ch.CreateComment)
	api.DELETE("/tasks/:id/comments/:commentId", ch.DeleteComment)

	return &taskEnv{router: r, tokens: tokens, registry: reg}
}

func (e *taskEnv) do(t *testing.T, method, path, userID, name string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	token, err := e.tokens.Generate(userID, name)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreateTask_Success(t *testing.T) {
	env := newTaskEnv(t)

	w := env.do(t, http.MethodPost, "/api/tasks", "u-1", "Alice", map[string]any{
		"title":         "Cleanup",
		"description":   "Spring cleanup at the park",
		"maxVolunteers": 5,
		"location":      "Frognerparken",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Cleanup", created.Title)
	require.Equal(t, "u-1", created.CreatedBy)
	require.NotNil(t, created.MaxVolunteers)
	require.Equal(t, 5, *created.MaxVolunteers)
	require.Empty(t, created.Participants)
}

func TestCreateTask_MissingTitle(t *testing.T) {
	env := newTaskEnv(t)

	w := env.do(t, http.MethodPost, "/api/tasks", "u-1", "Alice", map[string]any{
		"description": "no title",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTask_NegativeCapacity(t *testing.T) {
	env := newTaskEnv(t)

	w := env.do(t, http.MethodPost, "/api/tasks", "u-1", "Alice", map[string]any{
		"title":         "Cleanup",
		"description":   "d",
		"maxVolunteers": -1,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinTask_CapacityFlow(t *testing.T) {
	env := newTaskEnv(t)

	w := env.do(t, http.MethodPost, "/api/tasks", "u-1", "Alice", map[string]any{
		"title":         "Cleanup",
		"description":   "d",
		"maxVolunteers": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do(t, http.MethodPost, "/api/tasks/"+created.ID+"/join", "u-1", "Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/tasks/"+created.ID+"/join", "u-2", "Bob", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Third join is silently rejected: 200, but the participant list
	// does not grow.
	w = env.do(t, http.MethodPost, "/api/tasks/"+created.ID+"/join", "u-3", "Carol", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.Equal(t, []string{"u-1", "u-2"}, task.Participants)
}

func TestJoinTask_NotFound(t *testing.T) {
	env := newTaskEnv(t)
	w := env.do(t, http.MethodPost, "/api/tasks/missing/join", "u-1", "Alice", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestLikeUnlikeFlow(t *testing.T) {
	env := newTaskEnv(t)

	w := env.do(t, http.MethodPost, "/api/tasks", "u-1", "Alice", map[string]any{
		"title": "Cleanup", "description": "d",
	})
	var created models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do(t, http.MethodPost, "/api/tasks/"+created.ID+"/like", "u-1", "Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	// Liking twice leaves a single entry.
	w = env.do(t, http.MethodPost, "/api/tasks/"+created.ID+"/like", "u-1", "Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.Equal(t, []string{"u-1"}, task.Likes)

	w = env.do(t, http.MethodPost, "/api/tasks/"+created.ID+"/unlike", "u-1", "Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.Empty(t, task.Likes)
}

func TestUpdateTask_PartialPatch(t *testing.T) {
	env := newTaskEnv(t)

	w := env.do(t, http.MethodPost, "/api/tasks", "u-1", "Alice", map[string]any{
		"title": "Before", "description": "keep", "location": "Oslo",
	})
	var created models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do(t, http.MethodPut, "/api/tasks/"+created.ID, "u-1", "Alice", map[string]any{
		"title": "After",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	require.Equal(t, "After", task.Title)
	require.Equal(t, "keep", task.Description)
	require.Equal(t, "Oslo", task.Location)
}

func TestUpdateTask_NotFound(t *testing.T) {
	env := newTaskEnv(t)
	w := env.do(t, http.MethodPut, "/api/tasks/missing", "u-1", "Alice", map[string]any{
		"title": "x",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteTask_RemovesFromList(t *testing.T) {
	env := newTaskEnv(t)

	w := env.do(t, http.MethodPost, "/api/tasks", "u-1", "Alice", map[string]any{
		"title": "Doomed", "description": "d",
	})
	var created models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = env.do(t, http.MethodDelete, "/api/tasks/"+created.ID, "u-1", "Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/tasks/"+created.ID, "u-1", "Alice", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Refresh from the store does not resurrect it.
	w = env.do(t, http.MethodPost, "/api/tasks/refresh", "u-1", "Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Equal(t, 0, listing.Count)
}

func TestGetTasks_Snapshot(t *testing.T) {
	env := newTaskEnv(t)

	for _, title := range []string{"a", "b", "c"} {
		w := env.do(t, http.MethodPost, "/api/tasks", "u-1", "Alice", map[string]any{
			"title": title, "description": "d",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/tasks", "u-1", "Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		Tasks     []models.Task `json:"tasks"`
		Count     int           `json:"count"`
		IsLoading bool          `json:"isLoading"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Equal(t, 3, listing.Count)
	require.False(t, listing.IsLoading)
}
