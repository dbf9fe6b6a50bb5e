package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"dugnadhub-api/internal/realtime"
	"dugnadhub-api/internal/registry"

	"github.com/gin-gonic/gin"
)

// TaskHandler exposes the task registry over HTTP. Every mutation goes
// through the registry; handlers never touch the store directly.
type TaskHandler struct {
	Registry *registry.Registry
	Hub      *realtime.Hub
}

// CreateTaskRequest represents the request payload for creating a dugnad
type CreateTaskRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description" binding:"required"`
	Location      string `json:"location"`
	DateTime      string `json:"dateTime"`
	ContactInfo   string `json:"contactInfo"`
	RequiredTasks string `json:"requiredTasks"`
	MaxVolunteers *int   `json:"maxVolunteers"`
	ImageURL      string `json:"imageUrl"`
}

// UpdateTaskRequest represents the request payload for editing a dugnad.
// nil pointer => field untouched.
type UpdateTaskRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Location      *string `json:"location"`
	DateTime      *string `json:"dateTime"`
	ContactInfo   *string `json:"contactInfo"`
	RequiredTasks *string `json:"requiredTasks"`
	MaxVolunteers *int    `json:"maxVolunteers"`
	ImageURL      *string `json:"imageUrl"`
}

/*
*
GetTasks handles GET /api/tasks
Returns the registry's cached snapshot plus the collection-wide
loading flag. The cache is refreshed at startup and via POST
/api/tasks/refresh, not on every read.
*/
func (h *TaskHandler) GetTasks(c *gin.Context) {
	tasks := h.Registry.Tasks()
	c.JSON(http.StatusOK, gin.H{
		"tasks":     tasks,
		"count":     len(tasks),
		"isLoading": h.Registry.Loading(),
	})
}

// RefreshTasks handles POST /api/tasks/refresh
// Replaces the cache wholesale from the document store.
func (h *TaskHandler) RefreshTasks(c *gin.Context) {
	if err := h.Registry.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh tasks"})
		return
	}

	tasks := h.Registry.Tasks()
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// GetTaskByID handles GET /api/tasks/:id
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task ID is required"})
		return
	}

	task, ok := h.Registry.Get(taskID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

/*
*
CreateTask handles POST /api/tasks
Creates a new dugnad owned by the authenticated user
*/
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if req.MaxVolunteers != nil && *req.MaxVolunteers < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxVolunteers must be non-negative"})
		return
	}

	id, err := h.Registry.Create(c.Request.Context(), registry.NewTaskFields{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		DateTime:      req.DateTime,
		ContactInfo:   req.ContactInfo,
		RequiredTasks: req.RequiredTasks,
		MaxVolunteers: req.MaxVolunteers,
		ImageURL:      req.ImageURL,
		CreatedBy:     userID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create task",
		})
		return
	}

	h.broadcast(userID, "dugnad_created", id)

	task, _ := h.Registry.Get(id)
	c.JSON(http.StatusCreated, task)
}

// UpdateTask handles PUT /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Task ID is required",
		})
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if req.MaxVolunteers != nil && *req.MaxVolunteers < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "maxVolunteers must be non-negative"})
		return
	}

	err := h.Registry.Edit(c.Request.Context(), taskID, registry.EditTaskFields{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		DateTime:      req.DateTime,
		ContactInfo:   req.ContactInfo,
		RequiredTasks: req.RequiredTasks,
		MaxVolunteers: req.MaxVolunteers,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		h.fail(c, err, "Failed to update task")
		return
	}

	h.broadcast(userID, "dugnad_updated", taskID)

	task, _ := h.Registry.Get(taskID)
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Task ID is required",
		})
		return
	}

	if err := h.Registry.Remove(c.Request.Context(), taskID); err != nil {
		h.fail(c, err, "Failed to delete task")
		return
	}

	h.broadcast(userID, "dugnad_deleted", taskID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
		"id":      taskID,
	})
}

// JoinTask handles POST /api/tasks/:id/join
// Joining a full task is a silent no-op: the response is 200 with the
// unchanged participant list, so clients can tell they were not added.
func (h *TaskHandler) JoinTask(c *gin.Context) {
	h.membership(c, "dugnad_joined", h.Registry.Join)
}

// LeaveTask handles POST /api/tasks/:id/leave
func (h *TaskHandler) LeaveTask(c *gin.Context) {
	h.membership(c, "dugnad_left", h.Registry.Leave)
}

// LikeTask handles POST /api/tasks/:id/like
func (h *TaskHandler) LikeTask(c *gin.Context) {
	h.membership(c, "dugnad_liked", h.Registry.Like)
}

// UnlikeTask handles POST /api/tasks/:id/unlike
func (h *TaskHandler) UnlikeTask(c *gin.Context) {
	h.membership(c, "dugnad_unliked", h.Registry.Unlike)
}

// membership is the shared join/leave/like/unlike flow: resolve the
// user from the token, run the registry operation, answer with the
// task's current state.
func (h *TaskHandler) membership(c *gin.Context, event string, op func(ctx context.Context, taskID, userID string) error) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task ID is required"})
		return
	}

	if err := op(c.Request.Context(), taskID, userID); err != nil {
		h.fail(c, err, "Failed to update task")
		return
	}

	h.broadcast(userID, event, taskID)

	task, _ := h.Registry.Get(taskID)
	c.JSON(http.StatusOK, task)
}

// fail maps registry errors onto HTTP status codes.
func (h *TaskHandler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, registry.ErrPartialLink):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Comment stored but task link failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// broadcast pushes an event to the acting user's live connections.
func (h *TaskHandler) broadcast(userID, event, taskID string) {
	if h.Hub == nil {
		return
	}
	evt := map[string]any{
		"type":    event,
		"taskId":  taskID,
		"userId":  userID,
		"version": 1,
	}
	if bytes, err := json.Marshal(evt); err == nil {
		h.Hub.Broadcast(userID, bytes)
	}
}
