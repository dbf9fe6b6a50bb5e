package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"dugnadhub-api/internal/realtime"
	"dugnadhub-api/internal/registry"

	"github.com/gin-gonic/gin"
)

// CommentHandler exposes the two-step comment operations. The
// partial-link failure mode is surfaced, not hidden: the comment id is
// included in the error response so clients can reconcile.
type CommentHandler struct {
	Registry *registry.Registry
	Hub      *realtime.Hub
}

// CreateCommentRequest represents the request payload for commenting
type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// GetComments handles GET /api/tasks/:id/comments
// Resolves the task's comment-id references into records. Ids whose
// documents are gone (an earlier partial failure) are skipped.
func (h *CommentHandler) GetComments(c *gin.Context) {
	taskID := c.Param("id")
	task, ok := h.Registry.Get(taskID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	comments, err := h.Registry.CommentsByIDs(c.Request.Context(), task.Comments)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"count":    len(comments),
	})
}

// CreateComment handles POST /api/tasks/:id/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	taskID := c.Param("id")
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	commentID, err := h.Registry.AddComment(c.Request.Context(), taskID, registry.NewComment{
		AuthorID: userID,
		Author:   c.GetString("display_name"),
		Text:     req.Text,
	})
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		if errors.Is(err, registry.ErrPartialLink) {
			// The comment document exists but the task does not
			// reference it. No automatic compensation.
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Comment stored but task link failed",
				"commentId": commentID,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	h.broadcast(userID, "comment_added", taskID, commentID)

	c.JSON(http.StatusCreated, gin.H{
		"id":     commentID,
		"taskId": taskID,
	})
}

// DeleteComment handles DELETE /api/tasks/:id/comments/:commentId
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	taskID := c.Param("id")
	commentID := c.Param("commentId")
	if commentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment ID is required"})
		return
	}

	err := h.Registry.RemoveComment(c.Request.Context(), taskID, commentID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		if errors.Is(err, registry.ErrPartialLink) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Comment deleted but still referenced by task",
				"commentId": commentID,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	h.broadcast(userID, "comment_removed", taskID, commentID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
		"id":      commentID,
	})
}

func (h *CommentHandler) broadcast(userID, event, taskID, commentID string) {
	if h.Hub == nil {
		return
	}
	evt := map[string]any{
		"type":      event,
		"taskId":    taskID,
		"commentId": commentID,
		"userId":    userID,
		"version":   1,
	}
	if bytes, err := json.Marshal(evt); err == nil {
		h.Hub.Broadcast(userID, bytes)
	}
}
