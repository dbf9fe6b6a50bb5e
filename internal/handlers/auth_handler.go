package handlers

import (
	"errors"
	"net/http"

	"dugnadhub-api/internal/identity"

	"github.com/gin-gonic/gin"
)

// AuthHandler exposes signup/login/logout and profile updates over the
// identity service.
type AuthHandler struct {
	Identity *identity.Service
}

// SignUpRequest represents the signup request payload
type SignUpRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"displayName"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse represents a successful signup/login response
type SessionResponse struct {
	Token string        `json:"token"`
	User  identity.User `json:"user"`
}

// UpdateProfileRequest represents the profile update payload
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
}

// SignUp handles POST /api/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Email and password are required.",
		})
		return
	}

	user, token, err := h.Identity.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{Token: token, User: user})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Email and password are required.",
		})
		return
	}

	user, token, err := h.Identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	c.JSON(http.StatusOK, SessionResponse{Token: token, User: user})
}

// Logout handles POST /api/logout (protected). The token itself is
// not revoked; subscribers are notified the session ended.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString("token")
	user, err := h.Identity.CurrentUser(c.Request.Context(), token)
	if err == nil {
		h.Identity.SignOut(user)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// UpdateProfile handles PATCH /api/profile (protected)
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "displayName is required"})
		return
	}

	user, err := h.Identity.UpdateDisplayName(c.Request.Context(), userID, req.DisplayName)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}
