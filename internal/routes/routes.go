package routes

import (
	"dugnadhub-api/internal/blob"
	"dugnadhub-api/internal/handlers"
	"dugnadhub-api/internal/identity"
	"dugnadhub-api/internal/middleware"
	"dugnadhub-api/internal/realtime"
	"dugnadhub-api/internal/registry"

	"github.com/gin-gonic/gin"
)

// Deps holds everything the router needs, constructed once in main
// and passed explicitly (no package-level singletons).
type Deps struct {
	Registry *registry.Registry
	Identity *identity.Service
	Tokens   *identity.Tokens
	Hub      *realtime.Hub
	Blobs    blob.Store

	// UploadDir is served statically under UploadBaseURL so stored
	// image URLs resolve.
	UploadDir     string
	UploadBaseURL string
}

// Setup assembles the router: CORS, health check, static uploads, and
// the public/protected API groups.
func Setup(deps Deps) *gin.Engine {
	// Create a new GIN Router
	ginRouter := gin.Default()

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204) // This depends on the implementation of the frontend
			return
		}

		c.Next()
	})

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "DugnadHub API is running in Health Check Endpoint",
		})
	})

	// Uploaded images are plain static files
	if deps.UploadDir != "" && deps.UploadBaseURL != "" {
		ginRouter.Static(deps.UploadBaseURL, deps.UploadDir)
	}

	authHandler := &handlers.AuthHandler{Identity: deps.Identity}
	taskHandler := &handlers.TaskHandler{Registry: deps.Registry, Hub: deps.Hub}
	commentHandler := &handlers.CommentHandler{Registry: deps.Registry, Hub: deps.Hub}
	imageHandler := &handlers.ImageHandler{Blobs: deps.Blobs}
	wsHandler := &handlers.WSHandler{Hub: deps.Hub}

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/signup", authHandler.SignUp)
		api.POST("/login", authHandler.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuth(deps.Tokens))
	{
		// Task endpoints
		protectedRoutes.GET("/tasks", taskHandler.GetTasks)
		protectedRoutes.POST("/tasks/refresh", taskHandler.RefreshTasks)
		protectedRoutes.GET("/tasks/:id", taskHandler.GetTaskByID)
		protectedRoutes.POST("/tasks", taskHandler.CreateTask)
		protectedRoutes.PUT("/tasks/:id", taskHandler.UpdateTask)
		protectedRoutes.DELETE("/tasks/:id", taskHandler.DeleteTask)

		// Membership and likes
		protectedRoutes.POST("/tasks/:id/join", taskHandler.JoinTask)
		protectedRoutes.POST("/tasks/:id/leave", taskHandler.LeaveTask)
		protectedRoutes.POST("/tasks/:id/like", taskHandler.LikeTask)
		protectedRoutes.POST("/tasks/:id/unlike", taskHandler.UnlikeTask)

		// Comments
		protectedRoutes.GET("/tasks/:id/comments", commentHandler.GetComments)
		protectedRoutes.POST("/tasks/:id/comments", commentHandler.CreateComment)
		protectedRoutes.DELETE("/tasks/:id/comments/:commentId", commentHandler.DeleteComment)

		// Images
		protectedRoutes.POST("/images", imageHandler.Upload)

		// Session and profile
		protectedRoutes.POST("/logout", authHandler.Logout)
		protectedRoutes.PATCH("/profile", authHandler.UpdateProfile)

		// Realtime events
		protectedRoutes.GET("/ws", wsHandler.Connect)
	}

	return ginRouter
}
