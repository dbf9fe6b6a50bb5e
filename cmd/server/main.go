package main

import (
	"context"
	"log"

	"dugnadhub-api/internal/blob"
	"dugnadhub-api/internal/config"
	"dugnadhub-api/internal/identity"
	"dugnadhub-api/internal/realtime"
	"dugnadhub-api/internal/registry"
	"dugnadhub-api/internal/routes"
	"dugnadhub-api/internal/store/document"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	cfg := config.Load()

	// Open SQLite database file (will be created if it doesn't exist initially)
	// Using glebarez/sqlite which is a pure Go implementation (no CGO required)
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	docStore, err := document.New(db)
	if err != nil {
		log.Fatal("Failed to init document store: ", err)
	}

	reg, err := registry.New(docStore, registry.Options{CommentCacheTTL: cfg.CommentCacheTTL})
	if err != nil {
		log.Fatal("Failed to init task registry: ", err)
	}
	// Build the cache once at startup; a failure here is not fatal,
	// clients can POST /api/tasks/refresh later.
	if err := reg.Refresh(context.Background()); err != nil {
		log.Printf("Initial task refresh failed: %v", err)
	}

	tokens := identity.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	ids, err := identity.NewService(db, tokens)
	if err != nil {
		log.Fatal("Failed to init identity service: ", err)
	}

	blobs, err := blob.NewDiskStore(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		log.Fatal("Failed to init blob store: ", err)
	}

	hub := realtime.NewHub()
	ids.OnSessionChange(func(user identity.User, signedIn bool) {
		if signedIn {
			log.Printf("session started for %s", user.ID)
		} else {
			log.Printf("session ended for %s", user.ID)
		}
	})

	ginRoutes := routes.Setup(routes.Deps{
		Registry:      reg,
		Identity:      ids,
		Tokens:        tokens,
		Hub:           hub,
		Blobs:         blobs,
		UploadDir:     cfg.UploadDir,
		UploadBaseURL: cfg.UploadBaseURL,
	})

	log.Printf("Server starting on port %s", cfg.Port)
	log.Println("API endpoints:")
	log.Println("  POST   /api/signup")
	log.Println("  POST   /api/login")
	log.Println("  GET    /api/tasks")
	log.Println("  POST   /api/tasks")
	log.Println("  POST   /api/tasks/refresh")
	log.Println("  PUT    /api/tasks/:id")
	log.Println("  DELETE /api/tasks/:id")
	log.Println("  POST   /api/tasks/:id/join|leave|like|unlike")
	log.Println("  GET    /api/tasks/:id/comments")
	log.Println("  POST   /api/images")
	log.Println("  GET    /health")

	if err := ginRoutes.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
