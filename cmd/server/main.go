package main

import (
	"context"
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ayoubbns/document-control-api/internal/config"
	"github.com/ayoubbns/document-control-api/internal/database"
	"github.com/ayoubbns/document-control-api/internal/handlers"
	"github.com/ayoubbns/document-control-api/internal/logging"
	"github.com/ayoubbns/document-control-api/internal/middleware"
	"github.com/ayoubbns/document-control-api/internal/repository"
	"github.com/ayoubbns/document-control-api/internal/services"
	"github.com/ayoubbns/document-control-api/internal/signing"
	"github.com/ayoubbns/document-control-api/internal/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := logging.Must(cfg.GinMode)
	defer logger.Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Object store for document content
	store, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("Failed to init object storage: %v", err)
	}
	if err := store.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("Failed to ensure storage bucket: %v", err)
	}

	// Task queue client for notification delivery
	queueClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr()})
	defer queueClient.Close()

	db := database.GetDB()
	signer := signing.NewSigner(cfg.SigningSecret)

	// Repositories
	workflowRepo := repository.NewWorkflowRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	signatureRepo := repository.NewSignatureRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewActionLogRepository(db)

	// Services
	notificationService := services.NewNotificationService(notificationRepo, userRepo, queueClient, logger)
	workflowService := services.NewWorkflowService(db, workflowRepo, taskRepo, documentRepo,
		signatureRepo, userRepo, auditRepo, signer, notificationService, logger)
	taskService := services.NewTaskService(db, taskRepo, auditRepo, logger)
	archiveService := services.NewArchiveService(db, folderRepo, documentRepo, archiveRepo, auditRepo, logger)
	signatureService := services.NewSignatureService(signatureRepo, signer)
	documentService := services.NewDocumentService(db, documentRepo, folderRepo, archiveService, store, logger)
	authService := services.NewAuthService(userRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	workflowHandler := handlers.NewWorkflowHandler(workflowService, signatureService, notificationService)
	taskHandler := handlers.NewTaskHandler(taskService)
	archiveHandler := handlers.NewArchiveHandler(archiveService)
	documentHandler := handlers.NewDocumentHandler(documentService)

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	sessionStore, err := redisStore.NewStore(
		10,    // Redis pool size
		"tcp", // network type
		cfg.RedisAddr(),
		"", // username (empty for default user)
		"", // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions("docflow_session", sessionStore))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Document Control API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Everything below requires an authenticated, resolved user.
		authed := api.Group("")
		authed.Use(middleware.RequireAuth(), middleware.LoadCurrentUser())

		// Workflow routes
		workflows := authed.Group("/workflows")
		{
			workflows.POST("", middleware.RequireAdmin(), workflowHandler.Create)
			workflows.GET("/mine", workflowHandler.ListMine)
			workflows.GET("/pending-action", workflowHandler.ListPendingAction)
			workflows.GET("/counts", middleware.RequireAdmin(), workflowHandler.CountByStatus)
			workflows.GET("/:id", workflowHandler.Get)
			workflows.POST("/:id/submit", workflowHandler.SubmitForReview)
			workflows.POST("/:id/validate", workflowHandler.ValidateReview)
			workflows.POST("/:id/approve", workflowHandler.ApproveAndSign)
			workflows.POST("/:id/publish", workflowHandler.Publish)
			workflows.POST("/:id/assign-users", middleware.RequireAdmin(), workflowHandler.AssignUsers)
			workflows.GET("/:id/history", workflowHandler.History)
			workflows.GET("/:id/signatures", workflowHandler.ListSignatures)
			workflows.GET("/:id/notifications", workflowHandler.ListNotifications)
		}

		// Signature verification
		authed.GET("/signatures/:signatureId/verify", workflowHandler.VerifySignature)

		// Task routes
		tasks := authed.Group("/tasks")
		{
			tasks.GET("/my-tasks", taskHandler.MyTasks)
			tasks.GET("/my-pending", taskHandler.MyPending)
			tasks.GET("/overdue", taskHandler.Overdue)
			tasks.POST("/bulk-update", middleware.RequireAdmin(), taskHandler.BulkUpdate)
			tasks.GET("/:id", taskHandler.Get)
			tasks.POST("/:id/start", taskHandler.Start)
			tasks.POST("/:id/complete", taskHandler.Complete)
			tasks.POST("/:id/reject", middleware.RequireAdmin(), taskHandler.Reject)
		}

		// Document and folder routes
		documents := authed.Group("/documents")
		{
			documents.POST("", documentHandler.Upload)
			documents.GET("/:id", documentHandler.Get)
			documents.GET("/:id/download", documentHandler.Download)
			documents.GET("/:id/download-url", documentHandler.DownloadURL)
			documents.PATCH("/:id", documentHandler.Update)
			documents.POST("/:id/move", documentHandler.Move)
		}
		folders := authed.Group("/folders")
		{
			folders.POST("", documentHandler.CreateFolder)
			folders.GET("/browse", documentHandler.BrowseFolder)
		}

		// Archive routes. Reads answer 404 to non-admins at the service
		// layer so the archive's contents stay hidden; mutations are gated
		// up front.
		archive := authed.Group("/archive")
		{
			archive.GET("/navigate", archiveHandler.Navigate)
			archive.GET("/documents/:id/history", archiveHandler.History)
			archive.POST("/folders/:id", middleware.RequireAdmin(), archiveHandler.ArchiveFolder)
			archive.POST("/folders/:id/restore", middleware.RequireAdmin(), archiveHandler.RestoreFolder)
			archive.POST("/documents/:id", middleware.RequireAdmin(), archiveHandler.ArchiveDocument)
			archive.POST("/documents/:id/restore", middleware.RequireAdmin(), archiveHandler.RestoreDocument)
		}

		// Notification routes
		notifications := authed.Group("/notifications")
		{
			notifications.GET("", workflowHandler.MyNotifications)
			notifications.POST("/:id/read", workflowHandler.MarkNotificationRead)
		}
	}

	// Start server
	logger.Info("server starting", zap.String("addr", ":8080"))
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
