package main

import (
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ayoubbns/document-control-api/internal/config"
	"github.com/ayoubbns/document-control-api/internal/database"
	"github.com/ayoubbns/document-control-api/internal/logging"
	"github.com/ayoubbns/document-control-api/internal/mailer"
	"github.com/ayoubbns/document-control-api/internal/queue"
	"github.com/ayoubbns/document-control-api/internal/repository"
	"github.com/ayoubbns/document-control-api/internal/services"
	"github.com/ayoubbns/document-control-api/internal/worker"
)

func main() {
	cfg := config.Load()

	logger := logging.Must(cfg.GinMode)
	defer logger.Sync()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	archiveRepo := repository.NewArchiveRepository(db)
	auditRepo := repository.NewActionLogRepository(db)

	// The worker records delivery outcomes directly; it never enqueues.
	notificationService := services.NewNotificationService(notificationRepo, userRepo, nil, logger)
	archiveService := services.NewArchiveService(db, folderRepo, documentRepo, archiveRepo, auditRepo, logger)
	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	processor := worker.NewProcessor(mail, notificationService, archiveService, logger)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr()}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})

	// Periodic retention sweep alongside the lazy sweep on archive reads.
	scheduler := asynq.NewScheduler(redisOpt, nil)
	interval := fmt.Sprintf("@every %s", cfg.RetentionSweepInterval)
	if _, err := scheduler.Register(interval, queue.NewRetentionSweepTask()); err != nil {
		log.Fatalf("Failed to register retention sweep: %v", err)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatalf("Scheduler stopped: %v", err)
		}
	}()

	logger.Info("worker starting",
		zap.String("redis", cfg.RedisAddr()),
		zap.Duration("retention_sweep_interval", cfg.RetentionSweepInterval))
	if err := srv.Run(processor.Mux()); err != nil {
		log.Fatalf("Worker stopped: %v", err)
	}
}
