package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clubhub/internal/config"
	"clubhub/internal/logger"
	"clubhub/internal/notify"
	"clubhub/internal/queue"
	"clubhub/internal/store"
)

// Worker consumes queued notifications and delivers them by mail.
func main() {
	cfg := config.Load()

	closer, err := logger.Init(os.Stdout, cfg.LogDir)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer closer.Close()
	logger.SetLevel(cfg.Env)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.QueueBackend == "memory" {
		logger.Error.Fatalf("worker needs QUEUE_BACKEND=redis; the memory queue is drained by the api process")
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		logger.Warn.Printf("redis at %s not reachable yet, consumer will keep retrying", cfg.RedisAddr)
	}
	q := queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)

	mailer, err := notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		logger.Error.Fatalf("mailer init failed: %v", err)
	}

	logger.Info.Println("worker started, waiting for messages...")
	if err := notify.NewDispatcher(mailer, 30*time.Second).Run(ctx, q); err != nil {
		logger.Error.Fatalf("queue consume init failed: %v", err)
	}
	logger.Info.Println("worker stopped")
}
