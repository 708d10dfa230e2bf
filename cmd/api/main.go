package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"clubhub/internal/api"
	"clubhub/internal/auth"
	"clubhub/internal/cloudinary"
	"clubhub/internal/config"
	"clubhub/internal/httpmiddleware"
	"clubhub/internal/lifecycle"
	"clubhub/internal/logger"
	"clubhub/internal/notify"
	"clubhub/internal/queue"
	"clubhub/internal/scheduler"
	"clubhub/internal/store"
)

func main() {
	cfg := config.Load()

	closer, err := logger.Init(os.Stdout, cfg.LogDir)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer closer.Close()
	logger.SetLevel(cfg.Env)

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		logger.Error.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health := map[string]api.HealthCheck{}

	var st lifecycle.Store
	if cfg.StoreBackend == "memory" {
		logger.Warn.Println("using in-memory store: data is lost on restart and every write copies the whole dataset")
		st = lifecycle.NewMemoryStore()
	} else {
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		st = lifecycle.NewPostgresStore(db.Client)
		health["db"] = db.Healthy
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(256)
	} else {
		redisClient := store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
		health["redis"] = redisClient.Healthy
	}

	opts := []lifecycle.Option{
		lifecycle.WithNotifier(notify.NewPublisher(q, cfg.NotifyTimeout)),
		lifecycle.WithRetention(cfg.VenueRetentionKeep),
	}

	// Club logo uploads are disabled unless Cloudinary credentials are set.
	cdnClient := cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	if cdnClient.Configured() {
		opts = append(opts, lifecycle.WithUploader(cdnClient))
		logger.Info.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		logger.Info.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	svc := lifecycle.NewService(st, opts...)
	if err := svc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	// With the in-memory queue nothing else can deliver mail, so do it here.
	if cfg.QueueBackend == "memory" {
		mailer, err := notify.NewMailer(smtpConfig(cfg))
		if err != nil {
			return err
		}
		go func() {
			if err := notify.NewDispatcher(mailer, 30*time.Second).Run(ctx, q); err != nil {
				logger.Error.Printf("dispatcher stopped: %v", err)
			}
		}()
	}

	sched := scheduler.New(time.Minute)
	if err := sched.Add("venue-retention", cfg.VenueSweepSchedule, func(ctx context.Context) error {
		n, err := svc.EnforceVenueRetention(ctx)
		if n > 0 {
			logger.Info.Printf("venue retention removed %d approved requests", n)
		}
		return err
	}); err != nil {
		return err
	}
	sched.Start()

	router := api.NewRouter(api.Config{
		Service:     svc,
		Signer:      auth.NewSigner(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL),
		Limiter:     httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin),
		CORSOrigins: cfg.CORSOrigins,
		PublicURL:   cfg.PublicURL,
		Production:  cfg.Production(),
		Health:      health,
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info.Println("Shutting down server...")
	case err := <-errCh:
		return err
	}

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sched.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error.Printf("Server forced shutdown: %v", err)
	}

	logger.Info.Println("Server exited")
	return nil
}

func smtpConfig(cfg config.App) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}
}
