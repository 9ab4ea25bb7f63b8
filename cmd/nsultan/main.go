package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/johiruljahid/nsultan/internal/assistant"
	"github.com/johiruljahid/nsultan/internal/backup"
	"github.com/johiruljahid/nsultan/internal/config"
	"github.com/johiruljahid/nsultan/internal/database"
	"github.com/johiruljahid/nsultan/internal/email"
	"github.com/johiruljahid/nsultan/internal/events"
	"github.com/johiruljahid/nsultan/internal/logging"
	"github.com/johiruljahid/nsultan/internal/media"
	"github.com/johiruljahid/nsultan/internal/metrics"
	"github.com/johiruljahid/nsultan/internal/notify"
	"github.com/johiruljahid/nsultan/internal/push"
	"github.com/johiruljahid/nsultan/internal/server"
	"github.com/johiruljahid/nsultan/internal/store"
	ws "github.com/johiruljahid/nsultan/internal/websocket"
	"github.com/redis/go-redis/v9"
)

const (
	cleanupInterval = 15 * time.Minute
	cartIdleTimeout = 24 * time.Hour
)

func main() {
	configPath := flag.String("config", os.Getenv("NSULTAN_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	adminStore := store.NewAdminStore(db)
	if cfg.Admin.Password != "" || cfg.Admin.PasswordHash != "" {
		if _, err := adminStore.EnsureAdmin(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.PasswordHash); err != nil {
			slog.Error("failed to bootstrap admin", "error", err)
			os.Exit(1)
		}
	} else if n, err := adminStore.Count(); err == nil && n == 0 {
		slog.Warn("no admin account configured; set NSULTAN_ADMIN_PASSWORD to enable the back office")
	}

	m := metrics.New()
	opts := server.Options{Metrics: m}

	if cfg.S3Enabled() {
		opts.Media = media.New(media.Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
		slog.Info("image uploads enabled", "bucket", cfg.S3.Bucket)
	}

	if cfg.BackupEnabled() {
		opts.Backups = backup.New(backupConfig(cfg), db, store.NewBackupStore(db), m, logger.With("component", "backup"))
		slog.Info("database backups enabled", "interval", cfg.Backup.Interval, "keep", cfg.Backup.Keep)
	}

	publisher := events.Publisher(events.NopPublisher{})
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		slog.Info("lifecycle events enabled", "topic", cfg.Kafka.Topic)
	}
	opts.Events = publisher

	var notifyOpts []notify.Option
	notifyOpts = append(notifyOpts, notify.WithMetrics(m))
	if cfg.PushEnabled() {
		svc := push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subscriber)
		notifier := push.NewNotifier(svc, store.NewPushStore(db), logger.With("component", "push"))
		notifyOpts = append(notifyOpts, notify.WithPush(notifier))
	}
	if cfg.Email.PostmarkToken != "" && cfg.Email.NotifyTo != "" {
		client := email.NewClient(cfg.Email.PostmarkToken, cfg.Email.From, cfg.Server.BaseURL)
		notifyOpts = append(notifyOpts, notify.WithEmail(client, cfg.Email.NotifyTo))
	}
	dispatcher := notify.NewDispatcher(logger.With("component", "notify"), notifyOpts...)
	opts.Notifier = dispatcher

	model, err := assistant.NewModel(assistant.Config{
		APIKey:  cfg.Assistant.APIKey,
		BaseURL: cfg.Assistant.BaseURL,
		Model:   cfg.Assistant.Model,
	})
	switch {
	case errors.Is(err, assistant.ErrNotConfigured):
		slog.Warn("assistant API key not set; chat replies will apologize")
	case err != nil:
		slog.Error("failed to create chat model", "error", err)
		os.Exit(1)
	default:
		opts.Model = model
	}

	srv := server.New(db, cfg, opts, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if opts.Backups != nil {
		opts.Backups.Start(ctx)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		relay := ws.NewRelay(redisClient, cfg.Redis.Channel, srv.Hub(), logger.With("component", "relay"))
		if err := relay.Start(ctx); err != nil {
			slog.Error("failed to start realtime relay", "error", err)
			os.Exit(1)
		}
		slog.Info("realtime relay enabled", "channel", cfg.Redis.Channel)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				if n := srv.RateLimiter().Cleanup(); n > 0 {
					slog.Debug("dropped rate limit windows", "count", n)
				}
				if n := srv.Carts().Cleanup(cartIdleTimeout); n > 0 {
					slog.Info("evicted idle carts", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("N Sultan starting", "addr", httpServer.Addr, "base_url", cfg.Server.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	if opts.Backups != nil {
		opts.Backups.Stop()
	}
	dispatcher.Wait()
	if err := publisher.Close(); err != nil {
		slog.Error("close event publisher", "error", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
}

func backupConfig(cfg *config.Config) backup.Config {
	return backup.Config{
		Endpoint:   cfg.S3.Endpoint,
		Bucket:     cfg.S3.Bucket,
		Region:     cfg.S3.Region,
		AccessKey:  cfg.S3.AccessKey,
		SecretKey:  cfg.S3.SecretKey,
		Prefix:     cfg.Backup.Prefix,
		Passphrase: cfg.Backup.Passphrase,
		Interval:   cfg.Backup.Interval,
		Keep:       cfg.Backup.Keep,
	}
}
