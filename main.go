// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carpool-api/cmd"
	"carpool-api/internal/data/memory"
	"carpool-api/internal/data/repository"
	"carpool-api/internal/lifecycle"
	"carpool-api/internal/notify"
	"carpool-api/internal/wire"
	"carpool-api/pkg/broker"
	"carpool-api/pkg/database"
	"carpool-api/pkg/lock"
	"carpool-api/pkg/telemetry"
	"carpool-api/pkg/token"
	"carpool-api/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("db_driver", config.Database.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     config.App.Tracing,
		ServiceName: config.App.Name,
	}); err != nil {
		logger.Fatal("Failed to init tracing", zap.Error(err))
	}

	// Storage
	repos, closeStore := openStorage(ctx, config, logger)

	// Per-ride lock
	locker := newLocker(config, logger)

	// Event sinks
	sinks := []notify.Sink{
		notify.NewNotificationSink(repos.Notification),
		notify.NewLogSink(logger),
	}
	var publisher *broker.Publisher
	if config.AMQP.URL != "" {
		publisher, err = broker.Connect(broker.Config{
			URL:      config.AMQP.URL,
			Exchange: config.AMQP.Exchange,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to broker", zap.Error(err))
		}
		sinks = append(sinks, notify.NewBrokerSink(publisher))
	}
	dispatcher := notify.NewDispatcher(config.Events.Buffer, logger, sinks...)

	manager := lifecycle.NewManager(repos.Tx, locker, dispatcher, logger)
	tokens := token.NewManager(config.JWT.Secret, time.Duration(config.JWT.ExpiryHours)*time.Hour)

	// Wire all dependencies
	app := wire.Wiring(repos, manager, tokens, config, logger)

	if config.Admin.Email != "" && config.Admin.Password != "" {
		if err := app.Service.Auth.SeedAdmin(ctx, config.Admin.Email, config.Admin.Password); err != nil {
			logger.Error("Failed to seed admin", zap.Error(err))
		}
	}

	// Expired session cleanup
	go cmd.SessionSweeper(ctx, app.Service.Auth,
		time.Duration(config.JWT.SessionSweepMinutes)*time.Minute, logger)

	// Start server
	if err := cmd.APIServer(ctx, app.Router, config.App.Port, 15*time.Second, logger); err != nil {
		logger.Error("HTTP server stopped", zap.Error(err))
	}

	// Shutdown in reverse order of dependency
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("Event dispatcher did not drain", zap.Error(err))
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close broker", zap.Error(err))
		}
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to flush traces", zap.Error(err))
	}
	closeStore()

	logger.Info("Application stopped")
}

// openStorage returns the repository bundle for the configured driver and a
// func that releases it.
func openStorage(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func()) {
	if config.Database.Driver == "memory" {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewRepository(memory.NewStore()), func() {}
	}

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database schema applied")
	}

	return repository.NewRepository(db, logger), db.Close
}

func newLocker(config *utils.Config, logger *zap.Logger) lock.Locker {
	if config.Redis.Addr == "" {
		return lock.NewKeyedMutex()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	logger.Info("Using Redis ride lock", zap.String("addr", config.Redis.Addr))
	return lock.NewRedisLocker(client, lock.RedisConfig{
		TTL: time.Duration(config.Redis.LockTTLSec) * time.Second,
	}, logger)
}
