package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"task-service/internal/api"
	"task-service/internal/cache"
	"task-service/internal/config"
	"task-service/internal/events"
	"task-service/internal/jwt"
	"task-service/internal/mongostore"
	"task-service/internal/repository"
	"task-service/internal/s3"
	"task-service/internal/service"
	"task-service/internal/tracing"
	_ "task-service/migrations"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	api.SetupGlobalHandler(cfg.ServiceName, !cfg.IsProduction())

	ctx := context.Background()

	shutdownTracer, err := tracing.InitTracerProvider(ctx, cfg.ServiceName, cfg.OtelEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("Error shutting down tracer provider", "error", err)
		}
	}()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	userRepo := store.Users()
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		userRepo = cache.NewUserRepository(userRepo, rdb, cfg.UserCacheTTL)
		slog.Info("User cache enabled", "addr", cfg.RedisAddr)
	}

	var eventPublisher events.EventPublisher = events.NoopPublisher{}
	if cfg.NatsURL != "" {
		natsPublisher, nc, err := events.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Drain()
		eventPublisher = natsPublisher
		slog.Info("Successfully connected to NATS.")
	}

	codec, err := jwt.NewCodec(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("Failed to create session codec: %v", err)
	}

	authOpts := []api.AuthHandlerOption{api.WithSecureCookies(cfg.IsProduction())}
	if cfg.S3Enabled() {
		presigner, err := s3.NewFilePresigner(ctx, s3.Options{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			log.Fatalf("Failed to create S3 presigner: %v", err)
		}
		authOpts = append(authOpts, api.WithAvatarPresigner(presigner))
	}

	authService := service.NewAuthService(userRepo, codec)
	taskService := service.NewTaskService(store.Tasks(), eventPublisher)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())

	api.SetupRoutes(app, codec, api.Handlers{
		Auth:   api.NewAuthHandler(authService, codec.TTL(), authOpts...),
		Tasks:  api.NewTaskHandler(taskService),
		Health: api.NewHealthHandler(cfg.ServiceName, store),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Listening", "service", cfg.ServiceName, "port", cfg.AppPort, "store", cfg.StoreDriver)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		slog.Error("Server stopped", "error", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func()) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		slog.Warn("Using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), func() {}

	case config.StoreMongo:
		client, store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create MongoDB indexes: %v", err)
		}
		slog.Info("Successfully connected to MongoDB.")
		return store, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Error("Error disconnecting from MongoDB", "error", err)
			}
		}

	default:
		db := connectDB(cfg.DatabaseURL())
		return repository.NewPostgresStore(db), func() { db.Close() }
	}
}

func connectDB(dbURL string) *sqlx.DB {
	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	slog.Info("Successfully connected to the database.")
	return db
}

func handleMigrations() {
	fmt.Println("Running database migrations...")

	db, err := sql.Open("pgx", config.DatabaseURLFromEnv())
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	fmt.Println("Migrations applied successfully!")
}
