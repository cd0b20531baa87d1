// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"nextrep/internal/cache"
	"nextrep/internal/config"
	"nextrep/internal/domain"
	"nextrep/internal/exercise"
	"nextrep/internal/handler"
	"nextrep/internal/service"
	"nextrep/internal/storage"
	customLogger "nextrep/pkg/logger"
)

// substrate is a storage backend the server owns and must close on exit
type substrate interface {
	storage.Substrate
	io.Closer
}

// gormWriter wraps our custom logger to implement gorm's logger.Writer interface
type gormWriter struct {
	logger *customLogger.Logger
}

// Printf implements the logger.Writer interface
func (w *gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Info(fmt.Sprintf(format, args...))
}

func main() {
	// Simple health check for Docker - just make HTTP request to existing server
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8081"
		}
		os.Exit(healthcheck("http://localhost:" + port + "/health"))
	}

	// Load environment variables from .env file (development only)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := customLogger.NewLogger(customLogger.Options{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		LogDir:      cfg.LogDir,
	})
	defer appLogger.Sync()
	appLogger.Infow("Starting NextRep exercise service", "environment", cfg.Environment, "storage", cfg.StorageBackend)

	backend := initSubstrate(cfg, appLogger)

	codec, err := cache.CodecByName(cfg.CacheCodec)
	if err != nil {
		appLogger.Fatalw("Invalid cache codec", "error", err)
	}

	registry := cache.NewRegistry()
	caches := buildCaches(backend, codec, cfg, registry, appLogger)

	client := exercise.NewClient(exercise.Options{
		BaseURL:  cfg.ExerciseAPIBaseURL,
		APIKey:   cfg.ExerciseAPIKey,
		APIHost:  cfg.ExerciseAPIHost,
		Timeout:  cfg.ExerciseAPITimeout,
		PageSize: cfg.ExercisePageSize,
	})

	exerciseService := service.NewExerciseService(client, caches, appLogger.Named("service"))

	router := handler.SetupRouter(exerciseService, registry, cfg, appLogger)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.ExerciseAPITimeout + 15*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	if cfg.PreloadOnStart {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			exerciseService.Preload(ctx, cfg.PreloadBodyParts)
		}()
	}

	// Start server in a goroutine for graceful shutdown
	go func() {
		appLogger.Infow("Server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Errorw("Server forced to shutdown", "error", err)
	}

	if err := backend.Close(); err != nil {
		appLogger.Errorw("Error closing storage backend", "storage", cfg.StorageBackend, "error", err)
	}

	appLogger.Info("Server exited successfully")
}

// healthcheck requests url and returns the process exit code
func healthcheck(url string) int {
	resp, err := http.Get(url)
	if err != nil {
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}

// initSubstrate connects the configured storage backend. A backend that
// cannot be reached degrades to the in-memory store so the service keeps
// answering from the exercise API.
func initSubstrate(cfg *config.Config, log *customLogger.Logger) substrate {
	switch cfg.StorageBackend {
	case "redis":
		store, err := storage.NewRedisStore(storage.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Root:     cfg.RedisRoot,
		})
		if err == nil {
			log.Infow("Redis storage connected", "addr", cfg.RedisAddr)
			return store
		}
		log.Warnw("Failed to initialize Redis storage, continuing with in-memory storage", "error", err)

	case "postgres":
		db, err := initDatabase(cfg, log)
		if err == nil {
			store, err := storage.NewPostgresStore(db)
			if err == nil {
				return store
			}
			log.Warnw("Failed to migrate cache table, continuing with in-memory storage", "error", err)
		} else {
			log.Warnw("Failed to initialize database, continuing with in-memory storage", "error", err)
		}
	}

	return storage.NewMemoryStore()
}

// buildCaches creates the three cache namespaces on one substrate and
// registers them for the administration endpoints
func buildCaches(backend storage.Substrate, codec cache.Codec, cfg *config.Config, registry *cache.Registry, log *customLogger.Logger) service.Caches {
	storeLog := log.Named("cache")
	storeOpts := []cache.Option{cache.WithCodec(codec), cache.WithLogger(storeLog)}
	fetcherOpts := []cache.FetcherOption{cache.WithFetcherLogger(storeLog)}
	if cfg.CacheSingleFlight {
		fetcherOpts = append(fetcherOpts, cache.WithSingleFlight())
	}

	lists := cache.New[[]domain.Exercise](backend, namespace(cfg.ExerciseCache), storeOpts...)
	details := cache.New[domain.ExerciseDetail](backend, namespace(cfg.ExerciseDetailCache), storeOpts...)
	general := cache.New[[]domain.Category](backend, namespace(cfg.GeneralCache), storeOpts...)

	for name, h := range map[string]cache.Handle{
		"exercises":        lists,
		"exercise_details": details,
		"general":          general,
	} {
		if err := registry.Register(name, h); err != nil {
			log.Fatalw("Failed to register cache namespace", "namespace", name, "error", err)
		}
	}
	if err := registry.Derive("exercises", "general", service.CategoriesKey); err != nil {
		log.Fatalw("Failed to link category summary to exercise lists", "error", err)
	}

	return service.Caches{
		Exercises: cache.NewFetcher(lists, fetcherOpts...),
		Details:   cache.NewFetcher(details, fetcherOpts...),
		General:   cache.NewFetcher(general, fetcherOpts...),
	}
}

func namespace(nc config.NamespaceConfig) cache.Namespace {
	return cache.Namespace{KeyPrefix: nc.KeyPrefix, DefaultTTL: nc.DefaultTTL}
}

// initDatabase initializes the PostgreSQL database connection with connection pooling
func initDatabase(cfg *config.Config, log *customLogger.Logger) (*gorm.DB, error) {
	gormLog := gormlogger.New(
		&gormWriter{logger: log.Named("gorm")},
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	// Connect to PostgreSQL with retry logic
	var db *gorm.DB
	var err error

	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
			Logger:                 gormLog,
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
		})
		if err == nil {
			break
		}

		log.Warnw("Failed to connect to database, retrying...", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection established successfully")
	return db, nil
}
