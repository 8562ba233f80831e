package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/config"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/database"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/httpapi"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/logger"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/repository"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/service"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/store"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/upload"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "solicitudes-hc")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)
	auth := service.NewAuthService(cfg.Admin.User, cfg.Admin.Password, kv, cfg.Session.TTL, log)

	// Postgres when available, in-memory repository otherwise so the form
	// keeps working during local development.
	var db *sql.DB
	var repo repository.SolicitudesRepository
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("Database connected", zap.String("database", cfg.Database.Database))
		} else {
			log.Warn("DB enabled but connection failed, falling back to in-memory repository", zap.Error(err))
		}
	}
	if db != nil {
		if err := applyMigrations(db, cfg.MigrationsDir, log); err != nil {
			log.Error("Failed to apply migrations", zap.Error(err))
			os.Exit(1)
		}
		repo = repository.NewPostgresSolicitudesRepository(db)
	} else {
		repo = repository.NewMemorySolicitudesRepository()
		log.Info("Using in-memory repository")
	}

	uploads, err := upload.NewDiskStore(cfg.Uploads.Dir)
	if err != nil {
		log.Error("Failed to prepare uploads directory", zap.Error(err))
		os.Exit(1)
	}

	svc := service.NewSolicitudService(repo, log)

	router := httpapi.NewRouter(log)
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(auth, log))
	router.RegisterSolicitudesRoutes(httpapi.NewSolicitudesHandler(svc, auth, uploads, log))
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(db, log))
	router.RegisterUploadsRoutes(uploads.Dir())

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}

// applyMigrations runs every .sql file in dir in lexical order. Statements
// use IF NOT EXISTS so re-running at startup is harmless.
func applyMigrations(db *sql.DB, dir string, log *zap.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Migrations directory not found, skipping", zap.String("dir", dir))
			return nil
		}
		return fmt.Errorf("failed to read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		sqlBytes, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
		log.Info("Applied migration", zap.String("file", name))
	}
	return nil
}
