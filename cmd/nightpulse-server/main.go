package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/rxkshit04/nightpulse/internal/api"
	"github.com/rxkshit04/nightpulse/internal/config"
	"github.com/rxkshit04/nightpulse/internal/geocode"
	"github.com/rxkshit04/nightpulse/internal/location"
	"github.com/rxkshit04/nightpulse/internal/logging"
	"github.com/rxkshit04/nightpulse/internal/repository"
	"github.com/rxkshit04/nightpulse/internal/session"
	"github.com/rxkshit04/nightpulse/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "store", cfg.Store.Backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, err := openStore(ctx, cfg.Store)
	if err != nil {
		logging.Fatalf("Failed to initialize store: %v", err)
	}
	defer docs.Close()

	sessions := session.NewManager(store.NewLocal(docs, cfg.Store.Collection), session.Config{
		Location: location.Options{
			HighAccuracy: cfg.Location.HighAccuracy,
			MaximumAge:   cfg.Location.MaximumAge,
			Timeout:      cfg.Location.Timeout,
		},
		IdleTimeout:  cfg.Session.IdleTimeout,
		ReapInterval: cfg.Session.ReapInterval,
	})
	sessions.Start(ctx)

	geocoder := geocode.NewNominatim(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	handler := api.NewHandler(docs, geocoder, sessions, api.HandlerConfig{
		Collection: cfg.Store.Collection,
		GeocodeRPS: cfg.Geocoder.RPS,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	// Closing sessions ends their event streams so Shutdown does not wait on them.
	sessions.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

func openStore(ctx context.Context, cfg config.StoreConfig) (repository.DocumentStore, error) {
	switch cfg.Backend {
	case "redis":
		return repository.NewRedisStore(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.RedisPrefix)
	default:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("error creating database directory: %w", err)
			}
		}
		return repository.NewSQLiteDB(cfg.DBPath)
	}
}
