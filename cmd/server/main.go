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
	"github.com/joho/godotenv"
	"github.com/playmatatu/tablesim/internal/api"
	"github.com/playmatatu/tablesim/internal/config"
	"github.com/playmatatu/tablesim/internal/database"
	"github.com/playmatatu/tablesim/internal/game"
	"github.com/playmatatu/tablesim/internal/migrations"
	"github.com/playmatatu/tablesim/internal/redis"
	"github.com/playmatatu/tablesim/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Postgres is optional; without it tables live only in memory and Redis
	db := database.ConnectOptional(cfg.DatabaseURL)
	if db != nil {
		defer db.Close()
		if cfg.MigrateOnStart {
			log.Println("Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.DefaultDir); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
	}

	rdb := redis.ConnectOptional(cfg.RedisURL)
	if rdb != nil {
		defer rdb.Close()
	}

	game.InitializeManager(db, rdb, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws.SetRedisClient(rdb, cfg)
	ws.StartFrameSubscriber(ctx)

	// With Redis the subscriber fans frames out; without it the worker hands them to the hub
	var sink game.FrameSink
	if rdb == nil {
		sink = ws.BroadcastFrame
	}
	go game.StartTickWorker(ctx, game.Manager, cfg, sink)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, rdb, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting tablesim server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}
