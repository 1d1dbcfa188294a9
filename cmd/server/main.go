package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pairfocus/internal/cache"
	"pairfocus/internal/config"
	"pairfocus/internal/coordinator"
	"pairfocus/internal/repository"
	"pairfocus/internal/service"
	"pairfocus/internal/transport/rest"
	"pairfocus/internal/transport/ws"
)

const sweepInterval = 10 * time.Minute

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database("pairfocus")

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Room store with the push feed and the expiry sweeper wired in
	store := coordinator.NewStore(clockwork.NewRealClock())
	store.SetNotifier(wsHub)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go store.RunSweeper(sweepCtx, sweepInterval)

	// Initialize repositories and caches
	userRepo := repository.NewUserRepo(db)
	ranking := cache.NewRankingCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(userRepo)
	statsSvc := service.NewStatsService(userRepo, ranking)

	router := rest.NewRouter(&rest.Container{
		Store:        store,
		AuthService:  authSvc,
		StatsService: statsSvc,
		WSHub:        wsHub,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /join_room")
		log.Println("  POST /start_timer")
		log.Println("  POST /cancel_timer")
		log.Println("  GET  /room_status")
		log.Println("  WS   /ws/rooms/{room_name}")
		log.Println("  POST /register /login /add_time")
		log.Println("  GET  /ranking")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
