package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trackgen/internal/api/router"
	"trackgen/internal/cache"
	"trackgen/internal/config"
	"trackgen/internal/core/repository"
	"trackgen/internal/core/service"
	"trackgen/internal/protocol/gps103"
	"trackgen/internal/protocol/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Positions go to MongoDB when configured, otherwise stay in memory.
	var positionRepo repository.PositionRepository
	if cfg.Server.MongoURI != "" {
		db, err := config.ConnectMongoDB(ctx, cfg.Server.MongoURI, cfg.Server.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer db.Client().Disconnect(context.Background())

		mongoRepo := repository.NewMongoPositionRepository(db)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			log.Printf("Failed to create position indexes: %v", err)
		}
		positionRepo = mongoRepo
	} else {
		log.Println("MongoDB URI not provided, storing positions in memory")
		positionRepo = repository.NewInMemoryPositionRepository()
	}

	latestCache := cache.New(ctx, cfg.Server.RedisURL)
	defer latestCache.Close()

	decoder := gps103.NewDecoder()
	decoder.EnableDebug(cfg.Server.Debug)
	positionService := service.NewPositionService(positionRepo, latestCache, decoder)

	tcpServer := server.NewTCPServer(cfg.Server.TCPAddress, positionService)
	if err := tcpServer.Start(); err != nil {
		log.Fatalf("Failed to start TCP server: %v", err)
	}
	defer tcpServer.Stop()

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddress,
		Handler: router.NewRouter(positionService),
	}
	go func() {
		log.Printf("HTTP server starting on %s", cfg.Server.HTTPAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
}
