package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"movequote-backend/config"
	"movequote-backend/internal/api"
	"movequote-backend/internal/detect"
	"movequote-backend/internal/pricing"
	"movequote-backend/internal/route"
	"movequote-backend/internal/wizard"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "quote-backend ", log.LstdFlags)

	// Credentials come from the environment; .env is optional in dev.
	if err := godotenv.Load(); err == nil {
		logger.Println(".env file loaded")
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("no config file at %s, using defaults", configPath)
			cfg = config.Default()
		} else {
			logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
		}
	} else {
		logger.Printf("configuration loaded successfully from %s", configPath)
	}

	// Wire the pricing engine with the configured rate table.
	engine := pricing.NewEngine(
		pricing.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
		pricing.WithBaseRates(cfg.Pricing.BaseRates),
		pricing.WithServiceFee(cfg.Pricing.ServiceFeeBase, cfg.Pricing.ServiceFeeSpread),
		pricing.WithTravelRate(cfg.Pricing.TravelPerMile),
	)

	// External adapters pick their mode from credential presence.
	detector := detect.New(&cfg.Vision)
	if cfg.Vision.Configured() {
		logger.Println("item detector: vision service")
	} else {
		logger.Println("item detector: synthesized mode (no OPENAI_API_KEY)")
	}

	planner := route.New(&cfg.Routing)
	if cfg.Routing.Configured() {
		logger.Println("route planner: directions service")
	} else {
		logger.Println("route planner: straight-line estimate (no MAPS_API_KEY)")
	}

	store := wizard.NewStore(cfg.Session.TTL, cfg.Session.CleanupInterval)
	svc := wizard.NewService(engine, detector, planner, cfg.Session.MinLoadingVisible)
	logger.Printf("session store initialized (ttl %s)", cfg.Session.TTL)

	// Initialize router
	router := api.NewRouter(store, svc, engine, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
