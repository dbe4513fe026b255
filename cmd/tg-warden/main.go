package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"tg-warden/internal/bot"
	"tg-warden/internal/config"
	"tg-warden/internal/crash"
	"tg-warden/internal/handler"
	"tg-warden/internal/logger"
	"tg-warden/internal/service"
	"tg-warden/internal/storage"
)

func main() {
	defer crash.RecoverWithStackAndExit("main")

	// Define command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging first
	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	if err := storage.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("Database connection established")

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	promReg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize bot with configuration
	botService, server, err := bot.Initialize(ctx, cfg, promReg)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}

	platform := bot.NewTelegramPlatform(botService.Bot)
	registry := service.NewCommandRegistry("warns", "warnlist", "report")

	services, err := service.NewServices(storage.DB, platform, &cfg.Moderation, registry, promReg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	if err := services.Chats.WarmChatCache(); err != nil {
		log.Printf("Warning: could not preload chat cache: %v", err)
	}

	// Initialize handler with configuration and services
	handler.Initialize(cfg, services, platform)

	// Start HTTP server in a goroutine
	crash.SafeGoroutine("webhook-server", func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	})

	// Give server time to start
	time.Sleep(500 * time.Millisecond)
	log.Println("HTTP server is ready, starting bot handler...")

	// Setup and start message handlers
	handler.RegisterHandlers(botService.Handler, botService.Bot)
	botService.Start()

	// Create a channel for receiving OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for signal
	sig := <-sigChan
	log.Printf("Received signal: %v, shutting down...", sig)

	botService.Stop()

	// Gracefully shutdown server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Server gracefully stopped")
}
