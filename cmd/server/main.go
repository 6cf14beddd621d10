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

	"elior-fitness/internal/backend"
	"elior-fitness/internal/clipper"
	"elior-fitness/internal/config"
	"elior-fitness/internal/database"
	"elior-fitness/internal/llm"
	"elior-fitness/internal/metrics"
	"elior-fitness/internal/server"
	"elior-fitness/internal/telegram"
)

func main() {
	// 1. Load Configuration
	config.LoadDotEnv()
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. Initialize the SQLite database
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	bank := backend.NewClient(cfg, metricsStore)

	// 3. Optional LLM fallback for food import
	var textGen llm.TextGenerator
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer geminiClient.Close()
		textGen = geminiClient
	}
	foodClipper := clipper.NewClipper(bank, textGen, metricsStore)

	// 4. Optional Telegram Bot
	var bot *telegram.Bot
	if cfg.TelegramBotToken != "" {
		bot, err = telegram.NewBot(cfg, bank, foodClipper, metricsStore)
		if err != nil {
			log.Fatalf("Failed to initialize Telegram Bot: %v", err)
		}
	}

	var srv *server.Server
	if bot != nil {
		srv = server.New(bank, foodClipper, bot)
		srv.MountWebhook("/webhook", bot.HandleWebhook)
	} else {
		srv = server.New(bank, foodClipper, nil)
	}

	// 5. Start Server with Graceful Shutdown
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(),
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
