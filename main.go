package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pathakanu/vitalTrack/internal/api"
	"github.com/pathakanu/vitalTrack/internal/bot"
	"github.com/pathakanu/vitalTrack/internal/config"
	"github.com/pathakanu/vitalTrack/internal/database"
	myopenai "github.com/pathakanu/vitalTrack/internal/openai"
	"github.com/pathakanu/vitalTrack/internal/store"
	"github.com/pathakanu/vitalTrack/internal/twilio"
)

func main() {
	logger := log.New(os.Stdout, "[vitalTrack] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load()

	db, err := database.New(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Fatalf("database init failed: %v", err)
	}

	eventStore := store.New(db, store.WithLocation(cfg.LocalTimezone))
	openAIClient := myopenai.New(cfg.OpenAIAPIKey)

	var messenger bot.Messenger
	if cfg.TwilioAccountSID != "" && cfg.TwilioWhatsAppNumber != "" {
		messenger = twilio.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, logger)
	} else {
		logger.Printf("twilio not configured, daily digest disabled")
	}

	diaryBot := bot.New(cfg, eventStore, openAIClient, messenger, logger)
	if err := diaryBot.StartScheduler(); err != nil {
		logger.Fatalf("scheduler start: %v", err)
	}

	mux := http.NewServeMux()
	api.New(eventStore, logger, cfg.LocalTimezone, cfg.TrendWindowDays).Register(mux)
	mux.Handle("POST /twilio/webhook", diaryBot.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(server, diaryBot, logger)
}

func waitForShutdown(server *http.Server, diaryBot *bot.Bot, logger *log.Logger) {
	stopCtx := make(chan os.Signal, 1)
	signal.Notify(stopCtx, syscall.SIGINT, syscall.SIGTERM)
	<-stopCtx
	logger.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
	diaryBot.StopScheduler()
}
