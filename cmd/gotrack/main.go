package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mfachrulrazy/smartgotrack-app/internal/assistant"
	"github.com/mfachrulrazy/smartgotrack-app/internal/auth"
	"github.com/mfachrulrazy/smartgotrack-app/internal/chat"
	"github.com/mfachrulrazy/smartgotrack-app/internal/config"
	apphttp "github.com/mfachrulrazy/smartgotrack-app/internal/http"
	"github.com/mfachrulrazy/smartgotrack-app/internal/intake"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
	"github.com/mfachrulrazy/smartgotrack-app/internal/session"
	"github.com/mfachrulrazy/smartgotrack-app/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("starting gotrack server")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := store.Open(ctx, store.Config{
		Type:         store.Backend(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		AMQPQueue:    cfg.AMQPQueue,
		DataDir:      cfg.DataDir,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize storage backend",
			log.FieldBackend, cfg.DataBackend,
			log.FieldError, err)
		os.Exit(1)
	}
	defer backend.Cleanup()

	var au auth.Authenticator
	switch cfg.AuthBackend {
	case "google":
		au, err = auth.NewGoogleAuthenticator(ctx, cfg.GoogleClientID, logger)
		if err != nil {
			logger.Error("failed to initialize Google authenticator", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("initialized Google sign-in", "client_id", cfg.GoogleClientID)
	default:
		au = auth.NewStaticAuthenticator()
		logger.Warn("using static authentication, do not expose to real traffic")
	}

	// The assistant is optional. Without an API key the chat endpoints
	// stay up but answer with canned copy.
	var asst assistant.Assistant
	if cfg.GeminiAPIKey != "" {
		gem, err := assistant.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiInsightsModel, logger)
		if err != nil {
			logger.Error("failed to initialize Gemini assistant", log.FieldError, err)
			os.Exit(1)
		}
		asst = gem
		logger.Info("initialized Gemini assistant", log.FieldModel, cfg.GeminiModel)
	} else {
		asst = assistant.Unavailable{}
		logger.Info("Gemini disabled, no GEMINI_API_KEY provided")
	}

	sessions := session.NewManager(backend.Store, logger)

	var publisher intake.SyncPublisher
	if backend.Publisher != nil {
		publisher = backend.Publisher
	}
	in := intake.NewService(backend.Store, publisher, logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:          ":" + cfg.Port,
		Store:         backend.Store,
		Sessions:      sessions,
		Intake:        in,
		Chat:          chat.NewService(asst, in, logger),
		Assistant:     asst,
		Authenticator: au,
		Logger:        logger,
		CacheSize:     cfg.CacheSize,
		CacheTTL:      cfg.CacheTTL,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting gotrack server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped gracefully")
}
