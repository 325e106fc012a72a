package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"WhatsappReminder/internal/config"
	"WhatsappReminder/pkg/log"
	"WhatsappReminder/pkg/whatsapp"
	"github.com/joho/godotenv"
	"golang.org/x/net/context"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded, using process environment: %v", err)
	}

	validator := config.NewValidator()
	settings, err := config.LoadSettings(validator)
	if err != nil {
		logger.Fatal(err)
	}

	if settings.SessionDriver == whatsapp.SessionDriverSQLite {
		if err := whatsapp.CheckSessionFolder(settings.SessionDir, logger); err != nil {
			if errors.Is(err, whatsapp.ErrSessionUnrecoverable) {
				logger.Fatalf("Could not repair WhatsApp session: %v", err)
			}
			logger.Fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fiberApp := config.NewFiber(logger)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithSettings(settings),
		config.WithValidator(validator),
		config.WithUtils(),
		config.WithMetrics(),
		config.WithDatabase(),
		config.WithRedisServer(),
		config.WithConversationStore(),
		config.WithS3Client(),
		config.WithContent(),
		config.WithMiddleware(),
		config.WithAllowList(),
		config.WithWhatsappClient(ctx),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	go func() {
		if err := server.Run(ctx); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-ctx.Done()
	logger.Info("Shutting down server...")
	server.Shutdown()
}
