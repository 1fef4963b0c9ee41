package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	_ "github.com/joho/godotenv/autoload"
	"github.com/mama165/sdk-go/logs"

	"messenger-lab/infrastructure/httpapi"
	"messenger-lab/moderation"
	"messenger-lab/repositories"
	"messenger-lab/runtime"
	"messenger-lab/runtime/workers"
	"messenger-lab/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() error {
	// 1. Configuration & Logger
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Databases (BadgerDB + Bluge username index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		_ = blugeWriter.Close()
	}()

	// 3. Core components
	var moderator *moderation.Moderator
	if config.EnableModeration {
		moderator, err = moderation.NewDefaultModerator(moderationRune(config.ModerationChar))
		if err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
	}

	registry := runtime.NewRegistry(log)
	relay := runtime.NewRelay(registry, log)
	conversationRepository := repositories.NewConversationRepository(db, log)
	userRepository := repositories.NewUserRepository(db, blugeWriter, log)

	engine, err := runtime.NewEngine(log, conversationRepository, relay, moderator,
		config.RetentionWindow)
	if err != nil {
		return fmt.Errorf("engine failed to load conversations: %w", err)
	}

	// 4. Context, signals & supervised workers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supervisor := workers.NewSupervisor(log)
	supervisor.Add(workers.NewRetentionWorker(log, engine, config.SweepInterval))
	go supervisor.Run(ctx)

	// 5. Services & HTTP server
	chatService := services.NewChatService(engine, registry, relay)
	authService := services.NewAuthService(userRepository, config.AuthTokenDuration)
	handler := httpapi.NewHandler(log, chatService, authService, registry,
		config.ConnectionBufferSize)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: httpapi.NewRouter(handler)}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	supervisor.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

func moderationRune(value string) rune {
	runes := []rune(value)
	if len(runes) == 0 {
		return '*'
	}
	return runes[0]
}
