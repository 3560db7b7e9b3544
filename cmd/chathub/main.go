package main

import (
	"chat-hub/gateway"
	"chat-hub/internal"
	"chat-hub/moderation"
	"chat-hub/runtime"
	"chat-hub/search"
	"chat-hub/services"
	"chat-hub/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat hub terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Returning instead of exiting lets every defer (badger, bluge) run before the process ends.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := storage.OpenBadger(config.BadgerFilepath, log)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Moderation & Search
	options := runtime.Options{
		RejectEmptyBody:      config.RejectEmptyBody,
		RejectDuplicateUsers: config.RejectDuplicateUsers,
		BufferSize:           config.BufferSize,
		RestartInterval:      config.RestartInterval,
	}
	words := moderation.ParseWords(config.CensoredWords)
	if config.CensoredWordsDir != "" {
		data, err := moderation.NewCensoredLoader(os.DirFS(config.CensoredWordsDir)).LoadAll(".")
		if err != nil {
			return exitConfig, fmt.Errorf("censored words error: %w", err)
		}
		log.Info("Censored dictionaries loaded", "languages", data.Languages, "words", len(data.Words))
		words = append(words, data.Words...)
	}
	if len(words) > 0 {
		moderator, err := moderation.NewModerator(words, charReplacement, log)
		if err != nil {
			return exitConfig, fmt.Errorf("moderator error: %w", err)
		}
		options.Moderator = moderator
	}
	if config.SearchEnabled {
		index, err := search.NewIndex(config.BlugeFilepath, log)
		if err != nil {
			return exitRuntime, err
		}
		defer func() {
			log.Info("Closing search index...")
			_ = index.Close()
		}()
		options.Index = index
	}

	// 4. Orchestration
	orchestrator, err := runtime.NewOrchestrator(log, storage.NewBadgerStore(db), options)
	if err != nil {
		return exitRuntime, fmt.Errorf("orchestrator failed to load: %w", err)
	}
	service := services.NewChatService(orchestrator, config.MaxContentLength, config.SearchLimit)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		_ = orchestrator.Start(ctx)
	}()

	// 6. Websocket gateway & debug view
	mux := http.NewServeMux()
	mux.Handle("/ws", gateway.NewServer(log, service, config.ConnectionBufferSize))
	if config.DebugInspect {
		mux.Handle("/inspect", internal.NewInspectHandler(db, internal.StoredEntryMapper, func() map[string]any {
			return map[string]any{
				"Subscribers": orchestrator.Hub.Subscribers(),
				"Rooms":       len(service.ListRooms()),
				"Users":       len(service.Users()),
				"Time":        time.Now().Format(time.RFC822),
			}
		}))
	}
	server := &http.Server{
		Addr:              config.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting websocket gateway", "address", server.Addr, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("gateway error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	code := exitOK
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err = <-errChan:
		code = exitRuntime
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("Gateway shutdown failed", "error", shutdownErr)
	}
	orchestrator.Stop()
	<-workersDone
	log.Info("Program stopped cleanly")
	return code, err
}
