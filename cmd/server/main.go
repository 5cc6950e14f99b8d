package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smooze.app/wingman/internal/api"
	"smooze.app/wingman/internal/config"
	"smooze.app/wingman/internal/core"
	"smooze.app/wingman/internal/store"
	"smooze.app/wingman/internal/ui"
)

func main() {
	// Command line flag to print the theme manifest and exit
	printThemeFlag := flag.Bool("print-theme", false, "Print the chat theme and font manifest as JSON and exit")
	flag.Parse()

	// Theme and fonts are fixed; load them before serving anything
	theme := ui.DarkTheme()
	if *printThemeFlag {
		if err := printJSON(theme); err != nil {
			log.Fatalf("Failed to print theme: %v", err)
		}
		os.Exit(0)
	}

	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.Debug() {
		log.Println("Service starting in DEBUG mode")
	}
	log.Printf("Loaded %s theme with %d fonts", theme.Name, len(theme.Fonts))

	// Initialize the turn journal (optional)
	var journal core.TurnJournal
	if config.AppConfig.DatabaseURL != "" {
		dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer dbStore.Close()
		journal = dbStore
	} else {
		log.Println("DATABASE_URL is empty, turn diagnostics disabled")
	}

	// Initialize inference client
	completer, err := core.NewCompleter(context.Background(), config.AppConfig)
	if err != nil {
		log.Fatalf("Failed to initialize %s completer: %v", config.AppConfig.LLMProvider, err)
	}
	defer core.CloseCompleter(completer)
	log.Printf("Using %s inference provider", config.AppConfig.LLMProvider)

	// Initialize Chat service
	pipeline := core.NewPipeline(completer, config.AppConfig.Debug())
	chatService := core.NewChatService(pipeline, journal)
	defer chatService.Shutdown()

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(chatService, theme)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: turns have no deadline and websockets stay open.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// chatService, completer and dbStore are closed by their defers.
	log.Println("Server exiting gracefully")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
