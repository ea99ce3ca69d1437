// Command photoshare-devserver runs an in-memory photoshare API for local
// development of the client.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/devserver"
	"photoshare/internal/observability"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.IsProduction())

	srv, err := devserver.New(devserver.FromConfig(cfg, logger))
	if err != nil {
		log.Fatalf("Failed to create devserver: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down devserver...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Devserver shutdown error: %v", err)
		}
	}()

	for _, acc := range devserver.DemoAccounts {
		log.Printf("demo account: %s / %s (%s)", acc.Email, acc.Password, acc.Role)
	}
	log.Printf("Devserver starting on port %s...", cfg.DevServerPort)
	if err := srv.Listen(":" + cfg.DevServerPort); err != nil {
		log.Fatal(err)
	}
}
