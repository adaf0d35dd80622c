package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"athleteapi/internal/app"
)

// @title        Athlete API
// @version      1.0
// @description  Phone verification, guest login and session tokens.
// @BasePath     /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("athlete api: %v", err)
	}
}
