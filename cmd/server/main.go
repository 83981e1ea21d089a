package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/taskchain/backend/internal/app/runtime"
)

func main() {
	// .env is optional; in deployment the environment is set directly.
	_ = godotenv.Load()

	application, err := runtime.NewApplication()
	if err != nil {
		log.Fatalf("initialise application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("run application: %v", err)
	}

	if err := application.Shutdown(context.Background()); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
