package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"parkease/pkg/app"
	"parkease/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load("parkd")
	cfg.SetMongo()

	application, err := app.NewApplication(cfg)
	if err != nil {
		cfg.Log.Fatal("failed to build application", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		cfg.Log.Info("shutdown signal received")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		application.Shutdown(shutdownCtx)
	}()

	if err := application.Start(ctx); err != nil {
		cfg.Log.Fatal("server failed", "error", err)
	}
}
