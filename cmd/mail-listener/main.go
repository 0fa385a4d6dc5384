package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vedexpert/internal/app"
	"vedexpert/internal/config"
	"vedexpert/internal/listener"
	"vedexpert/internal/logging"
	"vedexpert/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Configure(cfg.LogLevel, cfg.LogFormat)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := app.Build(ctx, cfg)
	must(err)
	must(listener.NewService(db, cfg, svc).Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
