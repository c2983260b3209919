package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/storkforge/petconnect/cmd/app"
	"github.com/storkforge/petconnect/internal/adapters/config"
	"github.com/storkforge/petconnect/pkg/logger"

	_ "time/tzdata"
)

func main() {
	cfg := config.Get()
	defer logger.Sync()

	a, err := app.New(cfg)
	if err != nil {
		log.Panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = a.Run(ctx); err != nil {
		logger.Log.Errorf("Reminder engine stopped with error: %v", err)
	}
}
