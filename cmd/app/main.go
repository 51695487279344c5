package main

import (
	"context"

	"locamat/internal/app"
	"locamat/internal/database/psql"
	"locamat/internal/database/sqlite"
	"locamat/pkg/config"
	"locamat/pkg/lib/logger"
	"locamat/pkg/lib/logger/sl"
	"locamat/pkg/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.SetupLogger(cfg.HTTP.Env)
	if err != nil {
		panic(err)
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	storage, err := psql.New(ctx, log, cfg.ConnectionString())
	if err != nil {
		panic(err)
	}

	slot, err := sqlite.New(ctx, log, cfg.Cart.SlotPath)
	if err != nil {
		storage.Close()
		panic(err)
	}

	application := app.New(ctx, log, cfg, storage, slot)

	if err := application.Run(ctx); err != nil {
		log.Error("Application stopped with error", sl.Err(err))
	}

	log.Info("Closing databases")
	if err := slot.Close(); err != nil {
		log.Error("Failed to close slot database", sl.Err(err))
	}
	if err := storage.Close(); err != nil {
		log.Error("Failed to close database", sl.Err(err))
	}
}
