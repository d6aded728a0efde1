package main

import (
	"context"
	"log"

	"clipquiz/internal/config"
	"clipquiz/internal/database"
	"clipquiz/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.NewSQLXOracleDB(ctx, cfg.GetDSN())
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, l)
	if err != nil {
		l.Fatal("Failed to load migrations", zap.Error(err))
	}
	applied, err := migrator.Up(ctx)
	if err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err), zap.Strings("applied", applied))
	}
	l.Info("Migrations completed successfully", zap.Int("applied", len(applied)))
}
