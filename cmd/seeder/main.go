// cmd/seeder/main.go
package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-evaluation/internal/config"
	"github.com/unclebandit/campaign-evaluation/internal/db"
	"github.com/unclebandit/campaign-evaluation/internal/logging"
)

var seedFiles = []string{
	"seed/schema.sql",
	"seed/accounts.sql",
	"seed/campaign_items.sql",
}

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Fatal("failed to read seed file", zap.String("file", file), zap.Error(err))
		}
		if _, err := database.ExecContext(ctx, string(content)); err != nil {
			logger.Fatal("failed to execute seed file", zap.String("file", file), zap.Error(err))
		}
		logger.Info("seeded", zap.String("file", file))
	}

	logger.Info("database seeding completed")
}
