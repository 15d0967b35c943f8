package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/campaign-evaluation/internal/config"
	"github.com/unclebandit/campaign-evaluation/internal/db"
	"github.com/unclebandit/campaign-evaluation/internal/logging"
	"github.com/unclebandit/campaign-evaluation/internal/metrics"
	"github.com/unclebandit/campaign-evaluation/internal/queue"
	"github.com/unclebandit/campaign-evaluation/internal/repository"
	"github.com/unclebandit/campaign-evaluation/internal/service"
)

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.AMQPURL == "" {
		logger.Fatal("AMQP_URL is required for the worker")
	}

	metrics.SetGlobal(metrics.New())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to DB
	database, err := db.Open(ctx, cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Connect to RabbitMQ
	q, err := queue.DialAMQP(cfg.AMQPURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer q.Close()

	if err := run(q, cfg.RecalcQueue, &repository.CampaignItemRepository{DB: database}, logger); err != nil {
		logger.Fatal("failed to register consumer", zap.Error(err))
	}

	logger.Info("worker running, waiting for recalculation jobs", zap.String("queue", cfg.RecalcQueue))
	<-ctx.Done()
	logger.Info("worker stopped")
}

// run subscribes a recalculation worker backed by store to topic.
func run(q queue.Queue, topic string, store service.RecalculationStore, logger *zap.Logger) error {
	worker := service.NewRecalculationWorker(store, logger, metrics.Global())
	return queue.StartRecalculationSubscriber(q, topic, logger, worker.Process)
}
