// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-evaluation/internal/account"
	"github.com/unclebandit/campaign-evaluation/internal/config"
	"github.com/unclebandit/campaign-evaluation/internal/controller"
	"github.com/unclebandit/campaign-evaluation/internal/db"
	"github.com/unclebandit/campaign-evaluation/internal/handler"
	"github.com/unclebandit/campaign-evaluation/internal/logging"
	"github.com/unclebandit/campaign-evaluation/internal/metrics"
	"github.com/unclebandit/campaign-evaluation/internal/queue"
	"github.com/unclebandit/campaign-evaluation/internal/repository"
	"github.com/unclebandit/campaign-evaluation/internal/service"
)

func main() {
	cfg, loaded, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	if !loaded {
		logger.Info("no .env file found, relying on OS environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	m := metrics.New()
	metrics.SetGlobal(m)

	itemRepo := &repository.CampaignItemRepository{DB: database}
	picklistRepo := &repository.PicklistRepository{DB: database}
	accountRepo := &repository.AccountRepository{DB: database}

	var q queue.Queue
	if cfg.AMQPURL != "" {
		aq, err := queue.DialAMQP(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer aq.Close()
		q = aq
	} else {
		// without a broker the recalculation worker runs in process
		mq := queue.NewInMemoryQueue(logger)
		worker := service.NewRecalculationWorker(itemRepo, logger, m)
		if err := queue.StartRecalculationSubscriber(mq, cfg.RecalcQueue, logger, worker.Process); err != nil {
			logger.Fatal("failed to subscribe recalculation worker", zap.Error(err))
		}
		q = mq
	}

	evaluations := &service.EvaluationService{
		ItemRepo:           itemRepo,
		Picklists:          picklistRepo,
		Publisher:          &queue.RecalculationPublisher{Queue: q, Topic: cfg.RecalcQueue},
		Logger:             logger,
		Metrics:            m,
		SessionTTL:         cfg.SessionTTL,
		DuplicateABMessage: cfg.DuplicateABMessage,
		UnpackVirtualRows:  cfg.UnpackVirtualRows,
	}
	go evaluations.RunJanitor(ctx, time.Minute)

	evaluationController := &controller.EvaluationController{Service: evaluations, Logger: logger}
	accountController := &controller.AccountController{
		Service:     account.NewService(accountRepo, accountRepo, logger),
		Searcher:    accountRepo,
		LookupLimit: cfg.LookupLimit,
		Logger:      logger,
	}
	itemHandler := handler.NewCampaignItemHandler(itemRepo, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(m.HTTPMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", m.Handler())

	evaluationController.Routes(r)
	accountController.Routes(r)
	r.Get("/campaign-items/{itemId}/store-numbers", itemHandler.StoreNumbersHandler)
	r.Put("/campaign-items/{itemId}/fields", itemHandler.UpdateFieldsHandler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server running", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if mq, ok := q.(*queue.InMemoryQueue); ok {
		mq.Wait()
	}
	logger.Info("server stopped")
}
