package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/recoleo/recoleo/internal/app"
	"github.com/recoleo/recoleo/internal/auth"
	"github.com/recoleo/recoleo/internal/clients"
	"github.com/recoleo/recoleo/internal/collections"
	"github.com/recoleo/recoleo/internal/contracts"
	"github.com/recoleo/recoleo/internal/documents"
	"github.com/recoleo/recoleo/internal/finance"
	"github.com/recoleo/recoleo/internal/formstate"
	"github.com/recoleo/recoleo/internal/inventory"
	"github.com/recoleo/recoleo/internal/observability"
	"github.com/recoleo/recoleo/internal/platform/cache"
	"github.com/recoleo/recoleo/internal/platform/db"
	"github.com/recoleo/recoleo/internal/platform/storage"
	"github.com/recoleo/recoleo/internal/reports"
	"github.com/recoleo/recoleo/jobs"
	"github.com/recoleo/recoleo/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, err := storage.New(storage.Config{
		Endpoint:        cfg.StorageEndpoint,
		AccessKeyID:     cfg.StorageAccessKey,
		SecretAccessKey: cfg.StorageSecretKey,
		Bucket:          cfg.StorageBucket,
		UseSSL:          cfg.StorageUseSSL,
		Region:          cfg.StorageRegion,
	})
	if err != nil {
		logger.Error("init object storage", slog.Any("error", err))
		os.Exit(1)
	}

	pdfClient := report.NewClient(cfg.GotenbergURL)
	if err := pdfClient.Ping(ctx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	authService := auth.NewService(auth.NewRepository(pool))
	clientsService := clients.NewService(clients.NewRepository(pool))
	financeService := finance.NewService(finance.NewRepository(pool))
	contractsService := contracts.NewService(contracts.NewRepository(pool),
		finance.NewContractReceivableAdapter(financeService))
	inventoryService := inventory.NewService(inventory.NewRepository(pool), inventory.ServiceConfig{})
	collectionsService := collections.NewService(collections.NewRepository(pool),
		inventory.NewCollectionStockAdapter(inventoryService),
		finance.NewCollectionReceivableAdapter(financeService))

	documentSource := app.NewDocumentSource(clientsService, contractsService, collectionsService)
	documentsService := documents.NewService(logger, documents.NewRepository(pool),
		pdfClient, store, documentSource, documentSource, jobsClient)

	reportsService := reports.NewService(logger, reports.NewTracker(redisClient),
		store, jobsClient, collectionsService, financeService)

	draftStore := formstate.NewRedisStore(redisClient, cfg.DraftTTL)

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		Metrics:     metrics,
		Auth:        authService,
		Clients:     clients.NewHandler(logger, clientsService),
		Contracts:   contracts.NewHandler(logger, contractsService),
		Collections: collections.NewHandler(logger, collectionsService),
		Finance:     finance.NewHandler(logger, financeService),
		Inventory:   inventory.NewHandler(logger, inventoryService),
		Documents:   documents.NewHandler(logger, documentsService),
		Reports:     reports.NewHandler(logger, reportsService),
		Drafts:      formstate.NewHandler(logger, draftStore),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
}
