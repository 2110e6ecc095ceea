package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/recoleo/recoleo/internal/app"
	"github.com/recoleo/recoleo/internal/clients"
	"github.com/recoleo/recoleo/internal/collections"
	"github.com/recoleo/recoleo/internal/contracts"
	"github.com/recoleo/recoleo/internal/documents"
	"github.com/recoleo/recoleo/internal/finance"
	"github.com/recoleo/recoleo/internal/inventory"
	"github.com/recoleo/recoleo/internal/platform/cache"
	"github.com/recoleo/recoleo/internal/platform/db"
	"github.com/recoleo/recoleo/internal/platform/storage"
	"github.com/recoleo/recoleo/internal/reports"
	"github.com/recoleo/recoleo/jobs"
	"github.com/recoleo/recoleo/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

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

	overdueTask, err := jobs.NewOverdueScanTask(time.Now().UTC())
	if err != nil {
		logger.Error("build overdue scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDocumentRender, Handler: jobs.NewDocumentRenderHandler(documentsService, logger)},
			{Type: jobs.TaskReportExport, Handler: jobs.NewReportExportHandler(reportsService, logger)},
			{Type: jobs.TaskOverdueScan, Handler: jobs.NewOverdueScanHandler(financeService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: overdueTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
