package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/shop-verification/internal/config"
	"github.com/kirillkom/shop-verification/internal/core/ports"
	"github.com/kirillkom/shop-verification/internal/core/usecase"
	"github.com/kirillkom/shop-verification/internal/infrastructure/catalogfile"
	"github.com/kirillkom/shop-verification/internal/infrastructure/inspect/pdf"
	"github.com/kirillkom/shop-verification/internal/infrastructure/notify"
	"github.com/kirillkom/shop-verification/internal/infrastructure/queue/nats"
	"github.com/kirillkom/shop-verification/internal/infrastructure/realtime"
	"github.com/kirillkom/shop-verification/internal/infrastructure/report/xlsx"
	"github.com/kirillkom/shop-verification/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/shop-verification/internal/infrastructure/resilience"
	"github.com/kirillkom/shop-verification/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/shop-verification/internal/infrastructure/storage/s3"
)

type App struct {
	Config config.Config

	Bus *nats.EventBus
	// Hub must be Run by the process that serves /v1/events.
	Hub *realtime.Hub

	Shops     *usecase.ShopUseCase
	Documents *usecase.DocumentUseCase
	Reports   *usecase.ReportUseCase
	Processor *usecase.ProcessEventUseCase

	closeFn func()
}

// New wires the shared stack. observer may be nil.
func New(ctx context.Context, cfg config.Config, observer resilience.Observer) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	shopRepo := postgres.NewShopRepository(db)
	docRepo := postgres.NewDocumentRepository(db)

	catalog, err := catalogfile.Load(cfg.CatalogFile)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load requirement catalog: %w", err)
	}

	storage, err := newObjectStorage(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg))
	if observer != nil {
		executor = executor.WithObserver(observer)
	}

	bus, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubjectPrefix, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init event bus: %w", err)
	}

	hub := realtime.NewHub()
	events := usecase.NewEventFanout(bus, hub)

	var notifier ports.OwnerNotifier = notify.LogNotifier{}
	if cfg.OwnerWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.OwnerWebhookURL, executor)
	}

	shops := usecase.NewShopUseCase(shopRepo, docRepo, catalog, events)
	docs := usecase.NewDocumentUseCase(docRepo, shopRepo, storage, catalog, events, cfg.MaxUploadBytes)
	reports := usecase.NewReportUseCase(shops, xlsx.NewExporter())
	processor := usecase.NewProcessEventUseCase(shopRepo, docRepo, storage, notifier, pdf.NewPageCounter(), cfg.MaxUploadBytes).
		WithExpiry(docs)

	return &App{
		Config: cfg,
		Bus:    bus,
		Hub:    hub,

		Shops:     shops,
		Documents: docs,
		Reports:   reports,
		Processor: processor,

		closeFn: func() {
			bus.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newObjectStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch backend := strings.ToLower(strings.TrimSpace(cfg.StorageBackend)); backend {
	case "", "localfs":
		storage, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		slog.Info("object_storage_ready", "backend", "localfs", "path", cfg.StoragePath)
		return storage, nil
	case "s3":
		storage, err := s3.New(ctx, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, err
		}
		slog.Info("object_storage_ready", "backend", "s3", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:        cfg.RetryMaxAttempts,
		RetryInitialBackoff:     cfg.RetryInitialBackoff,
		RetryMaxBackoff:         cfg.RetryMaxBackoff,
		RetryMultiplier:         cfg.RetryMultiplier,
		BreakerEnabled:          cfg.BreakerEnabled,
		BreakerMinRequests:      nonNegativeUint32(cfg.BreakerMinRequests),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      cfg.BreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: nonNegativeUint32(cfg.BreakerHalfOpenMaxCalls),
	}
}

func nonNegativeUint32(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}
