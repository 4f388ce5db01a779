package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tapcellar/tapcellar-backend/api/controllers"
	"github.com/tapcellar/tapcellar-backend/api/routes"
	"github.com/tapcellar/tapcellar-backend/internal/invoices"
	"github.com/tapcellar/tapcellar-backend/internal/matching"
	"github.com/tapcellar/tapcellar-backend/internal/purchaseorders"
	"github.com/tapcellar/tapcellar-backend/internal/reconcile"
	"github.com/tapcellar/tapcellar-backend/internal/skus"
	"github.com/tapcellar/tapcellar-backend/internal/suppliers"
	"github.com/tapcellar/tapcellar-backend/internal/worklist"
	"github.com/tapcellar/tapcellar-backend/pkg/config"
	"github.com/tapcellar/tapcellar-backend/pkg/db"
	"github.com/tapcellar/tapcellar-backend/pkg/dear"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
	"github.com/tapcellar/tapcellar-backend/pkg/metrics"
	"github.com/tapcellar/tapcellar-backend/pkg/migrate"
	"github.com/tapcellar/tapcellar-backend/pkg/redis"
	"github.com/tapcellar/tapcellar-backend/pkg/shopify"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, supplier directory cached in-process")
	}

	catalogClient, err := shopify.NewClient(context.Background(), cfg.Shopify, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shopify client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewReconciliationMetrics(registry)

	invoiceRepo := invoices.NewRepository(dbClient.DB())
	invoiceService, err := invoices.NewService(invoiceRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice service", err)
		os.Exit(1)
	}

	worklistService, err := worklist.NewService(invoiceRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create worklist service", err)
		os.Exit(1)
	}

	deriver := skus.NewDeriver(cfg.Locations.PrefixLength, cfg.Locations.Prefixes)
	matchCfg := matching.Config{
		NoiseFloor:        cfg.Matching.NoiseFloor,
		AcceptScore:       cfg.Matching.AcceptScore,
		CaskVolumeAliases: cfg.Matching.CaskVolumeAliases,
		SKUPrefixLength:   cfg.Locations.PrefixLength,
	}

	var (
		supplierService      suppliers.Service
		purchaseOrderService purchaseorders.Service
	)
	if cfg.Dear.Enabled() {
		dearClient, dearErr := dear.NewClient(context.Background(), cfg.Dear, logg)
		if dearErr != nil {
			logg.Error(context.Background(), "failed to create dear client", dearErr)
			os.Exit(1)
		}

		var cache suppliers.DirectoryCache
		if redisClient != nil {
			cache = redisClient
		}
		supplierService, err = suppliers.NewService(suppliers.Deps{
			Dear:       dearClient,
			Cache:      cache,
			Logger:     logg,
			FuzzyFloor: cfg.Matching.SupplierFuzzyFloor,
			CacheTTL:   cfg.Dear.DirectoryCacheTTL,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create supplier service", err)
			os.Exit(1)
		}

		purchaseOrderService, err = purchaseorders.NewService(purchaseorders.Deps{
			Orders:    purchaseorders.NewRepository(dbClient.DB()),
			Invoices:  invoiceRepo,
			API:       dearClient,
			Resolver:  supplierService,
			Cfg:       cfg.Orders,
			Locations: deriver.Locations(),
			Logger:    logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create purchase order service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "dear credentials absent, supplier and order routes disabled")
	}

	reconcileDeps := reconcile.Deps{
		Repo:     invoiceRepo,
		Catalog:  catalogClient,
		Deriver:  deriver,
		MatchCfg: matchCfg,
		Metrics:  engineMetrics,
		Logger:   logg,
	}
	if supplierService != nil {
		reconcileDeps.Resolver = supplierService
	}
	reconcileService, err := reconcile.NewService(reconcileDeps)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	var cachePinger controllers.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}
	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		cachePinger,
		registry,
		invoiceService,
		reconcileService,
		worklistService,
		purchaseOrderService,
		supplierService,
	)

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
