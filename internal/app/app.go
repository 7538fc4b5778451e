// Package app assembles the inventory services from configuration. Both the
// API server and invctl build on it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gutterguard/inventory/internal/api"
	"github.com/gutterguard/inventory/internal/backup"
	"github.com/gutterguard/inventory/internal/cache"
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/forecast"
	"github.com/gutterguard/inventory/internal/inventory"
	"github.com/gutterguard/inventory/internal/metrics"
	"github.com/gutterguard/inventory/internal/orders"
	"github.com/gutterguard/inventory/internal/repository"
	"github.com/gutterguard/inventory/internal/repository/postgres"
	"github.com/gutterguard/inventory/internal/service"
	"github.com/gutterguard/inventory/internal/stocktake"
	"github.com/gutterguard/inventory/internal/storage"
	"github.com/gutterguard/inventory/internal/valuation"
	"github.com/gutterguard/inventory/internal/yield"
)

type App struct {
	Config    *config.Config
	Catalog   *config.CatalogStore
	Metrics   *metrics.Metrics
	Store     *inventory.Store
	Orders    *orders.Provider
	Engine    *forecast.Engine
	Advisor   *forecast.Advisor
	Forecast  *service.ForecastService
	Yield     *yield.Estimator
	Backups   *backup.Manager
	Stocktake *stocktake.Service
	Valuation *valuation.Valuer

	db *postgres.DB
}

// New wires every component. now may be nil for the wall clock.
func New(ctx context.Context, cfg *config.Config, now func() time.Time) (*App, error) {
	if now == nil {
		now = time.Now
	}

	catalog, err := config.NewCatalogStore(cfg.App.CatalogPath)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Catalog: catalog, Metrics: metrics.New()}

	docs, err := a.openDocuments(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = inventory.NewStore(docs, catalog, now)

	usageCache, err := cache.NewUsageCache(cfg.Cache)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("usage cache: %w", err)
	}

	var source orders.Source
	if cfg.Shopify.Enabled() {
		source = orders.NewShopifyClient(cfg.Shopify, nil)
	} else {
		log.Warn().Msg("app: shopify not configured, order usage will be empty")
	}
	a.Orders = orders.NewProvider(source, usageCache, catalog, a.Metrics, now)

	opts := forecast.Options{
		MeshWindowDays:      cfg.Forecast.MeshUsageWindowDays,
		RecentWindowDays:    cfg.Forecast.RecentUsageWindowDays,
		ComponentWindowDays: cfg.Forecast.ComponentUsageWindowDays,
	}
	a.Engine = forecast.NewEngine(a.Store, a.Orders, catalog, opts, now)
	a.Advisor = forecast.NewAdvisor(cfg.Forecast.ReorderBufferMonths)
	a.Forecast = service.NewForecastService(a.Engine, a.Advisor, a.Store, a.Orders, a.Metrics)
	a.Yield = yield.NewEstimator(catalog)

	objects, err := storage.New(cfg.Storage, cfg.App.BackupDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("backup storage: %w", err)
	}
	a.Backups = backup.NewManager(docs, objects, a.Store, now)
	a.Stocktake = stocktake.NewService(a.Store, a.Backups, catalog, now)
	a.Valuation = valuation.New(a.Store, catalog, now)

	return a, nil
}

func (a *App) openDocuments(ctx context.Context) (repository.DocumentStore, error) {
	switch a.Config.Store.Backend {
	case "postgres":
		db, err := postgres.NewDB(&a.Config.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		docs := postgres.NewDocumentStore(db)
		if err := docs.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		log.Info().Str("host", a.Config.Database.Host).Msg("app: using postgres document store")
		return docs, nil
	default:
		docs, err := repository.NewFileStore(a.Config.App.DataDir)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dir", docs.Dir()).Msg("app: using file document store")
		return docs, nil
	}
}

// Services exposes the components the HTTP router needs.
func (a *App) Services() *api.Services {
	return &api.Services{
		Forecast:  a.Forecast,
		Inventory: a.Store,
		Yield:     a.Yield,
		Stocktake: a.Stocktake,
		Backups:   a.Backups,
		Valuation: a.Valuation,
		Catalog:   a.Catalog,
		Metrics:   a.Metrics,
	}
}

// ReloadCatalog re-reads the catalogue file and drops cached usage
// summaries built against the old kit mapping. A failed read keeps the
// previous catalogue and cache.
func (a *App) ReloadCatalog(ctx context.Context) error {
	if err := a.Catalog.Reload(); err != nil {
		return err
	}
	if err := a.Orders.InvalidateUsage(ctx); err != nil {
		return fmt.Errorf("invalidate usage cache: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn().Err(err).Msg("app: close database failed")
		}
		a.db = nil
	}
}
