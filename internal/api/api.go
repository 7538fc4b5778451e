package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gutterguard/inventory/internal/api/handlers"
	"github.com/gutterguard/inventory/internal/api/middleware"
	"github.com/gutterguard/inventory/internal/backup"
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/inventory"
	"github.com/gutterguard/inventory/internal/metrics"
	"github.com/gutterguard/inventory/internal/service"
	"github.com/gutterguard/inventory/internal/stocktake"
	"github.com/gutterguard/inventory/internal/valuation"
	"github.com/gutterguard/inventory/internal/yield"
)

type Services struct {
	Forecast  *service.ForecastService
	Inventory *inventory.Store
	Yield     *yield.Estimator
	Stocktake *stocktake.Service
	Backups   *backup.Manager
	Valuation *valuation.Valuer
	Catalog   *config.CatalogStore
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	var m *metrics.Metrics
	if services != nil {
		m = services.Metrics
	}
	router.Use(middleware.Logger(m))
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	apiGroup := router.Group("/api/v1")
	if services == nil {
		return router
	}

	if services.Forecast != nil {
		forecastHandler := handlers.NewForecastHandler(services.Forecast)
		forecastGroup := apiGroup.Group("/forecast")
		{
			forecastGroup.GET("", forecastHandler.GetAll)
			forecastGroup.GET("/mesh", forecastHandler.GetMesh)
			forecastGroup.GET("/components", forecastHandler.GetComponents)
			forecastGroup.GET("/summary", forecastHandler.GetSummary)
			forecastGroup.GET("/reorder", forecastHandler.GetReorder)
		}
		usageGroup := apiGroup.Group("/usage")
		{
			usageGroup.GET("/period", forecastHandler.GetUsageByPeriod)
			usageGroup.GET("/products", forecastHandler.GetUsageByProduct)
			usageGroup.GET("/orders", forecastHandler.GetOrderUsage)
			usageGroup.GET("/orders/status", forecastHandler.GetSyncStatus)
		}
	}

	if services.Inventory != nil {
		estimator := services.Yield
		if estimator == nil {
			estimator = yield.NewEstimator(services.Catalog)
		}
		inventoryHandler := handlers.NewInventoryHandler(services.Inventory, estimator, services.Now)

		meshGroup := apiGroup.Group("/mesh")
		{
			meshGroup.GET("", inventoryHandler.GetMesh)
			meshGroup.GET("/summary", inventoryHandler.GetMeshSummary)
			meshGroup.GET("/position", inventoryHandler.GetMeshPosition)
			meshGroup.GET("/usage", inventoryHandler.GetMeshUsage)
			meshGroup.POST("/add", inventoryHandler.AddMesh)
			meshGroup.POST("/remove", inventoryHandler.RemoveMesh)
			meshGroup.POST("/cut", inventoryHandler.CutRoll)
			meshGroup.GET("/cut/options", inventoryHandler.GetCuttingOptions)
			meshGroup.GET("/cut/history", inventoryHandler.GetCuttingHistory)
			meshGroup.GET("/incoming", inventoryHandler.GetIncoming)
			meshGroup.POST("/incoming", inventoryHandler.AddIncoming)
			meshGroup.POST("/incoming/:id/receive", inventoryHandler.ReceiveIncoming)
			meshGroup.POST("/incoming/:id/cancel", inventoryHandler.CancelIncoming)
		}

		stockGroup := apiGroup.Group("/stock/:category")
		{
			stockGroup.GET("", inventoryHandler.GetStock)
			stockGroup.POST("/add", inventoryHandler.AddStock)
			stockGroup.POST("/remove", inventoryHandler.RemoveStock)
		}

		apiGroup.GET("/coils", inventoryHandler.GetCoils)
		apiGroup.POST("/coils", inventoryHandler.AddCoil)
		apiGroup.GET("/coils/available", inventoryHandler.GetAvailableCoils)
		apiGroup.POST("/coils/:id/production", inventoryHandler.LogProduction)
		apiGroup.GET("/production", inventoryHandler.GetProduction)
		apiGroup.GET("/yield/estimate", inventoryHandler.GetYieldEstimate)
	}

	if services.Stocktake != nil && services.Backups != nil {
		stocktakeHandler := handlers.NewStocktakeHandler(services.Stocktake, services.Backups, services.Valuation, services.Catalog)

		stocktakeGroup := apiGroup.Group("/stocktake")
		{
			stocktakeGroup.GET("", stocktakeHandler.GetCategories)
			stocktakeGroup.GET("/:category", stocktakeHandler.GetItems)
			stocktakeGroup.GET("/:category/template", stocktakeHandler.GetTemplate)
			stocktakeGroup.POST("/:category", stocktakeHandler.Apply)
		}

		backupGroup := apiGroup.Group("/backups")
		{
			backupGroup.GET("", stocktakeHandler.ListBackups)
			backupGroup.POST("", stocktakeHandler.CreateBackup)
			backupGroup.POST("/:name/restore", stocktakeHandler.RestoreBackup)
		}

		if services.Valuation != nil {
			apiGroup.GET("/valuation", stocktakeHandler.GetValuation)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
