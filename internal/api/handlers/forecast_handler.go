package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gutterguard/inventory/internal/analytics"
	"github.com/gutterguard/inventory/internal/orders"
	"github.com/gutterguard/inventory/internal/service"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

func (h *ForecastHandler) GetAll(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.All(c.Request.Context()))
}

func (h *ForecastHandler) GetMesh(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.service.Mesh(c.Request.Context())})
}

func (h *ForecastHandler) GetComponents(c *gin.Context) {
	days := queryInt(c, "days", 0)
	c.JSON(http.StatusOK, h.service.Components(c.Request.Context(), days, queryBool(c, "refresh")))
}

func (h *ForecastHandler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Summary(c.Request.Context()))
}

func (h *ForecastHandler) GetReorder(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.service.Reorder(c.Request.Context())})
}

func (h *ForecastHandler) GetUsageByPeriod(c *gin.Context) {
	days := queryInt(c, "days", 30)
	bucket := analytics.ParseBucket(c.DefaultQuery("bucket", "day"))

	data, err := h.service.UsageByPeriod(c.Request.Context(), days, bucket)
	if err != nil {
		respondError(c, err, "failed to fetch usage by period")
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "bucket": bucket, "items": data})
}

func (h *ForecastHandler) GetUsageByProduct(c *gin.Context) {
	days := queryInt(c, "days", 30)

	data, err := h.service.UsageByProduct(c.Request.Context(), days)
	if err != nil {
		respondError(c, err, "failed to fetch usage by product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "items": data})
}

func (h *ForecastHandler) GetOrderUsage(c *gin.Context) {
	days := queryInt(c, "days", orders.DefaultDays)

	summary, err := h.service.OrderUsage(c.Request.Context(), days, queryBool(c, "refresh"))
	if err != nil {
		respondError(c, err, "failed to refresh order usage")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ForecastHandler) GetSyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.SyncStatus())
}
