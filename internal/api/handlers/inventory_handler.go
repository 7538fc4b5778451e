package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/inventory"
	"github.com/gutterguard/inventory/internal/yield"
)

type InventoryHandler struct {
	store *inventory.Store
	yield *yield.Estimator
	now   func() time.Time
}

func NewInventoryHandler(store *inventory.Store, estimator *yield.Estimator, now func() time.Time) *InventoryHandler {
	if now == nil {
		now = time.Now
	}
	return &InventoryHandler{store: store, yield: estimator, now: now}
}

func (h *InventoryHandler) since(days int) time.Time {
	return h.now().AddDate(0, 0, -days)
}

func meshFilter(c *gin.Context) domain.MeshFilter {
	return domain.MeshFilter{
		MeshType: strings.TrimSpace(c.Query("mesh_type")),
		WidthMM:  queryInt(c, "width_mm", 0),
		LengthM:  queryFloat(c, "length_m"),
		Colour:   strings.TrimSpace(c.Query("colour")),
	}
}

// Mesh rolls

func (h *InventoryHandler) GetMesh(c *gin.Context) {
	filter := meshFilter(c)
	rolls, err := h.store.Stock(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to fetch mesh stock")
		return
	}
	metres := 0.0
	for _, r := range rolls {
		metres += r.Metres()
	}
	c.JSON(http.StatusOK, gin.H{"items": rolls, "total_metres": metres})
}

func (h *InventoryHandler) GetMeshSummary(c *gin.Context) {
	lines, err := h.store.MeshSummary(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch mesh summary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": lines})
}

func (h *InventoryHandler) GetMeshPosition(c *gin.Context) {
	f := meshFilter(c)
	key := inventory.RollKey{MeshType: f.MeshType, WidthMM: f.WidthMM, LengthM: f.LengthM, Colour: f.Colour}
	pos, err := h.store.StockWithIncoming(c.Request.Context(), key)
	if err != nil {
		respondError(c, err, "failed to fetch stock position")
		return
	}
	c.JSON(http.StatusOK, pos)
}

func (h *InventoryHandler) AddMesh(c *gin.Context) {
	var req inventory.AddRollsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	roll, err := h.store.AddRolls(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to add rolls")
		return
	}
	c.JSON(http.StatusCreated, roll)
}

type removeMeshRequest struct {
	inventory.RollKey
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
	OrderID  string `json:"order_id"`
}

func (h *InventoryHandler) RemoveMesh(c *gin.Context) {
	var req removeMeshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	if err := h.store.RemoveRolls(c.Request.Context(), req.RollKey, req.Quantity, req.Reason, req.OrderID); err != nil {
		respondError(c, err, "failed to remove rolls")
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": req.Quantity})
}

func (h *InventoryHandler) GetMeshUsage(c *gin.Context) {
	days := queryInt(c, "days", 30)
	events, err := h.store.UsageEvents(c.Request.Context(), domain.CategoryMesh, h.since(days))
	if err != nil {
		respondError(c, err, "failed to fetch mesh usage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "items": events})
}

func (h *InventoryHandler) GetCuttingOptions(c *gin.Context) {
	width := queryInt(c, "width", 0)
	if width == 0 {
		width = queryInt(c, "width_mm", 0)
	}
	if width == 0 {
		badRequest(c, "width is required", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"width_mm": width, "options": h.store.CuttingOptions(width)})
}

func (h *InventoryHandler) CutRoll(c *gin.Context) {
	var req inventory.CutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	rec, err := h.store.CutRoll(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to cut roll")
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *InventoryHandler) GetCuttingHistory(c *gin.Context) {
	records, err := h.store.CuttingHistory(c.Request.Context(), queryInt(c, "days", 30))
	if err != nil {
		respondError(c, err, "failed to fetch cutting history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

// Incoming orders

func (h *InventoryHandler) GetIncoming(c *gin.Context) {
	status := domain.IncomingStatus(strings.TrimSpace(c.Query("status")))
	orders, err := h.store.Incoming(c.Request.Context(), status)
	if err != nil {
		respondError(c, err, "failed to fetch incoming orders")
		return
	}
	metres, err := h.store.IncomingMetres(c.Request.Context(), domain.MeshFilter{})
	if err != nil {
		respondError(c, err, "failed to fetch incoming metres")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": orders, "incoming_metres": metres})
}

func (h *InventoryHandler) AddIncoming(c *gin.Context) {
	var req inventory.IncomingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	order, err := h.store.AddIncoming(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to add incoming order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *InventoryHandler) ReceiveIncoming(c *gin.Context) {
	order, err := h.store.ReceiveIncoming(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to receive incoming order")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *InventoryHandler) CancelIncoming(c *gin.Context) {
	if err := h.store.CancelIncoming(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "failed to cancel incoming order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": c.Param("id")})
}

// Counted stock: screws, saddles, trims and boxes

type countedRequest struct {
	Type     string `json:"type"`
	Colour   string `json:"colour"`
	Quantity int    `json:"quantity"`
	Source   string `json:"source"`
	Reason   string `json:"reason"`
	OrderID  string `json:"order_id"`
}

func (h *InventoryHandler) counter(c *gin.Context) (inventory.Counter, bool) {
	counter, err := h.store.Counted(domain.Category(strings.ToLower(c.Param("category"))))
	if err != nil {
		respondError(c, err, "unknown stock category")
		return nil, false
	}
	return counter, true
}

func (h *InventoryHandler) GetStock(c *gin.Context) {
	counter, ok := h.counter(c)
	if !ok {
		return
	}
	filter := inventory.Item{Type: strings.TrimSpace(c.Query("type")), Colour: strings.TrimSpace(c.Query("colour"))}
	lines, err := counter.Lines(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to fetch stock")
		return
	}
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	c.JSON(http.StatusOK, gin.H{"category": counter.Category(), "items": lines, "total": total})
}

func (h *InventoryHandler) AddStock(c *gin.Context) {
	counter, ok := h.counter(c)
	if !ok {
		return
	}
	var req countedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	source := req.Source
	if source == "" {
		source = "manual"
	}
	line, err := counter.AddItem(c.Request.Context(), inventory.Item{Type: req.Type, Colour: req.Colour}, req.Quantity, source)
	if err != nil {
		respondError(c, err, "failed to add stock")
		return
	}
	c.JSON(http.StatusCreated, line)
}

func (h *InventoryHandler) RemoveStock(c *gin.Context) {
	counter, ok := h.counter(c)
	if !ok {
		return
	}
	var req countedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	err := counter.RemoveItem(c.Request.Context(), inventory.Item{Type: req.Type, Colour: req.Colour}, req.Quantity, req.Reason, req.OrderID)
	if err != nil {
		respondError(c, err, "failed to remove stock")
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": req.Quantity})
}

// Coils and production

func (h *InventoryHandler) GetCoils(c *gin.Context) {
	filter := domain.CoilFilter{
		SaddleType: strings.TrimSpace(c.Query("saddle_type")),
		Colour:     strings.TrimSpace(c.Query("colour")),
		Status:     domain.CoilStatus(strings.TrimSpace(c.Query("status"))),
	}
	coils, err := h.store.Coils(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to fetch coils")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": coils})
}

func (h *InventoryHandler) GetAvailableCoils(c *gin.Context) {
	coils, err := h.store.AvailableCoils(c.Request.Context(), strings.TrimSpace(c.Query("saddle_type")))
	if err != nil {
		respondError(c, err, "failed to fetch available coils")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": coils})
}

func (h *InventoryHandler) AddCoil(c *gin.Context) {
	var req inventory.AddCoilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	coil, err := h.store.AddCoil(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to add coil")
		return
	}
	c.JSON(http.StatusCreated, coil)
}

func (h *InventoryHandler) LogProduction(c *gin.Context) {
	var req inventory.ProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	req.CoilID = c.Param("id")
	rec, err := h.store.LogProduction(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to log production")
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *InventoryHandler) GetProduction(c *gin.Context) {
	records, err := h.store.ProductionHistory(c.Request.Context(), queryInt(c, "days", 30))
	if err != nil {
		respondError(c, err, "failed to fetch production history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

func (h *InventoryHandler) GetYieldEstimate(c *gin.Context) {
	weight := queryFloat(c, "weight_kg")
	if weight <= 0 {
		badRequest(c, "weight_kg must be positive", nil)
		return
	}
	coilType := strings.TrimSpace(c.DefaultQuery("coil_type", "corrugated"))
	c.JSON(http.StatusOK, h.yield.Estimate(weight, coilType))
}
