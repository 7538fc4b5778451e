package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gutterguard/inventory/internal/backup"
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/stocktake"
	"github.com/gutterguard/inventory/internal/valuation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StocktakeHandler struct {
	stocktake *stocktake.Service
	backups   *backup.Manager
	valuer    *valuation.Valuer
	catalog   *config.CatalogStore
}

func NewStocktakeHandler(svc *stocktake.Service, backups *backup.Manager, valuer *valuation.Valuer, catalog *config.CatalogStore) *StocktakeHandler {
	return &StocktakeHandler{stocktake: svc, backups: backups, valuer: valuer, catalog: catalog}
}

func (h *StocktakeHandler) category(c *gin.Context) (stocktake.Category, bool) {
	cat, err := stocktake.ParseCategory(c.Param("category"))
	if err != nil {
		respondError(c, err, "unknown stocktake category")
		return "", false
	}
	return cat, true
}

func (h *StocktakeHandler) GetCategories(c *gin.Context) {
	counts := stocktake.ItemCounts(h.catalog.Get())
	out := make([]gin.H, 0, len(counts))
	for _, cat := range stocktake.Categories() {
		out = append(out, gin.H{"category": cat, "name": cat.Name(), "items": counts[cat]})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (h *StocktakeHandler) GetItems(c *gin.Context) {
	cat, ok := h.category(c)
	if !ok {
		return
	}
	items, err := h.stocktake.Items(cat)
	if err != nil {
		respondError(c, err, "failed to build stocktake items")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": cat, "name": cat.Name(), "items": items})
}

func (h *StocktakeHandler) GetTemplate(c *gin.Context) {
	cat, ok := h.category(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := stocktake.WriteTemplate(&buf, h.catalog.Get(), cat); err != nil {
		respondError(c, err, "failed to build count sheet")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="stocktake_%s.xlsx"`, cat))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

type applyRequest struct {
	Entries []stocktake.Entry `json:"entries"`
}

// Apply accepts counted entries as JSON or as an uploaded CSV/XLSX sheet in
// the "file" form field.
func (h *StocktakeHandler) Apply(c *gin.Context) {
	cat, ok := h.category(c)
	if !ok {
		return
	}

	var entries []stocktake.Entry
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			badRequest(c, "failed to open uploaded sheet", err)
			return
		}
		defer f.Close()
		if entries, err = stocktake.Parse(fh.Filename, f); err != nil {
			respondError(c, err, "failed to parse count sheet")
			return
		}
	} else {
		var req applyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body", err)
			return
		}
		entries = req.Entries
		for i := range entries {
			if entries[i].Category == "" {
				entries[i].Category = cat
			}
		}
	}

	res, err := h.stocktake.Apply(c.Request.Context(), cat, entries)
	if err != nil {
		respondError(c, err, "failed to apply stocktake")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *StocktakeHandler) ListBackups(c *gin.Context) {
	list, err := h.backups.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list backups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (h *StocktakeHandler) CreateBackup(c *gin.Context) {
	info, err := h.backups.Create(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to create backup")
		return
	}
	c.JSON(http.StatusCreated, info)
}

func (h *StocktakeHandler) RestoreBackup(c *gin.Context) {
	name := c.Param("name")
	files, err := h.backups.Restore(c.Request.Context(), name)
	if err != nil {
		respondError(c, err, "failed to restore backup")
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": name, "files": files})
}

func (h *StocktakeHandler) GetValuation(c *gin.Context) {
	report, err := h.valuer.Value(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to value stock")
		return
	}
	c.JSON(http.StatusOK, report)
}
