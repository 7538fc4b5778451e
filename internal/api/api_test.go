package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutterguard/inventory/internal/backup"
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/forecast"
	"github.com/gutterguard/inventory/internal/inventory"
	"github.com/gutterguard/inventory/internal/metrics"
	"github.com/gutterguard/inventory/internal/orders"
	"github.com/gutterguard/inventory/internal/repository"
	"github.com/gutterguard/inventory/internal/service"
	"github.com/gutterguard/inventory/internal/stocktake"
	"github.com/gutterguard/inventory/internal/storage"
	"github.com/gutterguard/inventory/internal/valuation"
)

var testNow = time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := func() time.Time { return testNow }
	catalog := config.NewStaticCatalogStore(config.DefaultCatalog())
	m := metrics.New()
	store := inventory.NewStore(repository.NewMemoryStore(), catalog, now)
	objects, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	backups := backup.NewManager(store.Documents(), objects, store, now)
	provider := orders.NewProvider(nil, nil, catalog, m, now)
	engine := forecast.NewEngine(store, provider, catalog, forecast.DefaultOptions(), now)

	return NewRouter(&Services{
		Forecast:  service.NewForecastService(engine, forecast.NewAdvisor(2), store, provider, m),
		Inventory: store,
		Stocktake: stocktake.NewService(store, backups, catalog, now),
		Backups:   backups,
		Valuation: valuation.New(store, catalog, now),
		Catalog:   catalog,
		Metrics:   m,
		Now:       now,
	}, nil)
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestMeshAddRemove(t *testing.T) {
	r := newTestRouter(t)
	roll := map[string]any{"mesh_type": "4mm_aluminium", "width_mm": 250, "length_m": 10, "colour": "Monument"}

	add := map[string]any{"quantity": 3}
	for k, v := range roll {
		add[k] = v
	}
	w := do(t, r, http.MethodPost, "/api/v1/mesh/add", add)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/v1/mesh?colour=Monument", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["items"], 1)
	assert.Equal(t, 30.0, body["total_metres"])

	remove := map[string]any{"quantity": 5, "order_id": "#1001"}
	for k, v := range roll {
		remove[k] = v
	}
	w = do(t, r, http.MethodPost, "/api/v1/mesh/remove", remove)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "failed to remove rolls", decode(t, w)["error"])

	remove["quantity"] = 2
	w = do(t, r, http.MethodPost, "/api/v1/mesh/remove", remove)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/mesh/usage?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)
}

func TestMeshRoutes(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/mesh/cut/options?width=1000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["options"], 4)

	w = do(t, r, http.MethodGet, "/api/v1/mesh/cut/options", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/mesh/incoming/nope/receive", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/mesh/add", map[string]any{"mesh_type": "4mm_aluminium"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCountedStock(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/stock/widgets/add", map[string]any{"type": "x", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/stock/boxes/add", map[string]any{"type": "small_tube", "quantity": 40})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "manual", decode(t, w)["source"])

	w = do(t, r, http.MethodPost, "/api/v1/stock/boxes/remove", map[string]any{"type": "small_tube", "quantity": 15})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/stock/boxes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25.0, decode(t, w)["total"])
}

func TestCoilsAndYield(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/yield/estimate?weight_kg=100", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4818.0, decode(t, w)["expected_output"])

	w = do(t, r, http.MethodGet, "/api/v1/yield/estimate", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/coils", map[string]any{"saddle_type": "corrugated", "colour": "Monument", "weight_kg": 10})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	w = do(t, r, http.MethodPost, "/api/v1/coils/"+id+"/production", map[string]any{"weight_kg": 25})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/coils/"+id+"/production", map[string]any{"weight_kg": 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/v1/production?days=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)
}

func TestForecastAndUsage(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{
		"/api/v1/forecast",
		"/api/v1/forecast/mesh",
		"/api/v1/forecast/components?days=90",
		"/api/v1/forecast/summary",
		"/api/v1/forecast/reorder",
		"/api/v1/usage/period?bucket=week",
		"/api/v1/usage/products",
		"/api/v1/usage/orders",
		"/api/v1/usage/orders/status",
	} {
		w := do(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := do(t, r, http.MethodGet, "/api/v1/usage/orders?refresh=true", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStocktakeBackupsAndValuation(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/stocktake/boxes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 3)

	w = do(t, r, http.MethodGet, "/api/v1/stocktake/coils", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/stocktake/boxes", map[string]any{
		"entries": []map[string]any{{"type": "small_tube", "quantity": 30}, {"type": "saddle_box", "quantity": 0}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, 1.0, res["items_added"])
	assert.NotEmpty(t, res["backup"])

	w = do(t, r, http.MethodGet, "/api/v1/backups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 0, "nothing was stored before the first stocktake")

	w = do(t, r, http.MethodPost, "/api/v1/backups", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	assert.Equal(t, 1.0, created["files"])

	w = do(t, r, http.MethodPost, "/api/v1/backups/"+created["name"].(string)+"/restore", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/backups/stocktake_20000101_000000/restore", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/valuation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	total, err := decimal.NewFromString(decode(t, w)["total"].(string))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(63)), total.String())

	w = do(t, r, http.MethodGet, "/api/v1/stocktake/trims/template", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;"))
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	do(t, r, http.MethodGet, "/api/v1/forecast/mesh", nil)

	w := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `inventory_http_request_duration_seconds_count{method="GET",route="/api/v1/forecast/mesh",status="200"} 1`)
}
