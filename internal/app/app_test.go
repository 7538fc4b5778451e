package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutterguard/inventory/internal/api"
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/inventory"
)

func fileConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Store: config.StoreConfig{Backend: "file"},
		App: config.AppConfig{
			DataDir:     filepath.Join(dir, "data"),
			BackupDir:   filepath.Join(dir, "backups"),
			CatalogPath: filepath.Join(dir, "missing.yaml"),
		},
		Forecast: config.ForecastConfig{ReorderBufferMonths: 2},
	}
}

func TestNewWithFileStore(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC) }
	a, err := New(context.Background(), fileConfig(t), now)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	_, err = a.Store.AddRolls(ctx, inventory.AddRollsRequest{
		RollKey:  inventory.RollKey{MeshType: "2mm_ember_guard", WidthMM: 250, LengthM: 10, Colour: "Dune"},
		Quantity: 2,
	})
	require.NoError(t, err)

	info, err := a.Backups.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Files)

	fs := a.Forecast.Mesh(ctx)
	require.Len(t, fs, 1)
	assert.Equal(t, domain.StatusNoUsage, fs[0].Status)

	_, err = a.Orders.Refresh(ctx, 30)
	assert.Error(t, err, "no order source is configured")
}

func TestServicesServeHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), fileConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	router := api.NewRouter(a.Services(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/forecast/summary", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewRejectsBadCatalog(t *testing.T) {
	cfg := fileConfig(t)
	cfg.App.CatalogPath = t.TempDir()
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestReloadCatalog(t *testing.T) {
	cfg := fileConfig(t)
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	ctx := context.Background()

	before := a.Catalog.Get()
	require.NoError(t, os.WriteFile(cfg.App.CatalogPath, []byte("colours: [\n"), 0o644))
	assert.Error(t, a.ReloadCatalog(ctx))
	assert.Same(t, before, a.Catalog.Get(), "a bad file keeps the previous catalogue")

	require.NoError(t, os.Remove(cfg.App.CatalogPath))
	require.NoError(t, a.ReloadCatalog(ctx))
	assert.NotSame(t, before, a.Catalog.Get())
}
