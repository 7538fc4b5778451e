package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutterguard/inventory/internal/domain"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestSetForecast(t *testing.T) {
	m := New()
	m.SetForecast("mesh", []domain.Status{domain.StatusCritical, domain.StatusCritical, domain.StatusOK})

	body := scrape(t, m)
	assert.Contains(t, body, `inventory_forecast_items{category="mesh",status="CRITICAL"} 2`)
	assert.Contains(t, body, `inventory_forecast_items{category="mesh",status="OK"} 1`)
	assert.Contains(t, body, `inventory_forecast_items{category="mesh",status="LOW"} 0`)

	m.SetForecast("mesh", nil)
	assert.Contains(t, scrape(t, m), `inventory_forecast_items{category="mesh",status="CRITICAL"} 0`)
}

func TestCounters(t *testing.T) {
	m := New()
	m.UsageCacheHit()
	m.UsageCacheMiss()
	m.UsageCacheMiss()
	m.OrderFetchFailed()

	body := scrape(t, m)
	assert.Contains(t, body, `inventory_usage_cache_total{result="hit"} 1`)
	assert.Contains(t, body, `inventory_usage_cache_total{result="miss"} 2`)
	assert.Contains(t, body, "inventory_order_fetch_failures_total 1")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.UsageCacheHit()
	m.SetForecast("mesh", []domain.Status{domain.StatusOK})
	m.ObserveRequest("GET", "/health", "200", 0.01)
	assert.Nil(t, m.Registry())
}
