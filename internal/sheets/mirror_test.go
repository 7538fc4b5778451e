package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/inventory"
	"github.com/gutterguard/inventory/internal/repository"
)

var testNow = time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)

type fakeWriter struct {
	mu      sync.Mutex
	tabs    map[string][][]interface{}
	failTab string
}

func (w *fakeWriter) WriteTab(_ context.Context, tab string, rows [][]interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if tab == w.failTab {
		return errors.New("quota exceeded")
	}
	if w.tabs == nil {
		w.tabs = make(map[string][][]interface{})
	}
	w.tabs[tab] = rows
	return nil
}

func seededStore(t *testing.T) *inventory.Store {
	t.Helper()
	ctx := context.Background()
	store := inventory.NewStore(repository.NewMemoryStore(), config.NewStaticCatalogStore(config.DefaultCatalog()), func() time.Time { return testNow })

	_, err := store.AddRolls(ctx, inventory.AddRollsRequest{
		RollKey:  inventory.RollKey{MeshType: "4mm_aluminium", WidthMM: 500, LengthM: 20, Colour: "Basalt"},
		Quantity: 3,
	})
	require.NoError(t, err)

	boxes, err := store.Counted(domain.CategoryBoxes)
	require.NoError(t, err)
	_, err = boxes.AddItem(ctx, inventory.Item{Type: "large_tube"}, 12, "manual")
	require.NoError(t, err)
	return store
}

func TestMirrorSync(t *testing.T) {
	w := &fakeWriter{}
	m := NewMirror(seededStore(t), w, func() time.Time { return testNow })

	status, err := m.Sync(context.Background())
	require.NoError(t, err)

	require.NotNil(t, status.LastSync)
	assert.Equal(t, testNow, *status.LastSync)
	assert.Equal(t, 1, status.Rows[TabMesh])
	assert.Equal(t, 1, status.Rows[TabBoxes])
	assert.Equal(t, 0, status.Rows[TabScrews])
	assert.Len(t, w.tabs, 6)

	mesh := w.tabs[TabMesh]
	require.Len(t, mesh, 2)
	assert.Equal(t, "mesh_type", mesh[0][1])
	assert.Equal(t, "Basalt", mesh[1][4])
	assert.Equal(t, 3, mesh[1][5])
	assert.Equal(t, 60.0, mesh[1][6])
}

func TestMirrorSyncFailureKeepsLastGoodStatus(t *testing.T) {
	w := &fakeWriter{}
	m := NewMirror(seededStore(t), w, func() time.Time { return testNow })
	_, err := m.Sync(context.Background())
	require.NoError(t, err)

	w.failTab = TabTrims
	status, err := m.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, status.LastError, "quota exceeded")
	require.NotNil(t, status.LastSync)
	assert.Equal(t, 1, status.Rows[TabMesh])
	assert.False(t, status.Running)
}

func TestHandler(t *testing.T) {
	w := &fakeWriter{}
	router := mux.NewRouter()
	NewHandler(NewMirror(seededStore(t), w, func() time.Time { return testNow })).RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sheets/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Nil(t, status.LastSync)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sheets/sync", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.Rows[TabBoxes])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sheets/sync", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	w.failTab = TabMesh
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sheets/sync", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
