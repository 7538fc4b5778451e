package sheets

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	mirror *Mirror
}

func NewHandler(mirror *Mirror) *Handler {
	return &Handler{mirror: mirror}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/sheets/sync", h.Sync).Methods("POST")
	router.HandleFunc("/api/sheets/status", h.Status).Methods("GET")
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	status, err := h.mirror.Sync(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "sync failed", "details": err.Error(), "status": status})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mirror.Status())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("sheets: encode response failed")
	}
}
