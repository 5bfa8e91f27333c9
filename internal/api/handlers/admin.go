package handlers

import (
	"net/http"

	"github.com/amaumene/moviebrowser/internal/catalog"
	"github.com/amaumene/moviebrowser/internal/controllers"
	"github.com/sirupsen/logrus"
)

// AdminHandler exposes maintenance operations
type AdminHandler struct {
	cleaner  *controllers.DataCleaner
	entities *catalog.EntityStore
	logger   *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(cleaner *controllers.DataCleaner, entities *catalog.EntityStore, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		cleaner:  cleaner,
		entities: entities,
		logger:   logger,
	}
}

// ClearResponse lists the stages a data wipe went through
type ClearResponse struct {
	Stages []controllers.Stage `json:"stages"`
}

// Clear wipes the response cache, and the favorites with ?favorites=1
func (h *AdminHandler) Clear(w http.ResponseWriter, r *http.Request) {
	clearFavorites := r.URL.Query().Get("favorites") == "1"

	var response ClearResponse
	err := h.cleaner.ClearData(r.Context(), clearFavorites, func(stage controllers.Stage) {
		response.Stages = append(response.Stages, stage)
	})
	if err != nil {
		h.logger.WithError(err).Error("Data cleanup failed")
		writeError(w, h.logger, http.StatusInternalServerError, "Data cleanup failed")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, response)
}

// CompactResponse reports how many collected movie slots were dropped
type CompactResponse struct {
	Removed    int `json:"removed"`
	LiveMovies int `json:"live_movies"`
}

// Compact drops identity cache slots whose movie was garbage collected
func (h *AdminHandler) Compact(w http.ResponseWriter, r *http.Request) {
	response := CompactResponse{Removed: h.entities.Compact()}
	response.LiveMovies = h.entities.CachedCount()
	h.logger.WithFields(logrus.Fields{
		"removed": response.Removed,
		"live":    response.LiveMovies,
	}).Info("Identity cache compacted")

	writeJSON(w, h.logger, http.StatusOK, response)
}
