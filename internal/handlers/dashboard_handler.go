package handlers

import (
	"net/http"

	"github.com/fintrack/backend/internal/services"
)

type DashboardHandler struct {
	service *services.DashboardService
}

func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetSnapshot returns the composed dashboard view
// @Summary Dashboard snapshot
// @Description Compose monthly expense/income series, category totals, active debts and goals, and a financial health classification
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DashboardSnapshot
// @Failure 401 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /dashboard [get]
func (h *DashboardHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	snapshot, err := h.service.ComposeSnapshot(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Failed to compose dashboard")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}
