package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fintrack/backend/internal/services"
)

type IncomeHandler struct {
	service   *services.IncomeService
	validator *services.ValidationHelper
}

func NewIncomeHandler(service *services.IncomeService) *IncomeHandler {
	return &IncomeHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type createIncomeRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Source string          `json:"source" validate:"required"`
	Date   time.Time       `json:"date"`
	Notes  string          `json:"notes"`
}

type updateIncomeRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Source *string          `json:"source"`
	Date   *time.Time       `json:"date"`
	Notes  *string          `json:"notes"`
}

// Create records a new income
// @Summary Create income
// @Description Record a new income for the authenticated user
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createIncomeRequest true "Income data"
// @Success 201 {object} models.Income
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /incomes [post]
func (h *IncomeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req createIncomeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	income, err := h.service.Create(r.Context(), userID, services.CreateIncomeInput{
		Amount: req.Amount,
		Source: req.Source,
		Date:   req.Date,
		Notes:  req.Notes,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to create income")
		return
	}

	writeJSON(w, http.StatusCreated, income)
}

// List returns the user's incomes, newest first
// @Summary List incomes
// @Description List the authenticated user's incomes ordered by date descending
// @Tags incomes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Income
// @Failure 401 {object} services.ErrorResponse
// @Router /incomes [get]
func (h *IncomeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	incomes, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch incomes")
		return
	}

	writeJSON(w, http.StatusOK, incomes)
}

// Update applies a partial update to an income
// @Summary Update income
// @Description Update supplied fields of an income; omitted fields are preserved
// @Tags incomes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Income ID"
// @Param request body updateIncomeRequest true "Fields to update"
// @Success 200 {object} models.Income
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /incomes/{id} [patch]
func (h *IncomeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req updateIncomeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	income, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), services.UpdateIncomeInput{
		Amount: req.Amount,
		Source: req.Source,
		Date:   req.Date,
		Notes:  req.Notes,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to update income")
		return
	}

	writeJSON(w, http.StatusOK, income)
}

// Delete removes an income
// @Summary Delete income
// @Description Delete an income owned by the authenticated user
// @Tags incomes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Income ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} services.ErrorResponse
// @Router /incomes/{id} [delete]
func (h *IncomeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete income")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
