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

type ExpenseHandler struct {
	service   *services.ExpenseService
	validator *services.ValidationHelper
}

func NewExpenseHandler(service *services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type createExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category" validate:"required"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

type updateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Date        *time.Time       `json:"date"`
}

// Create records a new expense
// @Summary Create expense
// @Description Record a new expense for the authenticated user
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createExpenseRequest true "Expense data"
// @Success 201 {object} models.Expense
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /expenses [post]
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req createExpenseRequest
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

	expense, err := h.service.Create(r.Context(), userID, services.CreateExpenseInput{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to create expense")
		return
	}

	writeJSON(w, http.StatusCreated, expense)
}

// List returns the user's expenses, newest first
// @Summary List expenses
// @Description List the authenticated user's expenses ordered by date descending
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Expense
// @Failure 401 {object} services.ErrorResponse
// @Router /expenses [get]
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	expenses, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch expenses")
		return
	}

	writeJSON(w, http.StatusOK, expenses)
}

// Update applies a partial update to an expense
// @Summary Update expense
// @Description Update supplied fields of an expense; omitted fields are preserved
// @Tags expenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Param request body updateExpenseRequest true "Fields to update"
// @Success 200 {object} models.Expense
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /expenses/{id} [patch]
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req updateExpenseRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	expense, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), services.UpdateExpenseInput{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to update expense")
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// Delete removes an expense
// @Summary Delete expense
// @Description Delete an expense owned by the authenticated user
// @Tags expenses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Expense ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} services.ErrorResponse
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete expense")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
