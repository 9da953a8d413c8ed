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

type DebtHandler struct {
	service   *services.DebtService
	validator *services.ValidationHelper
}

func NewDebtHandler(service *services.DebtService) *DebtHandler {
	return &DebtHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type createDebtRequest struct {
	Title       string          `json:"title" validate:"required"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Creditor    string          `json:"creditor"`
	StartDate   time.Time       `json:"startDate"`
	DueDate     *time.Time      `json:"dueDate"`
}

type updateDebtRequest struct {
	Title     *string          `json:"title"`
	Creditor  *string          `json:"creditor"`
	DueDate   *time.Time       `json:"dueDate"`
	Remaining *decimal.Decimal `json:"remaining"`
	IsPaid    *bool            `json:"isPaid"`
}

type applyPaymentRequest struct {
	DebtID string          `json:"debtId" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Notes  string          `json:"notes"`
}

// Create records a new debt
// @Summary Create debt
// @Description Record a new debt; remaining starts at the total amount
// @Tags debts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createDebtRequest true "Debt data"
// @Success 201 {object} models.Debt
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /debts [post]
func (h *DebtHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req createDebtRequest
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

	debt, err := h.service.Create(r.Context(), userID, services.CreateDebtInput{
		Title:       req.Title,
		TotalAmount: req.TotalAmount,
		Creditor:    req.Creditor,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to create debt")
		return
	}

	writeJSON(w, http.StatusCreated, debt)
}

// List returns the user's debts with payment history
// @Summary List debts
// @Description List the authenticated user's debts, newest start date first, payments included
// @Tags debts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Debt
// @Failure 401 {object} services.ErrorResponse
// @Router /debts [get]
func (h *DebtHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	debts, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch debts")
		return
	}

	writeJSON(w, http.StatusOK, debts)
}

// ApplyPayment records a payment against a debt
// @Summary Apply debt payment
// @Description Record a payment and update the debt's remaining balance atomically
// @Tags debts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body applyPaymentRequest true "Payment data"
// @Success 200 {object} object{payment=models.DebtPayment,debt=models.Debt}
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /debts/payments [post]
func (h *DebtHandler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req applyPaymentRequest
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

	payment, debt, err := h.service.ApplyPayment(r.Context(), userID, req.DebtID, services.ApplyPaymentInput{
		Amount: req.Amount,
		Date:   req.Date,
		Notes:  req.Notes,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to apply payment")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payment": payment,
		"debt":    debt,
	})
}

// Update applies a partial update to a debt
// @Summary Update debt
// @Description Update supplied fields of a debt; omitted fields are preserved
// @Tags debts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Debt ID"
// @Param request body updateDebtRequest true "Fields to update"
// @Success 200 {object} models.Debt
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /debts/{id} [patch]
func (h *DebtHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req updateDebtRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	debt, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), services.UpdateDebtInput{
		Title:     req.Title,
		Creditor:  req.Creditor,
		DueDate:   req.DueDate,
		Remaining: req.Remaining,
		IsPaid:    req.IsPaid,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to update debt")
		return
	}

	writeJSON(w, http.StatusOK, debt)
}

// Delete removes a debt and its payments
// @Summary Delete debt
// @Description Delete a debt and cascade to its payment history
// @Tags debts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Debt ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} services.ErrorResponse
// @Router /debts/{id} [delete]
func (h *DebtHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete debt")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
