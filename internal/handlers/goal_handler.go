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

type GoalHandler struct {
	service   *services.GoalService
	validator *services.ValidationHelper
}

func NewGoalHandler(service *services.GoalService) *GoalHandler {
	return &GoalHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type createGoalRequest struct {
	Title       string          `json:"title" validate:"required"`
	Target      decimal.Decimal `json:"target"`
	Saved       decimal.Decimal `json:"saved"`
	Deadline    *time.Time      `json:"deadline"`
	Description string          `json:"description"`
}

type updateGoalRequest struct {
	Title       *string          `json:"title"`
	Target      *decimal.Decimal `json:"target"`
	Saved       *decimal.Decimal `json:"saved"`
	Deadline    *time.Time       `json:"deadline"`
	Description *string          `json:"description"`
	IsAchieved  *bool            `json:"isAchieved"`
}

type contributionRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Create records a new savings goal
// @Summary Create goal
// @Description Record a new savings goal, optionally with an initial saved amount
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createGoalRequest true "Goal data"
// @Success 201 {object} models.Goal
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /goals [post]
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req createGoalRequest
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

	goal, err := h.service.Create(r.Context(), userID, services.CreateGoalInput{
		Title:       req.Title,
		Target:      req.Target,
		Saved:       req.Saved,
		Deadline:    req.Deadline,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to create goal")
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

// List returns the user's goals
// @Summary List goals
// @Description List the authenticated user's goals, newest created first
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Goal
// @Failure 401 {object} services.ErrorResponse
// @Router /goals [get]
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	goals, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch goals")
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

// ApplyContribution adds to a goal's saved amount
// @Summary Apply goal contribution
// @Description Add to a goal's saved amount and re-derive its achieved flag atomically
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param request body contributionRequest true "Contribution amount"
// @Success 200 {object} models.Goal
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /goals/{id}/contributions [post]
func (h *GoalHandler) ApplyContribution(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req contributionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	goal, err := h.service.ApplyContribution(r.Context(), userID, chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeServiceError(w, err, "Failed to apply contribution")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// ToggleAchieved flips a goal's achieved flag
// @Summary Toggle goal achieved
// @Description Manually flip a goal's achieved flag, independent of saved vs target
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {object} models.Goal
// @Failure 404 {object} services.ErrorResponse
// @Router /goals/{id}/toggle-achieved [post]
func (h *GoalHandler) ToggleAchieved(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	goal, err := h.service.ToggleAchieved(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to toggle goal")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// Update applies a partial update to a goal
// @Summary Update goal
// @Description Update supplied fields of a goal; omitted fields are preserved
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param request body updateGoalRequest true "Fields to update"
// @Success 200 {object} models.Goal
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /goals/{id} [patch]
func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req updateGoalRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	goal, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), services.UpdateGoalInput{
		Title:       req.Title,
		Target:      req.Target,
		Saved:       req.Saved,
		Deadline:    req.Deadline,
		Description: req.Description,
		IsAchieved:  req.IsAchieved,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to update goal")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// Delete removes a goal
// @Summary Delete goal
// @Description Delete a goal owned by the authenticated user
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} services.ErrorResponse
// @Router /goals/{id} [delete]
func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "Failed to delete goal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
