package expense

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/response"
)

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Delete)

	// Group-based listing
	r.Get("/group/{groupId}", h.ListByGroup)

	return r
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	if group.WriteError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrExpenseNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotPayer):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrInvalidSplit), errors.Is(err, ErrParticipantNotInGroup), errors.Is(err, ErrPayerNotInGroup):
		response.ValidationFailed(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

// Create handles POST /expenses
// @Summary      Create a new expense
// @Description  Create an expense with automatic split calculation using the EQUAL, PERCENT, or EXACT strategy
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.service.CreateExpense(r.Context(), callerID, &req)
	if err != nil {
		writeError(w, err, "Failed to create expense")
		return
	}

	response.JSON(w, http.StatusCreated, result.ToResponse())
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Description  Get an expense with all its splits
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	result, err := h.service.GetExpenseByID(r.Context(), id, userID)
	if err != nil {
		writeError(w, err, "Failed to get expense")
		return
	}

	response.JSON(w, http.StatusOK, result.ToResponse())
}

// ListByGroup handles GET /expenses/group/{groupId}
// @Summary      List group expenses
// @Description  Get a paginated list of expenses for a group, newest first
// @Tags         expenses
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /expenses/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	page, perPage := response.Pagination(r)

	expenses, total, err := h.service.ListExpensesByGroupID(r.Context(), groupID, userID, page, perPage)
	if err != nil {
		writeError(w, err, "Failed to list expenses")
		return
	}

	expenseResponses := make([]*ExpenseResponse, len(expenses))
	for i, e := range expenses {
		expenseResponses[i] = e.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, expenseResponses, response.NewMeta(page, perPage, total))
}

// Delete handles DELETE /expenses/{id}
// @Summary      Delete an expense
// @Description  The payer can delete an expense they recorded
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid expense ID")
		return
	}
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteExpense(r.Context(), id, userID); err != nil {
		writeError(w, err, "Failed to delete expense")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}
