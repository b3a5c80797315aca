package settlement

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

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Get("/group/{groupId}", h.ListByGroup)

	return r
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	if group.WriteError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrSettlementNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotParty):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrCannotSettleSelf), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrUserNotInGroup):
		response.ValidationFailed(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

func toResponses(settlements []*Settlement) []*SettlementResponse {
	out := make([]*SettlementResponse, len(settlements))
	for i, s := range settlements {
		out[i] = s.ToResponse()
	}
	return out
}

// Create handles POST /settlements
// @Summary      Record a payment
// @Description  Record money sent from one group member to another. Payments cannot be edited.
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body RecordPaymentRequest true "Payment"
// @Success      201 {object} response.APIResponse{data=SettlementResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /settlements [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	settlement, err := h.service.RecordPayment(r.Context(), callerID, &req)
	if err != nil {
		writeError(w, err, "Failed to record payment")
		return
	}

	response.JSON(w, http.StatusCreated, settlement.ToResponse())
}

// GetByID handles GET /settlements/{id}
// @Summary      Get a payment
// @Tags         settlements
// @Produce      json
// @Param        id path int true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=SettlementResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid settlement ID")
		return
	}
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	settlement, err := h.service.GetByID(r.Context(), id, userID)
	if err != nil {
		writeError(w, err, "Failed to get settlement")
		return
	}

	response.JSON(w, http.StatusOK, settlement.ToResponse())
}

// List handles GET /settlements
// @Summary      List my payments
// @Description  Payments the caller sent or received across all groups
// @Tags         settlements
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Router       /settlements [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	page, perPage := response.Pagination(r)

	settlements, total, err := h.service.ListByUserID(r.Context(), userID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list settlements")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, toResponses(settlements), response.NewMeta(page, perPage, total))
}

// ListByGroup handles GET /settlements/group/{groupId}
// @Summary      List group payments
// @Tags         settlements
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]SettlementResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /settlements/group/{groupId} [get]
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

	settlements, total, err := h.service.ListByGroupID(r.Context(), groupID, userID, page, perPage)
	if err != nil {
		writeError(w, err, "Failed to list settlements")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, toResponses(settlements), response.NewMeta(page, perPage, total))
}
