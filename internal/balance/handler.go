package balance

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/user"
	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/middleware"
	"github.com/fkhayef/splitledger/pkg/response"
)

// Handler handles HTTP requests for balance views
type Handler struct {
	service *Service
}

// NewHandler creates a new balance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for /balances
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.Me)
	return r
}

// MountGroupRoutes adds the per-group views under a /groups router.
func (h *Handler) MountGroupRoutes(r chi.Router) {
	r.Get("/{id}/balances", h.GroupBalances)
	r.Get("/{id}/settlement-plan", h.SettlementPlan)
	r.Get("/{id}/summary", h.Summary)
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	if group.WriteError(w, err) {
		return
	}
	switch {
	case errors.Is(err, ErrInvalidCurrency):
		response.BadRequest(w, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

// groupRequest reads the caller, the group id and the currency query parameter.
func groupRequest(w http.ResponseWriter, r *http.Request) (userID, groupID int64, view currency.Code, ok bool) {
	userID, ok = middleware.RequireUserID(w, r)
	if !ok {
		return 0, 0, "", false
	}

	groupID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return 0, 0, "", false
	}

	return userID, groupID, currency.Code(r.URL.Query().Get("currency")), true
}

// GroupBalances handles GET /groups/{id}/balances
// @Summary      Group balances
// @Description  Net balance of every member, converted into one currency. Positive means the member is owed money.
// @Tags         balances
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        currency query string false "View currency (defaults to the group base currency)"
// @Success      200 {object} response.APIResponse{data=GroupBalancesResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/balances [get]
func (h *Handler) GroupBalances(w http.ResponseWriter, r *http.Request) {
	userID, groupID, view, ok := groupRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.service.GroupBalances(r.Context(), groupID, userID, view)
	if err != nil {
		writeError(w, err, "Failed to compute balances")
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

// SettlementPlan handles GET /groups/{id}/settlement-plan
// @Summary      Suggested settlement
// @Description  Payments that would bring every member of the group to zero
// @Tags         balances
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        currency query string false "View currency (defaults to the group base currency)"
// @Success      200 {object} response.APIResponse{data=SettlementPlanResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/settlement-plan [get]
func (h *Handler) SettlementPlan(w http.ResponseWriter, r *http.Request) {
	userID, groupID, view, ok := groupRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.service.SettlementPlan(r.Context(), groupID, userID, view)
	if err != nil {
		writeError(w, err, "Failed to compute settlement plan")
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

// Summary handles GET /groups/{id}/summary
// @Summary      Group summary
// @Description  Total spend and each member's paid amount, share and net balance
// @Tags         balances
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        currency query string false "View currency (defaults to the group base currency)"
// @Success      200 {object} response.APIResponse{data=SummaryResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, groupID, view, ok := groupRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Summary(r.Context(), groupID, userID, view)
	if err != nil {
		writeError(w, err, "Failed to compute summary")
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

// Me handles GET /balances/me
// @Summary      My balances
// @Description  The caller's net balance with every other user across all groups
// @Tags         balances
// @Produce      json
// @Param        currency query string false "View currency (defaults to the caller's preferred currency)"
// @Success      200 {object} response.APIResponse{data=MyBalancesResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      401 {object} response.APIResponse
// @Router       /balances/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	resp, err := h.service.MyBalances(r.Context(), userID, currency.Code(r.URL.Query().Get("currency")))
	if err != nil {
		writeError(w, err, "Failed to compute balances")
		return
	}

	response.JSON(w, http.StatusOK, resp)
}
