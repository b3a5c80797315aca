package rates

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/response"
)

// RatesResponse is the rate table re-anchored at Base.
type RatesResponse struct {
	Base  currency.Code            `json:"base"`
	AsOf  time.Time                `json:"as_of"`
	Rates map[currency.Code]string `json:"rates"`
}

// Handler exposes the current rate table
type Handler struct {
	store *Store
}

// NewHandler creates a new rates handler
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Routes returns the router for rate endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	return r
}

// Get handles GET /rates
// @Summary      Current exchange rates
// @Description  Get the cached exchange rate table, optionally re-anchored at another currency
// @Tags         rates
// @Produce      json
// @Param        base query string false "Anchor currency"
// @Success      200 {object} response.APIResponse{data=RatesResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /rates [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()

	base := snap.Base
	if raw := r.URL.Query().Get("base"); raw != "" {
		base = currency.Normalize(raw)
		if !base.Valid() {
			response.BadRequest(w, "Invalid base currency")
			return
		}
		if _, ok := snap.Rates[base]; !ok {
			response.ValidationFailed(w, "No rate known for "+base.String())
			return
		}
	}

	table := currency.Rebase(snap.Rates, base)
	out := make(map[currency.Code]string, len(table))
	for code, rate := range table {
		out[code] = rate.StringFixed(6)
	}

	response.JSON(w, http.StatusOK, &RatesResponse{Base: base, AsOf: snap.AsOf, Rates: out})
}
