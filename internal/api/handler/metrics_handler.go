package handler

import (
	"context"
	"net/http"
	"strconv"

	"nomination_ledger/internal/app/service"
	"nomination_ledger/internal/common"
	"nomination_ledger/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// RefreshFunc recomputes the snapshot on demand. The server passes the
// refresher worker's method so a manual reload also reaches live dashboards.
type RefreshFunc func(ctx context.Context) (model.MetricsSnapshot, error)

type MetricsHandler struct {
	metrics *service.MetricsService
	refresh RefreshFunc
}

func NewMetricsHandler(metrics *service.MetricsService, refresh RefreshFunc) *MetricsHandler {
	if refresh == nil {
		refresh = metrics.Refresh
	}
	return &MetricsHandler{metrics: metrics, refresh: refresh}
}

func (h *MetricsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.snapshot)
	r.Get("/global", h.global)
	r.Get("/categories", h.categories)
	r.Get("/top", h.top)
	r.Get("/activity", h.activity)
}

func (h *MetricsHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	var (
		snap model.MetricsSnapshot
		err  error
	)
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		snap, err = h.refresh(r.Context())
	} else {
		snap, err = h.metrics.Current(r.Context())
	}
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, snap)
}

func (h *MetricsHandler) global(w http.ResponseWriter, r *http.Request) {
	stats, err := h.metrics.Global(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *MetricsHandler) categories(w http.ResponseWriter, r *http.Request) {
	rows, err := h.metrics.Categories(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *MetricsHandler) top(w http.ResponseWriter, r *http.Request) {
	rows, err := h.metrics.TopProjects(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *MetricsHandler) activity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			common.RespondWithError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	rows, err := h.metrics.Activity(r.Context(), limit)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}
