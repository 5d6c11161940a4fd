package handler

import (
	"encoding/json"
	"net/http"

	"nomination_ledger/internal/api/middleware"
	"nomination_ledger/internal/common"
	"nomination_ledger/internal/domain/model"
	"nomination_ledger/internal/ledger"
	"nomination_ledger/internal/session"

	"github.com/go-chi/chi/v5"
)

type NominationHandler struct {
	ledger       *ledger.Ledger
	authenticate func(http.Handler) http.Handler
}

func NewNominationHandler(l *ledger.Ledger, authenticate func(http.Handler) http.Handler) *NominationHandler {
	return &NominationHandler{ledger: l, authenticate: authenticate}
}

// RegisterRoutes mounts the judge's own nominations; every route needs a session.
func (h *NominationHandler) RegisterRoutes(r chi.Router) {
	r.Use(h.authenticate)
	r.Get("/", h.list)                    // GET /api/v1/nominations
	r.Post("/", h.create)                 // POST /api/v1/nominations
	r.Get("/summary", h.summary)          // GET /api/v1/nominations/summary
	r.Delete("/{nominationID}", h.delete) // DELETE /api/v1/nominations/{id}
}

type CreateNominationRequest struct {
	CategoryID  int    `json:"category_id"`
	ProjectCode string `json:"project_code"`
}

func (h *NominationHandler) create(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req CreateNominationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	n, err := h.ledger.Nominate(r.Context(), sess.Judge, req.CategoryID, req.ProjectCode)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, n)
}

func (h *NominationHandler) delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := h.ledger.Remove(r.Context(), sess.Judge.ID, chi.URLParam(r, "nominationID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NominationHandler) list(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	rows, err := h.ledger.Nominations(r.Context(), sess.Judge.ID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}

type summaryResponse struct {
	Categories []model.CategorySummary `json:"categories"`
	Stats      model.JudgeStats        `json:"stats"`
}

func (h *NominationHandler) summary(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	summary, err := h.ledger.Summary(r.Context(), sess.Judge.ID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, summaryResponse{
		Categories: summary,
		Stats:      ledger.StatsFromSummary(summary),
	})
}

func requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Session required")
	}
	return sess, ok
}
