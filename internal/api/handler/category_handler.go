package handler

import (
	"net/http"
	"strconv"

	"nomination_ledger/internal/common"
	"nomination_ledger/internal/domain/model"
	"nomination_ledger/internal/domain/repository"
	"nomination_ledger/internal/ledger"

	"github.com/go-chi/chi/v5"
)

type CategoryHandler struct {
	categories   repository.CategoryRepository
	ledger       *ledger.Ledger
	authenticate func(http.Handler) http.Handler
}

func NewCategoryHandler(categories repository.CategoryRepository, l *ledger.Ledger, authenticate func(http.Handler) http.Handler) *CategoryHandler {
	return &CategoryHandler{categories: categories, ledger: l, authenticate: authenticate}
}

func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list) // GET /api/v1/categories

	r.Group(func(judgeRouter chi.Router) {
		judgeRouter.Use(h.authenticate)
		judgeRouter.Get("/{categoryID}/status", h.status)                            // ?project_code=
		judgeRouter.Delete("/{categoryID}/nominations/{projectCode}", h.removeProject) // toggle off
	})
}

func (h *CategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, categories)
}

type categoryStatus struct {
	CategoryID   int    `json:"category_id"`
	Count        int    `json:"count"`
	Limit        int    `json:"limit"`
	Remaining    int    `json:"remaining"`
	Full         bool   `json:"full"`
	ProjectCode  string `json:"project_code,omitempty"`
	HasNominated bool   `json:"has_nominated"`
}

func (h *CategoryHandler) status(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	categoryID, ok := categoryIDParam(w, r)
	if !ok {
		return
	}
	if _, err := h.categories.Get(r.Context(), categoryID); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	count, err := h.ledger.CountInCategory(r.Context(), sess.Judge.ID, categoryID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	status := categoryStatus{
		CategoryID:  categoryID,
		Count:       count,
		Limit:       model.MaxNominationsPerCategory,
		Remaining:   max(model.MaxNominationsPerCategory-count, 0),
		Full:        count >= model.MaxNominationsPerCategory,
		ProjectCode: r.URL.Query().Get("project_code"),
	}
	if status.ProjectCode != "" {
		status.HasNominated, err = h.ledger.HasNominated(r.Context(), sess.Judge.ID, categoryID, status.ProjectCode)
		if err != nil {
			common.RespondWithDomainError(w, err)
			return
		}
	}
	common.RespondWithJSON(w, http.StatusOK, status)
}

func (h *CategoryHandler) removeProject(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	categoryID, ok := categoryIDParam(w, r)
	if !ok {
		return
	}
	if err := h.ledger.RemoveProject(r.Context(), sess.Judge.ID, categoryID, chi.URLParam(r, "projectCode")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func categoryIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "categoryID"))
	if err != nil || id <= 0 {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid category id")
		return 0, false
	}
	return id, true
}
