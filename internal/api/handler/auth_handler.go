package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"nomination_ledger/internal/api/middleware"
	"nomination_ledger/internal/app/service"
	"nomination_ledger/internal/common"
	"nomination_ledger/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService  *service.AuthService
	authenticate func(http.Handler) http.Handler
}

func NewAuthHandler(authService *service.AuthService, authenticate func(http.Handler) http.Handler) *AuthHandler {
	return &AuthHandler{authService: authService, authenticate: authenticate}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.login)

	r.Group(func(judgeRouter chi.Router) {
		judgeRouter.Use(h.authenticate)
		judgeRouter.Post("/logout", h.logout)
		judgeRouter.Get("/me", h.me)
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    resp.Token,
		Path:     "/",
		Expires:  resp.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Session required")
		return
	}
	if err := h.authService.Logout(r.Context(), sess.ID); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "jwt", Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	Judge     model.Judge `json:"judge"`
	Initials  string      `json:"initials"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Session required")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, meResponse{
		Judge:     sess.Judge,
		Initials:  sess.Judge.Initials(),
		ExpiresAt: sess.ExpiresAt,
	})
}
