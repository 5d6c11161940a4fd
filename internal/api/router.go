package api

import (
	"net/http"
	"time"

	"nomination_ledger/internal/api/handler"
	"nomination_ledger/internal/api/middleware"
	"nomination_ledger/internal/api/ws"
	"nomination_ledger/internal/app/service"
	"nomination_ledger/internal/common/security"
	"nomination_ledger/internal/domain/model"
	"nomination_ledger/internal/domain/repository"
	"nomination_ledger/internal/ledger"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	categoryRepo repository.CategoryRepository,
	nominationLedger *ledger.Ledger,
	metricsService *service.MetricsService,
	refresh handler.RefreshFunc,
	hub *ws.Hub,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	// Token from "Authorization: Bearer T" or the "jwt" cookie set at login.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Live dashboards; long-lived, so outside the request timeout.
	r.Get("/ws/metrics", hub.Handler(func(r *http.Request) (model.MetricsSnapshot, error) {
		return metricsService.Current(r.Context())
	}))

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(chiMiddleware.Timeout(60 * time.Second))

		authenticate := middleware.Authenticator(authService)

		authHandler := handler.NewAuthHandler(authService, authenticate)
		v1.Route("/auth", authHandler.RegisterRoutes)

		categoryHandler := handler.NewCategoryHandler(categoryRepo, nominationLedger, authenticate)
		v1.Route("/categories", categoryHandler.RegisterRoutes)

		nominationHandler := handler.NewNominationHandler(nominationLedger, authenticate)
		v1.Route("/nominations", nominationHandler.RegisterRoutes)

		// Dashboards are public
		metricsHandler := handler.NewMetricsHandler(metricsService, refresh)
		v1.Route("/metrics", metricsHandler.RegisterRoutes)
	})

	return r
}
