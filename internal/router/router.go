package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/cboderot1/turnos2/internal/config"
	"github.com/cboderot1/turnos2/internal/dispatch"
	"github.com/cboderot1/turnos2/internal/handlers"
	"github.com/cboderot1/turnos2/internal/middleware"
	"github.com/cboderot1/turnos2/internal/models"
	"github.com/cboderot1/turnos2/internal/repository"
	"github.com/cboderot1/turnos2/internal/service"
)

func New(log zerolog.Logger, core *dispatch.Coordinator, users repository.UserRepository, cfg config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(httprate.LimitByIP(200, time.Minute))
	r.Use(middleware.WithAuth(log, cfg))

	r.Get("/healthz", handlers.Health())

	authSvc := service.NewAuthService(users, cfg.SessionSecret)
	ah := handlers.NewAuthHTTP(authSvc, users)
	th := handlers.NewTicketHTTP(core)
	gh := handlers.NewAgentHTTP(core, users)
	rh := handlers.NewReportsHTTP(core)
	uh := handlers.NewUserHTTP(users)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", ah.Login())
			r.Post("/logout", ah.Logout())
			r.With(middleware.RequireAuth).Get("/me", ah.Me())
		})

		r.Route("/tickets", func(r chi.Router) {
			// intake kiosk and display board carry no session
			r.Post("/", th.Create())
			r.Get("/queue", th.Queue())
			r.Get("/{id}", th.Get())
			r.With(middleware.RequireRoles(models.RoleAsesor, models.RoleMatrizador)).
				Post("/{id}/complete", th.Complete())
		})

		r.Route("/agents", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.With(middleware.RequireRoles(models.RoleAdmin)).Get("/", gh.List())
			r.With(middleware.RequireRoles(models.RoleAsesor, models.RoleMatrizador)).
				Get("/me", gh.Me())
			r.With(middleware.RequireSelfOrRoles(models.RoleAdmin)).
				Post("/{id}/next", gh.TakeNext())
			r.With(middleware.RequireRoles(models.RoleAdmin)).
				Post("/{id}/status", gh.ForceStatus())
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.RequireAuth, middleware.RequireRoles(models.RoleAdmin))
			r.Get("/", rh.Completed())
			r.Get("/orphans", rh.Orphans())
		})

		r.With(middleware.RequireAuth, middleware.RequireRoles(models.RoleAdmin)).
			Get("/users", uh.List())
	})

	return r
}
