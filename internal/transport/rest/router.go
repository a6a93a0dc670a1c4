package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/access-approval/internal/application"
	"github.com/frahmantamala/access-approval/internal/auth"
	"github.com/frahmantamala/access-approval/internal/directory"
	"github.com/frahmantamala/access-approval/internal/grant"
	"github.com/frahmantamala/access-approval/internal/transport/middleware"
	"github.com/frahmantamala/access-approval/internal/transport/swagger"
	"github.com/frahmantamala/access-approval/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Routes carries everything RegisterAllRoutes mounts. Nil handlers leave their routes out.
type Routes struct {
	Health      *HealthHandler
	Auth        *auth.Handler
	Roles       *auth.RoleAuthorization
	AdminRoleID int64
	Application *application.Handler
	Directory   *directory.Handler
	Grant       *grant.Handler
	User        *user.Handler

	Metrics        http.Handler
	MetricsPath    string
	Observer       middleware.RequestObserver
	AllowedOrigins string
}

func RegisterAllRoutes(router *chi.Mux, routes Routes, logger *slog.Logger) {
	router.Use(middleware.CORS(routes.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger, routes.Observer))

	router.Get(swagger.SpecPath, swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())

	if routes.Metrics != nil {
		path := routes.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, routes.Metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		if routes.Health != nil {
			r.Get("/health", routes.Health.Health)
			r.Get("/ping", routes.Health.Ping)
		}

		if routes.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", routes.Auth.Login)
			sr.Post("/refresh", routes.Auth.Refresh)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(routes.Auth.AuthMiddleware)

			if routes.Directory != nil {
				pr.Get("/services", routes.Directory.ListServices)
				pr.Get("/services/{id}", routes.Directory.GetService)

				if routes.Roles != nil {
					pr.Route("/directory", func(dr chi.Router) {
						dr.Use(routes.Roles.RequireAdmin(routes.AdminRoleID))
						dr.Get("/users", routes.Directory.ListUsers)
						dr.Get("/users/{id}", routes.Directory.GetUser)
						dr.Get("/workers", routes.Directory.ListWorkers)
						dr.Get("/workers/{id}", routes.Directory.GetWorker)
						dr.Get("/departments", routes.Directory.ListDepartments)
						dr.Get("/positions", routes.Directory.ListPositions)
					})
				}
			}

			if routes.Grant != nil {
				pr.Get("/grants", routes.Grant.ListMine)
			}

			if routes.User != nil {
				pr.Get("/users/me", routes.User.GetCurrentUser)
			}

			if routes.Application != nil {
				pr.Route("/applications", func(ar chi.Router) {
					ar.Post("/", routes.Application.Submit)
					ar.Get("/", routes.Application.ListMine)
					ar.Get("/{id}", routes.Application.Get)
				})
				pr.Route("/owner/applications", func(or chi.Router) {
					or.Get("/", routes.Application.ListForOwner)
					or.Post("/{id}/decision", routes.Application.OwnerDecide)
				})
				pr.Route("/admin/applications", func(ar chi.Router) {
					ar.Get("/", routes.Application.ListForAdmin)
					ar.Post("/{id}/decision", routes.Application.AdminDecide)
				})
			}
		})
	})
}
