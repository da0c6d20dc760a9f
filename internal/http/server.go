package httpapi

import (
	"net/http"
	"time"

	"servicehours-backend-go/internal/config"
	"servicehours-backend-go/internal/db"
	"servicehours-backend-go/internal/identity"
	"servicehours-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	Store    *services.Store
	Resolver *services.Resolver
	Tokens   services.TokenService
	Provider identity.Provider
	Config   config.Config
	DataDir  string
}

// NewServer wires the HTTP surface. provider may be nil when federated login
// is not configured.
func NewServer(store *services.Store, provider identity.Provider, cfg config.Config) *Server {
	tokens := services.TokenService{
		Secret:    []byte(cfg.JWTSecret),
		Issuer:    cfg.JWTIssuer,
		AccessTTL: time.Duration(cfg.AccessTTLSeconds) * time.Second,
	}
	return &Server{
		Store:    store,
		Resolver: services.NewResolver(store, cfg.AllowedEmailDomain),
		Tokens:   tokens,
		Provider: provider,
		Config:   cfg,
		DataDir:  db.DataDir(cfg.DatabaseURL),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	staff := []string{services.RoleCompany, services.RoleDepartment, services.RoleAdmin}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", s.Login)
		api.Get("/auth/federated/url", s.FederatedURL)
		api.Post("/auth/federated/callback", s.FederatedCallback)
		api.Post("/auth/logout", s.Logout)

		api.Group(func(authed chi.Router) {
			authed.Use(WithAuth(s.Tokens, s.Resolver))
			authed.Get("/me", s.Me)

			authed.Route("/students", func(students chi.Router) {
				students.Get("/", s.ListStudents)
				students.Get("/{id}/status", s.StudentStatus)
				students.Group(func(admin chi.Router) {
					admin.Use(RequireAdmin(s.Resolver))
					admin.Post("/", s.CreateStudent)
					admin.Post("/{id}/delete", s.DeleteStudent)
					admin.Post("/{id}/restore", s.RestoreStudent)
				})
			})

			authed.Route("/places", func(places chi.Router) {
				places.Get("/", s.ListPlaces)
				places.Group(func(admin chi.Router) {
					admin.Use(RequireAdmin(s.Resolver))
					admin.Post("/", s.CreatePlace)
					admin.Post("/{id}/delete", s.DeletePlace)
					admin.Post("/{id}/restore", s.RestorePlace)
				})
			})

			authed.Route("/records", func(records chi.Router) {
				records.Get("/", s.ListRecords)
				records.Get("/export", s.ExportRecords)
				records.With(RequireAnyRole(append([]string{services.RoleStudent}, staff...)...)).Post("/", s.CreateRecord)
				records.With(RequireAnyRole(staff...)).Post("/{id}/validate", s.ValidateRecord)
			})

			authed.With(RequireAnyRole(services.RoleAdmin, services.RoleDepartment, services.RoleFaculty)).Get("/dashboard", s.Dashboard)

			authed.Route("/admin", func(admin chi.Router) {
				admin.Use(RequireAdmin(s.Resolver))
				admin.Get("/codes", s.ListAdminCodes)
				admin.Post("/codes", s.AddAdminCode)
				admin.Delete("/codes/{code}", s.RemoveAdminCode)
				admin.Get("/users", s.ListUsers)
				admin.Post("/users", s.CreateUser)
				admin.Get("/audit", s.ListAudit)
				admin.Get("/health", s.Health)
			})
		})
	})

	r.Get("/ws/audit", s.AuditSocket)
	return r
}
