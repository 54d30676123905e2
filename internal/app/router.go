package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/trove-market/trove/internal/auth"
	"github.com/trove-market/trove/internal/items"
	"github.com/trove-market/trove/internal/observability"
	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/tags"
	"github.com/trove-market/trove/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	Auth         auth.Middleware
	AuthHandler  *auth.Handler
	ItemsHandler *items.Handler
	TagsHandler  *tags.Handler
	UsersHandler *users.Handler
	Metrics      *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.Auth.Authenticate)

		r.Route("/items", func(r chi.Router) {
			r.Use(params.Auth.RequireRole(roles.All()...))
			params.ItemsHandler.MountRoutes(r)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", params.TagsHandler.HandleList)
			r.With(params.Auth.RequireRole(roles.RoleAdmin, roles.RoleMaster, roles.RoleMod)).
				Post("/create", params.TagsHandler.HandleCreate)
			r.With(params.Auth.RequireRole(roles.RoleAdmin)).
				Post("/{tagID}/update", params.TagsHandler.HandleUpdate)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(params.Auth.RequireRole(roles.RoleMod, roles.RoleMaster)).
				Get("/", params.UsersHandler.HandleList)
			r.With(params.Auth.RequireRole(roles.RoleMaster)).
				Post("/{userID}/elevate", params.UsersHandler.HandleElevate)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
