package api

import (
	"net/http"
	"strings"

	"github.com/beemailley/final-project-backend-bm/internal/api/envelope"
	"github.com/beemailley/final-project-backend-bm/internal/api/handlers"
	"github.com/beemailley/final-project-backend-bm/internal/api/middleware"
	"github.com/beemailley/final-project-backend-bm/internal/audit"
	"github.com/beemailley/final-project-backend-bm/internal/auth"
	"github.com/beemailley/final-project-backend-bm/internal/config"
	"github.com/beemailley/final-project-backend-bm/internal/domain/events"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/metrics"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const serviceName = "meetup-server"

// Deps is everything the router needs. Pool is only set for the Postgres
// driver and enables the migration health check.
type Deps struct {
	Config    config.Config
	Logger    zerolog.Logger
	Store     storage.Store
	Pool      *pgxpool.Pool
	Version   string
	GitCommit string
	BuildDate string
}

// NewRouter wires services and handlers over deps.Store and returns the
// fully wrapped handler.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	env := cfg.Environment

	auditLogger := audit.NewLogger(logger)
	usersService := users.NewService(deps.Store.Accounts(), auth.NewHasher(cfg.Auth.BcryptCost), auditLogger, logger)
	eventsService := events.NewService(deps.Store.Events(), auditLogger, logger)

	authHandler := handlers.NewAuthHandler(usersService, env)
	usersHandler := handlers.NewUsersHandler(usersService, env)
	eventsHandler := handlers.NewEventsHandler(eventsService, env)
	health := handlers.NewHealthChecker(deps.Store, deps.Pool, cfg.Store.Driver, deps.Version, deps.GitCommit, env)

	requireToken := middleware.TokenAuth(usersService, env)

	mux := http.NewServeMux()
	var routes []handlers.Route
	route := func(method, path string, h http.Handler, protected bool) {
		if protected {
			h = requireToken(h)
		}
		// Wrapped inside the mux so r.Pattern is set for metric labels.
		mux.Handle(method+" "+path, metrics.HTTPMiddleware(h))
		routes = append(routes, handlers.Route{Method: method, Path: path, Auth: protected})
	}

	route(http.MethodPost, "/register", http.HandlerFunc(authHandler.Register), false)
	route(http.MethodPost, "/login", http.HandlerFunc(authHandler.Login), false)

	route(http.MethodGet, "/users", http.HandlerFunc(usersHandler.List), true)
	route(http.MethodGet, "/users/{username}", http.HandlerFunc(usersHandler.Get), true)
	route(http.MethodPatch, "/users/{username}/update", http.HandlerFunc(usersHandler.Update), true)

	route(http.MethodPost, "/events", http.HandlerFunc(eventsHandler.Create), true)
	route(http.MethodGet, "/events", http.HandlerFunc(eventsHandler.List), true)
	route(http.MethodGet, "/events/{eventId}", http.HandlerFunc(eventsHandler.Get), true)
	route(http.MethodPatch, "/events/{eventId}", http.HandlerFunc(eventsHandler.Update), true)
	route(http.MethodDelete, "/events/{eventId}", http.HandlerFunc(eventsHandler.Delete), true)
	route(http.MethodPost, "/events/{eventId}/attendees", http.HandlerFunc(eventsHandler.Join), true)
	route(http.MethodDelete, "/events/{eventId}/attendees/{attendeeUserId}", http.HandlerFunc(eventsHandler.Leave), true)

	route(http.MethodGet, "/healthz", handlers.Healthz(), false)
	route(http.MethodGet, "/readyz", health.Readyz(), false)
	route(http.MethodGet, "/health", health.Health(), false)
	route(http.MethodGet, "/version", VersionHandler(deps.Version, deps.GitCommit, deps.BuildDate), false)
	route(http.MethodGet, "/openapi.json", OpenAPIHandler(), false)

	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{Registry: metrics.Registry}))
	routes = append(routes, handlers.Route{Method: http.MethodGet, Path: "/metrics"})

	mux.Handle("GET /{$}", handlers.Root(serviceName, deps.Version, routes))
	mux.Handle("/", unmatched(mux, env))

	var h http.Handler = mux
	h = middleware.RequestSize(cfg.Server.MaxBodyBytes)(h)
	h = middleware.CORS(cfg.CORS, logger)(h)
	h = middleware.SecurityHeaders(cfg.Environment == "production")(h)
	h = middleware.RequestLogging(logger)(h)
	h = middleware.Tracing(h)
	h = middleware.CorrelationID(logger)(h)
	h = middleware.Recover(logger)(h)
	return h
}

var routeMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
}

// unmatched answers requests no route accepts. A path registered under other
// methods gets 405 with an Allow header, anything else 404.
func unmatched(mux *http.ServeMux, env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var allowed []string
		for _, method := range routeMethods {
			if method == r.Method {
				continue
			}
			alt := r.Clone(r.Context())
			alt.Method = method
			if _, pattern := mux.Handler(alt); pattern != "" && pattern != "/" {
				allowed = append(allowed, method)
			}
		}
		if len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			envelope.Error(w, r, http.StatusMethodNotAllowed, "method not allowed", nil, env)
			return
		}
		envelope.Error(w, r, http.StatusNotFound, "no such endpoint", nil, env)
	})
}
