package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dtroode/authkeeper/internal/api/http/handler"
	"github.com/dtroode/authkeeper/internal/api/http/middleware"
	"github.com/dtroode/authkeeper/internal/apierrors"
	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// Service is everything the HTTP API needs from the auth service.
type Service interface {
	handler.AuthService
	handler.UserService
}

// Router represents the HTTP router of the auth API.
type Router struct {
	service        Service
	gate           middleware.AccessGate
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates new HTTP Router instance.
func New(
	service Service,
	gate middleware.AccessGate,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		service:        service,
		gate:           gate,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register builds the handler tree. Every route lives under /api/v1.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	recovery := middleware.NewRecovery(r.logger)
	authenticate := middleware.NewAuthenticate(r.gate, r.contextManager, r.logger)

	root := mux.NewRouter()
	root.Use(logging.Handle, recovery.Handle)
	root.NotFoundHandler = logging.Handle(http.HandlerFunc(r.notFound))
	root.MethodNotAllowedHandler = logging.Handle(http.HandlerFunc(r.methodNotAllowed))

	api := root.PathPrefix("/api/v1").Subrouter()
	r.registerAuthRoutes(api, authenticate)
	r.registerUserRoutes(api, authenticate)

	return root
}

func (r *Router) registerAuthRoutes(api *mux.Router, authenticate *middleware.Authenticate) {
	h := handler.NewAuth(r.service, r.service, r.contextManager, r.logger)

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", h.RefreshToken).Methods(http.MethodPost)

	auth.Handle("/logout", authenticate.Handle(http.HandlerFunc(h.Logout))).Methods(http.MethodPost)
	auth.Handle("/logout-all", authenticate.Handle(http.HandlerFunc(h.LogoutAll))).Methods(http.MethodPost)
	auth.Handle("/me", authenticate.Handle(http.HandlerFunc(h.Me))).Methods(http.MethodGet)
}

func (r *Router) registerUserRoutes(api *mux.Router, authenticate *middleware.Authenticate) {
	h := handler.NewUser(r.service, r.contextManager, r.logger)

	users := api.PathPrefix("/users").Subrouter()
	users.Use(authenticate.Handle)

	users.Handle("/{id}",
		authenticate.RequireRoles(model.RoleUser, model.RoleAdmin)(http.HandlerFunc(h.GetUser)),
	).Methods(http.MethodGet)
	users.Handle("/{id}",
		authenticate.RequireRoles(model.RoleAdmin)(http.HandlerFunc(h.UpdateUser)),
	).Methods(http.MethodPut, http.MethodPatch)
	users.Handle("/{id}/status",
		authenticate.RequireRoles(model.RoleAdmin)(http.HandlerFunc(h.SetStatus)),
	).Methods(http.MethodPatch)
}

func (r *Router) notFound(w http.ResponseWriter, req *http.Request) {
	handler.WriteError(w, req, r.logger, apierrors.NewErrRouteNotFound())
}

func (r *Router) methodNotAllowed(w http.ResponseWriter, req *http.Request) {
	handler.WriteError(w, req, r.logger, apierrors.NewErrMethodNotAllowed())
}
