// Package httpapi serves the hydrant inventory and the snapshot
// administration endpoints over HTTP.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"hydrantmap/internal/auth"
	"hydrantmap/internal/hydrant"
)

// Options holds configurable limits for the server.
type Options struct {
	// LoginRatePerMinute limits login attempts per client address.
	// Zero or less disables the limit.
	LoginRatePerMinute int

	// AfterSnapshot, if set, is called after an explicitly requested
	// snapshot was created. It must not block for long.
	AfterSnapshot func(info *hydrant.SnapshotInfo)
}

// Server routes requests to the hydrant service.
type Server struct {
	svc     *hydrant.Service
	users   *auth.Users
	tokens  *auth.TokenManager
	logger  hydrant.Logger
	opts    Options
	metrics *metrics
	login   *loginLimiter
}

// NewServer creates a Server.
func NewServer(svc *hydrant.Service, users *auth.Users, tokens *auth.TokenManager, logger hydrant.Logger, opts Options) *Server {
	return &Server{
		svc:     svc,
		users:   users,
		tokens:  tokens,
		logger:  logger,
		opts:    opts,
		metrics: newMetrics(svc, logger),
		login:   newLoginLimiter(opts.LoginRatePerMinute),
	}
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, s.observeMiddleware, s.recoveryMiddleware)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/hydrants", s.handleListHydrants).Methods(http.MethodGet)
	api.HandleFunc("/hydrants/{id}", s.handleGetHydrant).Methods(http.MethodGet)
	api.HandleFunc("/marker-types", s.handleMarkerTypes).Methods(http.MethodGet)
	api.Handle("/login", s.login.middleware(http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)

	api.Handle("/hydrants", s.admin(s.handleCreateHydrant)).Methods(http.MethodPost)
	api.Handle("/hydrants/{id}", s.admin(s.handleUpdateHydrant)).Methods(http.MethodPut)
	api.Handle("/hydrants/{id}", s.admin(s.handleDeleteHydrant)).Methods(http.MethodDelete)

	api.Handle("/snapshots", s.admin(s.handleSnapshotsGet)).Methods(http.MethodGet)
	api.Handle("/snapshots", s.admin(s.handleSnapshotsPost)).Methods(http.MethodPost)
	api.Handle("/snapshots", s.admin(s.handleSnapshotsDelete)).Methods(http.MethodDelete)

	api.Handle("/settings", s.admin(s.handleGetSettings)).Methods(http.MethodGet)
	api.Handle("/settings", s.admin(s.handlePutSettings)).Methods(http.MethodPut)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
