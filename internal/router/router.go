// Package router wires the HTTP surface of the site: the session-gated
// dashboard, logout, the database health check and operator metrics.
package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/shareride/internal/gzippedhttp"
	"github.com/patric-chuzhbe/shareride/internal/logger"
	"github.com/patric-chuzhbe/shareride/internal/session"
	"github.com/patric-chuzhbe/shareride/internal/view"
)

// Paths served by the router.
const (
	DashboardPath = "/dashboard"
	LogoutPath    = "/logout"
	PingPath      = "/ping"
	MetricsPath   = "/metrics"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type sessionManager interface {
	Middleware(h http.Handler) http.Handler
	Destroy(response http.ResponseWriter, request *http.Request) error
}

type requestMetrics interface {
	RequestMetrics(next http.Handler) http.Handler
	Handler() http.Handler
}

type trustedGate interface {
	TrustedOnly(h http.Handler) http.Handler
}

// Router holds the dependencies of the page handlers.
type Router struct {
	db        pinger
	sessions  sessionManager
	loginPath string
}

// New builds the chi router. metrics and gate may be nil, in which case
// /metrics is not served.
func New(
	db pinger,
	sessions sessionManager,
	loginPath string,
	metrics requestMetrics,
	gate trustedGate,
) *chi.Mux {
	myRouter := &Router{
		db:        db,
		sessions:  sessions,
		loginPath: loginPath,
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	if metrics != nil {
		router.Use(metrics.RequestMetrics)
	}

	router.Get(PingPath, myRouter.GetPing)

	router.Group(func(pages chi.Router) {
		pages.Use(
			gzippedhttp.GzipResponse,
			sessions.Middleware,
		)
		pages.Get(DashboardPath, myRouter.GetDashboard)
		pages.Get(LogoutPath, myRouter.GetLogout)
	})

	if metrics != nil && gate != nil {
		router.With(gate.TrustedOnly).Get(MetricsPath, metrics.Handler().ServeHTTP)
	}

	return router
}

// GetDashboard redirects visitors without a signed-in user to the login
// page and renders the dashboard for everybody else.
func (router *Router) GetDashboard(response http.ResponseWriter, request *http.Request) {
	values := session.FromContext(request.Context())

	if _, ok := values.Get(session.KeyUserID); !ok {
		http.Redirect(response, request, router.loginPath, http.StatusFound)
		return
	}

	// A missing first name renders as an empty string.
	firstName, _ := values.Get(session.KeyUserFirstName)

	page, err := view.Dashboard(view.NewDashboardData(firstName, LogoutPath))
	if err != nil {
		logger.Log.Errorln("Error calling the `view.Dashboard()`:", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	response.WriteHeader(http.StatusOK)
	if _, err := response.Write(page); err != nil {
		logger.Log.Debugln("Error writing the dashboard:", zap.Error(err))
	}
}

// GetLogout ends the current session and sends the visitor to the login page.
func (router *Router) GetLogout(response http.ResponseWriter, request *http.Request) {
	if err := router.sessions.Destroy(response, request); err != nil {
		logger.Log.Errorln("Error calling the `router.sessions.Destroy()`:", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(response, request, router.loginPath, http.StatusFound)
}

// GetPing reports whether the database connection is alive.
func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.db.Ping(request.Context()); err != nil {
		logger.Log.Errorln("Error calling the `router.db.Ping()`:", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}
