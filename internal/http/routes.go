package httpx

// Package httpx wires HTTP handlers and middleware for the campus auth system.

import (
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions     SessionServiceInterface
	Broker       TokenBrokerInterface
	Logout       LogoutInterface
	Tenants      TenantReader
	CookieDomain string
	Now          func() time.Time
	Logger       *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandlers := &AuthHandlers{
		Sessions:     services.Sessions,
		Broker:       services.Broker,
		LogoutSvc:    services.Logout,
		CookieDomain: services.CookieDomain,
		Now:          services.Now,
		Logger:       logger,
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	mux.HandleFunc("GET /auth/login", authHandlers.Login)
	mux.HandleFunc("GET /auth/callback", authHandlers.Callback)
	mux.HandleFunc("POST /auth/logout", authHandlers.Logout)
	mux.HandleFunc("GET /auth/status", authHandlers.Status)

	requireSession := RequireSession(services.Sessions, services.Now)
	mux.Handle("GET /auth/id-token", requireSession(http.HandlerFunc(authHandlers.Token)))

	if services.Tenants != nil {
		tenantHandlers := &TenantHandlers{Tenants: services.Tenants, Logger: logger}
		mux.Handle("GET /tenant/{id}", requireSession(http.HandlerFunc(tenantHandlers.Get)))

		requireAdmin := RequireRole(domainauth.RoleAdmin)
		mux.Handle("GET /tenants", requireSession(requireAdmin(http.HandlerFunc(tenantHandlers.List))))
	}

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
