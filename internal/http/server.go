// Package http wires the JSON API and the embedded browser front end.
package http

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/services"
	"fintrack/internal/session"
	"fintrack/internal/storage"
	appweb "fintrack/web"
)

// credentialRateLimit caps login/register attempts per IP per minute.
const credentialRateLimit = 15

type Server struct {
	http.Server

	store       storage.Store
	auth        *services.AuthService
	ledger      *services.LedgerService
	sessions    *session.Manager
	rateLimiter *rateLimiter
	devMode     bool

	shutdownOnce sync.Once
}

// NewServer configures routes and the embedded static site, returning a
// ready-to-run http.Server.
func NewServer(addr string, store storage.Store, auth *services.AuthService, ledger *services.LedgerService, sessions *session.Manager, devMode bool) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:       store,
		auth:        auth,
		ledger:      ledger,
		sessions:    sessions,
		rateLimiter: newRateLimiter(credentialRateLimit),
		devMode:     devMode,
	}

	mux.HandleFunc("POST /api/register", s.withCommonHeaders(s.withRateLimit(s.handleRegister)))
	mux.HandleFunc("POST /api/login", s.withCommonHeaders(s.withRateLimit(s.handleLogin)))
	mux.HandleFunc("POST /api/logout", s.withCommonHeaders(s.handleLogout))
	mux.HandleFunc("GET /api/check-auth", s.withCommonHeaders(s.withAuth(s.handleCheckAuth)))
	mux.HandleFunc("GET /api/dashboard", s.withCommonHeaders(s.withAuth(s.handleDashboard)))
	mux.HandleFunc("GET /api/transactions", s.withCommonHeaders(s.withAuth(s.handleListTransactions)))
	mux.HandleFunc("POST /api/transactions", s.withCommonHeaders(s.withAuth(s.handleAddTransaction)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Static front end served from the embedded FS.
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.FileServer(http.FS(sub))
		mux.Handle("/", s.withCommonHeaders(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("failed to mount embedded static FS", "error", err)
	}

	return s
}

// Shutdown stops the rate limiter cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
