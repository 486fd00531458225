package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/louisbranch/itemdesk/internal/identity"
	"github.com/louisbranch/itemdesk/internal/items"
	"github.com/louisbranch/itemdesk/internal/platform/timeouts"
	"github.com/louisbranch/itemdesk/internal/services/web/authflow"
	"github.com/louisbranch/itemdesk/internal/services/web/composition"
	"github.com/louisbranch/itemdesk/internal/services/web/navigation"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/escalation"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/flash"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/itemdesk/internal/services/web/platform/i18n"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/observability"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/ratelimit"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
	"github.com/louisbranch/itemdesk/internal/services/web/webclient"
)

// Config defines the inputs for the web server.
type Config struct {
	HTTPAddr   string
	Provider   identity.Provider
	Items      items.Gateway
	ItemPolicy items.Policy
	// Clients bounds the per-browser client registry. Cache error hooks
	// default to the sign-in escalation.
	Clients webclient.Config
	// RateLimit throttles credential submissions; a zero Rate disables it.
	RateLimit           ratelimit.Config
	RequestSchemePolicy requestmeta.SchemePolicy
	Logger              *log.Logger
}

// Server hosts the web HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewHandler builds the complete web handler.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if cfg.Items == nil {
		return nil, errors.New("item gateway is required")
	}
	notices := flash.Store{Policy: cfg.RequestSchemePolicy}

	clients := cfg.Clients
	clients.SchemePolicy = cfg.RequestSchemePolicy
	if clients.Cache.OnQueryError == nil {
		clients.Cache.OnQueryError = escalation.Handler
	}
	if clients.Cache.OnMutationError == nil {
		clients.Cache.OnMutationError = escalation.Handler
	}
	registry := webclient.NewRegistry(clients)

	var authOnly []httpx.Middleware
	if cfg.RateLimit.Rate > 0 {
		limit := cfg.RateLimit
		if limit.OnLimited == nil {
			limit.OnLimited = rateLimited(notices)
		}
		authOnly = append(authOnly, ratelimit.New(limit).Middleware())
	}

	appHandler, err := composition.ComposeAppHandler(composition.ComposeInput{
		Auth:                authflow.New(cfg.Provider),
		Items:               cfg.Items,
		Policy:              cfg.ItemPolicy,
		AuthOnlyMiddleware:  authOnly,
		RequestSchemePolicy: cfg.RequestSchemePolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("compose app handler: %w", err)
	}

	root := http.NewServeMux()
	root.HandleFunc(http.MethodGet+" "+routepath.Health, handleHealth(registry))
	root.Handle(routepath.Root, httpx.Chain(appHandler,
		webi18n.Middleware,
		registry.Middleware(),
		navigation.Middleware,
	))

	return httpx.Chain(root,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		traceRequests,
		observability.RequestLogger(cfg.Logger),
	), nil
}

// NewServer builds a configured web server.
func NewServer(cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe runs the HTTP server until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("web listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close stops the server immediately.
func (s *Server) Close() error {
	if s == nil || s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}

func traceRequests(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "itemdesk-web",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func handleHealth(registry *webclient.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"clients": registry.Len(),
		})
	}
}

// rateLimited answers throttled submissions by sending the browser back to
// the same page with an error notice.
func rateLimited(notices flash.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		notices.Write(w, r, flash.Error("error.rate_limited"))
		httpx.WriteRedirect(w, r, r.URL.RequestURI())
	})
}
