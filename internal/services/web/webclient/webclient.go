// Package webclient keeps the per-browser state of the web service: one
// query cache and one identity credential slot for each browser.
package webclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/louisbranch/itemdesk/internal/identity"
	"github.com/louisbranch/itemdesk/internal/platform/id"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/itemdesk/internal/services/web/querycache"
)

const (
	defaultMaxClients = 10_000
	defaultIdleTTL    = 12 * time.Hour
)

// Client is the server-side state of one browser.
type Client struct {
	id    string
	cache *querycache.Client

	mu    sync.Mutex
	creds identity.Credentials
}

// ID returns the client id stored in the browser cookie.
func (c *Client) ID() string { return c.id }

// Cache returns the client's query cache.
func (c *Client) Cache() *querycache.Client { return c.cache }

// Credentials returns a copy of the stored provider credentials.
func (c *Client) Credentials() identity.Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds
}

// SetCredentials replaces the stored provider credentials.
func (c *Client) SetCredentials(creds identity.Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
}

// ClearCredentials forgets the stored provider credentials.
func (c *Client) ClearCredentials() {
	c.SetCredentials(identity.Credentials{})
}

// Config tunes the registry.
type Config struct {
	MaxClients   int
	IdleTTL      time.Duration
	Cache        querycache.Config
	SchemePolicy requestmeta.SchemePolicy
}

// Registry holds the live clients. Clients idle for longer than IdleTTL, or
// pushed out by MaxClients, are forgotten together with their credentials.
type Registry struct {
	cfg     Config
	clients *expirable.LRU[string, *Client]
	newID   func() (string, error)
}

// NewRegistry builds an empty Registry.
func NewRegistry(cfg Config) *Registry {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = defaultMaxClients
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	return &Registry{
		cfg:     cfg,
		clients: expirable.NewLRU[string, *Client](cfg.MaxClients, nil, cfg.IdleTTL),
		newID:   id.NewID,
	}
}

// Lookup returns the live client with clientID and refreshes its idle expiry.
func (r *Registry) Lookup(clientID string) (*Client, bool) {
	client, ok := r.clients.Get(clientID)
	if !ok {
		return nil, false
	}
	r.clients.Add(clientID, client)
	return client, true
}

// Create registers a new client with an empty cache.
func (r *Registry) Create() (*Client, error) {
	clientID, err := r.newID()
	if err != nil {
		return nil, fmt.Errorf("generate client id: %w", err)
	}
	client := &Client{id: clientID, cache: querycache.New(r.cfg.Cache)}
	r.clients.Add(clientID, client)
	return client, nil
}

// Remove forgets the client with clientID.
func (r *Registry) Remove(clientID string) {
	r.clients.Remove(clientID)
}

// Len returns the number of live clients.
func (r *Registry) Len() int {
	return r.clients.Len()
}

// Middleware resolves the browser's client, creating one when the cookie is
// missing or names a forgotten client, and stores it in the request context.
func (r *Registry) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			var client *Client
			if clientID, ok := sessioncookie.Read(req); ok {
				client, _ = r.Lookup(clientID)
			}
			if client == nil {
				created, err := r.Create()
				if err != nil {
					httpx.WriteError(w, err)
					return
				}
				client = created
				sessioncookie.Write(w, req, client.ID(), 0, r.cfg.SchemePolicy)
			}
			next.ServeHTTP(w, req.WithContext(WithClient(req.Context(), client)))
		})
	}
}

type contextKey struct{}

// WithClient stores client in ctx.
func WithClient(ctx context.Context, client *Client) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, client)
}

// FromContext returns the request's client, or nil.
func FromContext(ctx context.Context) *Client {
	if ctx == nil {
		return nil
	}
	client, _ := ctx.Value(contextKey{}).(*Client)
	return client
}
