// Package ratelimit throttles credential submissions per client address.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/louisbranch/itemdesk/internal/services/web/platform/httpx"
)

const (
	defaultMaxClients = 10_000
	defaultIdleTTL    = 5 * time.Minute
)

// Config tunes the limiter.
type Config struct {
	// Rate is the sustained number of requests allowed per second.
	Rate rate.Limit
	// Burst is the maximum burst size.
	Burst int
	// MaxClients bounds the number of tracked addresses.
	MaxClients int
	// IdleTTL forgets addresses not seen for this long.
	IdleTTL time.Duration
	// Methods lists the limited methods; empty limits POST only.
	Methods []string
	// OnLimited answers rejected requests; nil writes 429.
	OnLimited http.Handler
}

// Limiter holds one token bucket per client address.
type Limiter struct {
	cfg Config

	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	methods  map[string]bool
}

// New builds a Limiter.
func New(cfg Config) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = defaultMaxClients
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	methods := map[string]bool{}
	for _, m := range cfg.Methods {
		methods[m] = true
	}
	if len(methods) == 0 {
		methods[http.MethodPost] = true
	}
	return &Limiter{
		cfg:      cfg,
		limiters: expirable.NewLRU[string, *rate.Limiter](cfg.MaxClients, nil, cfg.IdleTTL),
		methods:  methods,
	}
}

// Allow reports whether a request from key may proceed now.
func (l *Limiter) Allow(key string) bool {
	return l.limiterFor(key).Allow()
}

func (l *Limiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.cfg.Rate, l.cfg.Burst)
	}
	// Re-adding refreshes the idle expiry.
	l.limiters.Add(key, limiter)
	return limiter
}

// Middleware enforces the limit on the configured methods.
func (l *Limiter) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.methods[r.Method] || l.Allow(httpx.ClientIP(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
			if l.cfg.OnLimited != nil {
				l.cfg.OnLimited.ServeHTTP(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}
}

func (l *Limiter) retryAfterSeconds() int {
	if l.cfg.Rate <= 0 || l.cfg.Rate == rate.Inf {
		return 1
	}
	return max(int(1.0/float64(l.cfg.Rate)), 1)
}
