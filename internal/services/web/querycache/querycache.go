// Package querycache is a per-browser cache of server queries with
// prefix invalidation and mutation callbacks.
//
// Entries stay fresh until invalidated or until they outlive their maximum
// age. Stale entries remain visible to Peek and are refetched by the next
// Query. Concurrent queries for one key share a single fetch, and a fetch
// that started before an invalidation or Clear never overwrites the newer
// state.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key identifies a query. Keys are hierarchical: Invalidate with a prefix
// matches every key that starts with it.
type Key []string

func (k Key) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether k starts with every segment of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for idx, segment := range prefix {
		if k[idx] != segment {
			return false
		}
	}
	return true
}

// ErrorHook observes a failed query or mutation.
type ErrorHook func(ctx context.Context, err error)

const defaultFetchTimeout = 30 * time.Second

// Config installs the cache-wide error hooks and freshness policy.
type Config struct {
	OnQueryError    ErrorHook
	OnMutationError ErrorHook
	// StaleAfter is the default maximum age of an entry; zero keeps entries
	// fresh until invalidated.
	StaleAfter time.Duration
	// FetchTimeout bounds a shared fetch once detached from the caller that
	// started it.
	FetchTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// QueryOption tunes a single query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	maxAge  time.Duration
	bounded bool
}

// MaxAge overrides Config.StaleAfter for one query. A zero or negative age
// refetches on every Query, still sharing concurrent fetches.
func MaxAge(d time.Duration) QueryOption {
	return func(o *queryOptions) {
		o.maxAge = d
		o.bounded = true
	}
}

// Mutation describes one state-changing call and its callbacks. The
// cache-wide OnMutationError hook runs before OnError; OnSettled runs last
// with the outcome.
type Mutation struct {
	Fn        func(ctx context.Context) error
	OnSuccess func(ctx context.Context)
	OnError   func(ctx context.Context, err error)
	OnSettled func(ctx context.Context, err error)
}

type slot struct {
	key       Key
	gen       uint64
	has       bool
	stale     bool
	value     any
	fetchedAt time.Time
	opts      queryOptions
}

func (s *slot) fresh(now time.Time) bool {
	if !s.has || s.stale {
		return false
	}
	return !s.opts.bounded || now.Sub(s.fetchedAt) < s.opts.maxAge
}

// Client owns the cached queries of one browser.
type Client struct {
	cfg Config

	mu    sync.Mutex
	epoch uint64
	slots map[string]*slot

	flights singleflight.Group
}

// New builds an empty Client.
func New(cfg Config) *Client {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Client{cfg: cfg, slots: map[string]*slot{}}
}

func (c *Client) options(opts []QueryOption) queryOptions {
	resolved := queryOptions{maxAge: c.cfg.StaleAfter, bounded: c.cfg.StaleAfter > 0}
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	return resolved
}

// Query returns the cached value for key, calling fetch when the entry is
// missing or stale. Fetch errors are reported to OnQueryError and returned
// without being cached. A caller whose ctx ends stops waiting; the shared
// fetch keeps running for the other callers.
func (c *Client) Query(ctx context.Context, key Key, fetch func(context.Context) (any, error), opts ...QueryOption) (any, error) {
	if len(key) == 0 {
		return nil, errors.New("query key is required")
	}
	id := key.String()

	c.mu.Lock()
	s, ok := c.slots[id]
	if !ok {
		s = &slot{key: append(Key(nil), key...)}
		c.slots[id] = s
	}
	s.opts = c.options(opts)
	if s.fresh(c.cfg.Now()) {
		value := s.value
		c.mu.Unlock()
		return value, nil
	}
	epoch, gen := c.epoch, s.gen
	c.mu.Unlock()

	flight := fmt.Sprintf("%s#%d#%d", id, epoch, gen)
	results := c.flights.DoChan(flight, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FetchTimeout)
		defer cancel()
		value, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.epoch == epoch && c.slots[id] == s && s.gen == gen {
			s.value = value
			s.has = true
			s.stale = false
			s.fetchedAt = c.cfg.Now()
		}
		c.mu.Unlock()
		return value, nil
	})

	var value any
	var err error
	select {
	case res := <-results:
		value, err = res.Val, res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		if c.cfg.OnQueryError != nil {
			c.cfg.OnQueryError(ctx, err)
		}
		return nil, err
	}
	return value, nil
}

// Fetch is a typed wrapper over Client.Query.
func Fetch[T any](ctx context.Context, c *Client, key Key, fetch func(context.Context) (T, error), opts ...QueryOption) (T, error) {
	value, err := c.Query(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query %s cached %T, want %T", key, value, zero)
	}
	return typed, nil
}

// Mutate runs m and its callbacks, returning the error from m.Fn.
func (c *Client) Mutate(ctx context.Context, m Mutation) error {
	if m.Fn == nil {
		return errors.New("mutation function is required")
	}
	err := m.Fn(ctx)
	if err != nil {
		if c.cfg.OnMutationError != nil {
			c.cfg.OnMutationError(ctx, err)
		}
		if m.OnError != nil {
			m.OnError(ctx, err)
		}
	} else if m.OnSuccess != nil {
		m.OnSuccess(ctx)
	}
	if m.OnSettled != nil {
		m.OnSettled(ctx, err)
	}
	return err
}

// Invalidate marks every entry under prefix stale and fences in-flight
// fetches for those keys. It returns the number of cached entries marked.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	marked := 0
	for _, s := range c.slots {
		if !s.key.HasPrefix(prefix) {
			continue
		}
		s.gen++
		if s.has {
			s.stale = true
			marked++
		}
	}
	return marked
}

// Clear drops every entry and fences all in-flight fetches.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.slots = map[string]*slot{}
}

// Len returns the number of cached entries, fresh or stale.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, s := range c.slots {
		if s.has {
			n++
		}
	}
	return n
}

// Peek returns the cached value for key without fetching.
func (c *Client) Peek(key Key) (value any, stale bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, found := c.slots[key.String()]
	if !found || !s.has {
		return nil, false, false
	}
	return s.value, !s.fresh(c.cfg.Now()), true
}
