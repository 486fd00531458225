// Package web parses web service flags and launches the service.
package web

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/louisbranch/itemdesk/internal/identity"
	"github.com/louisbranch/itemdesk/internal/identity/cognito"
	"github.com/louisbranch/itemdesk/internal/identity/local"
	"github.com/louisbranch/itemdesk/internal/items"
	"github.com/louisbranch/itemdesk/internal/items/appsync"
	itemsqlite "github.com/louisbranch/itemdesk/internal/items/sqlite"
	entrypoint "github.com/louisbranch/itemdesk/internal/platform/cmd"
	"github.com/louisbranch/itemdesk/internal/platform/id"
	"github.com/louisbranch/itemdesk/internal/platform/otel"
	"github.com/louisbranch/itemdesk/internal/services/web"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/ratelimit"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/itemdesk/internal/services/web/querycache"
	"github.com/louisbranch/itemdesk/internal/services/web/webclient"
)

const (
	providerCognito = "cognito"
	providerLocal   = "local"

	backendAppSync = "appsync"
	backendSQLite  = "sqlite"
)

// Config holds web command configuration.
type Config struct {
	HTTPAddr            string        `env:"ITEMDESK_WEB_HTTP_ADDR" envDefault:"localhost:8080"`
	Provider            string        `env:"ITEMDESK_IDENTITY_PROVIDER" envDefault:"local"`
	Backend             string        `env:"ITEMDESK_ITEMS_BACKEND" envDefault:"sqlite"`
	ItemPolicy          string        `env:"ITEMDESK_ITEM_POLICY" envDefault:"owner-write"`
	ItemsDBPath         string        `env:"ITEMDESK_ITEMS_DB" envDefault:"data/items.db"`
	TrustForwardedProto bool          `env:"ITEMDESK_WEB_TRUST_FORWARDED_PROTO"`
	LoginRate           float64       `env:"ITEMDESK_WEB_LOGIN_RATE" envDefault:"0.2"`
	LoginBurst          int           `env:"ITEMDESK_WEB_LOGIN_BURST" envDefault:"5"`
	MaxClients          int           `env:"ITEMDESK_WEB_MAX_CLIENTS" envDefault:"10000"`
	ClientIdleTTL       time.Duration `env:"ITEMDESK_WEB_CLIENT_IDLE_TTL" envDefault:"12h"`
	QueryStaleAfter     time.Duration `env:"ITEMDESK_WEB_QUERY_STALE_AFTER" envDefault:"5m"`

	Cognito   cognito.Config
	Local     local.Config
	AppSync   appsync.Config
	Telemetry otel.Config
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "Identity provider (cognito or local)")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Item backend (appsync or sqlite)")
	fs.StringVar(&cfg.ItemPolicy, "item-policy", cfg.ItemPolicy, "Item access policy (owner-write or owner-only)")
	fs.StringVar(&cfg.ItemsDBPath, "items-db", cfg.ItemsDBPath, "SQLite item database path")
	fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "Honor X-Forwarded-Proto when marking cookies secure")
	fs.Float64Var(&cfg.LoginRate, "login-rate", cfg.LoginRate, "Credential submissions per second per client address; 0 disables")
	fs.IntVar(&cfg.LoginBurst, "login-burst", cfg.LoginBurst, "Credential submission burst per client address")
	fs.DurationVar(&cfg.QueryStaleAfter, "query-stale-after", cfg.QueryStaleAfter, "Maximum age of cached browser queries; 0 keeps them until invalidated")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.provider() {
	case providerCognito, providerLocal:
	default:
		return fmt.Errorf("unknown identity provider %q", c.Provider)
	}
	switch c.backend() {
	case backendAppSync, backendSQLite:
	default:
		return fmt.Errorf("unknown item backend %q", c.Backend)
	}
	if _, err := items.ParsePolicy(c.ItemPolicy); err != nil {
		return err
	}
	if c.QueryStaleAfter < 0 {
		return errors.New("query stale window must not be negative")
	}
	if c.LoginRate < 0 {
		return errors.New("login rate must not be negative")
	}
	return nil
}

func (c Config) provider() string { return strings.ToLower(strings.TrimSpace(c.Provider)) }

func (c Config) backend() string { return strings.ToLower(strings.TrimSpace(c.Backend)) }

// Run starts the web service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, entrypoint.RunOptions{Telemetry: cfg.Telemetry}, func(ctx context.Context) error {
		policy, err := items.ParsePolicy(cfg.ItemPolicy)
		if err != nil {
			return err
		}
		provider, closeProvider, err := openProvider(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open identity provider: %w", err)
		}
		defer closeQuietly("identity provider", closeProvider)

		gateway, closeGateway, err := openGateway(ctx, cfg, policy)
		if err != nil {
			return fmt.Errorf("open item backend: %w", err)
		}
		defer closeQuietly("item backend", closeGateway)

		server, err := web.NewServer(web.Config{
			HTTPAddr:   cfg.HTTPAddr,
			Provider:   provider,
			Items:      gateway,
			ItemPolicy: policy,
			Clients: webclient.Config{
				MaxClients: cfg.MaxClients,
				IdleTTL:    cfg.ClientIdleTTL,
				Cache:      querycache.Config{StaleAfter: cfg.QueryStaleAfter},
			},
			RateLimit: ratelimit.Config{
				Rate:  rate.Limit(cfg.LoginRate),
				Burst: cfg.LoginBurst,
			},
			RequestSchemePolicy: requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto},
			Logger:              log.Default(),
		})
		if err != nil {
			return fmt.Errorf("init web server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}

func openProvider(ctx context.Context, cfg Config) (identity.Provider, io.Closer, error) {
	if cfg.provider() == providerCognito {
		provider, err := cognito.New(ctx, cfg.Cognito)
		if err != nil {
			return nil, nil, err
		}
		return provider, nil, nil
	}
	provider, err := local.Open(ctx, cfg.Local)
	if err != nil {
		return nil, nil, err
	}
	return provider, provider, nil
}

func openGateway(ctx context.Context, cfg Config, policy items.Policy) (items.Gateway, io.Closer, error) {
	if cfg.backend() == backendAppSync {
		client, err := appsync.New(cfg.AppSync)
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	}
	store, err := itemsqlite.Open(ctx, cfg.ItemsDBPath)
	if err != nil {
		return nil, nil, err
	}
	return items.NewService(store, policy, id.NewID), store, nil
}

func closeQuietly(name string, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		log.Printf("close %s: %v", name, err)
	}
}
