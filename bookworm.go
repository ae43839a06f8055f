// Package bookworm wires the storefront client together: local state, cart,
// session, API client and checkout, behind one App with a config loaded
// from the environment.
package bookworm

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Eakan-Git/Bookworm/api"
	"github.com/Eakan-Git/Bookworm/cart"
	"github.com/Eakan-Git/Bookworm/checkout"
	pkgconfig "github.com/Eakan-Git/Bookworm/pkg/config"
	"github.com/Eakan-Git/Bookworm/pkg/httpclient"
	"github.com/Eakan-Git/Bookworm/pkg/localstate"
	"github.com/Eakan-Git/Bookworm/pkg/logger"
	"github.com/Eakan-Git/Bookworm/pkg/tracing"
	"github.com/Eakan-Git/Bookworm/prefs"
	"github.com/Eakan-Git/Bookworm/session"
)

// Config holds all storefront configuration.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Backend API
	APIBaseURL     string        `env:"BOOKWORM_API_URL" envDefault:"http://localhost:8000"`
	RequestTimeout time.Duration `env:"BOOKWORM_REQUEST_TIMEOUT" envDefault:"5s"`

	// CircuitBreakerEnabled guards the backend with a breaker so a flapping
	// API fails fast instead of eating the full timeout on every call.
	CircuitBreakerEnabled bool `env:"BOOKWORM_CIRCUIT_BREAKER" envDefault:"false"`

	// Local state. Files by default; Redis when an address is set, for
	// shared/kiosk deployments.
	StateDir  string `env:"BOOKWORM_STATE_DIR" envDefault:".bookworm"`
	RedisAddr string `env:"BOOKWORM_REDIS_ADDR" envDefault:""`
	RedisPass string `env:"BOOKWORM_REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"BOOKWORM_REDIS_DB" envDefault:"0"`

	// Tracing
	TracingEnabled bool   `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %q", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request timeout: %s", c.RequestTimeout)
	}
	return nil
}

// authAPIProxy breaks the construction cycle between the session manager
// (which calls the API) and the API client (which reads the session's
// token). It is bound to the real client at the end of wiring.
type authAPIProxy struct {
	client *api.Client
}

func (p *authAPIProxy) Login(ctx context.Context, email, password string) (string, error) {
	return p.client.Login(ctx, email, password)
}

func (p *authAPIProxy) Logout(ctx context.Context) error {
	return p.client.Logout(ctx)
}

// App is the assembled storefront client.
type App struct {
	Cart     *cart.Service
	Session  *session.Manager
	API      *api.Client
	Checkout *checkout.Flow
	Prefs    *prefs.Store

	cfg    *Config
	logger *slog.Logger
	rdb    *redis.Client

	onSessionExpired func()
	shutdownTracing  func(context.Context) error
}

// Option configures an App.
type Option func(*App)

// WithSessionExpiredHandler registers the callback fired when the backend
// stops accepting the refresh credential. The UI shows its login prompt
// from here.
func WithSessionExpiredHandler(fn func()) Option {
	return func(a *App) {
		a.onSessionExpired = fn
	}
}

// NewApp creates an application instance, initializing all dependencies.
func NewApp(cfg *Config, log *slog.Logger, opts ...Option) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: log}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.TracingEnabled {
		tcfg := tracing.DefaultConfig("bookworm-storefront")
		tcfg.Environment = cfg.Environment
		tcfg.OTLPEndpoint = cfg.OTLPEndpoint
		tcfg.Enabled = true

		shutdown, err := tracing.InitTracer(ctx, tcfg)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		a.shutdownTracing = shutdown
	}

	// Local state store.
	var state localstate.Store
	if cfg.RedisAddr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		log.Info("using Redis local state", slog.String("addr", cfg.RedisAddr))
		state = localstate.NewRedisStore(a.rdb)
	} else {
		fs, err := localstate.NewFileStore(cfg.StateDir)
		if err != nil {
			return nil, fmt.Errorf("open state directory: %w", err)
		}
		state = fs
	}

	// Build the dependency graph.
	cartSvc, err := cart.NewService(ctx, cart.NewStateRepository(state, log), log)
	if err != nil {
		return nil, fmt.Errorf("restore cart state: %w", err)
	}

	proxy := &authAPIProxy{}
	sessionMgr := session.NewManager(proxy, log)

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.RequestTimeout
	base := httpclient.New(httpCfg)
	var doer api.Doer = base
	if cfg.CircuitBreakerEnabled {
		doer = httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("bookworm-api"), log)
	}
	apiClient := api.New(cfg.APIBaseURL, doer, sessionMgr, log,
		api.WithSessionExpiredHook(func() {
			cartSvc.SetActiveUser(context.Background(), cart.GuestUserID)
			if a.onSessionExpired != nil {
				a.onSessionExpired()
			}
		}),
	)
	proxy.client = apiClient

	a.Cart = cartSvc
	a.Session = sessionMgr
	a.API = apiClient
	a.Checkout = checkout.New(cartSvc, apiClient, log)
	a.Prefs = prefs.NewStore(state, log)

	return a, nil
}

// Login authenticates against the backend and merges the guest cart into
// the user's cart.
func (a *App) Login(ctx context.Context, email, password string) error {
	ctx = a.requestContext(ctx)

	if err := a.Session.Login(ctx, email, password); err != nil {
		return err
	}
	if sess, ok := a.Session.Current(); ok {
		a.Cart.MigrateGuestCart(ctx, sess.UserID)
	}
	return nil
}

// Logout ends the session and switches back to the guest cart.
func (a *App) Logout(ctx context.Context) {
	ctx = a.requestContext(ctx)

	a.Session.Logout(ctx)
	a.Cart.SetActiveUser(ctx, cart.GuestUserID)
}

// requestContext tags the context with a correlation id for log grouping.
func (a *App) requestContext(ctx context.Context) context.Context {
	return logger.WithCorrelationID(ctx, uuid.NewString())
}

// Close releases held resources.
func (a *App) Close(ctx context.Context) error {
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
	}
	return nil
}
