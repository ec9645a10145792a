// Package wire provides dependency injection for resolvd. It builds the
// services, adapters and stores a configuration asks for.
package wire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/example/resolvd/internal/adapters/auth"
	"github.com/example/resolvd/internal/adapters/casesink"
	cliadapter "github.com/example/resolvd/internal/adapters/cli"
	"github.com/example/resolvd/internal/adapters/httpapi"
	"github.com/example/resolvd/internal/adapters/orders"
	"github.com/example/resolvd/internal/adapters/redislock"
	"github.com/example/resolvd/internal/adapters/sqlite"
	"github.com/example/resolvd/internal/app"
	"github.com/example/resolvd/internal/config"
	"github.com/example/resolvd/internal/core/policy"
	"github.com/example/resolvd/internal/db"
	"github.com/example/resolvd/internal/ports/primary"
	"github.com/example/resolvd/internal/ports/secondary"
	"github.com/example/resolvd/internal/telemetry"
)

// Container holds one wired instance of the application.
type Container struct {
	Config      *config.Config
	Policy      *policy.Policy
	DB          *sql.DB
	Metrics     *telemetry.Metrics
	Resolution  primary.ResolutionService
	Cases       primary.CaseService
	Verifier    secondary.IdentityVerifier
	RateLimiter *httpapi.RateLimiter

	redis *redis.Client
}

// Build wires a Container from cfg. The caller owns it and must Close it.
func Build(cfg *config.Config) (*Container, error) {
	pol, err := cfg.CompilePolicy()
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	c := &Container{
		Config:   cfg,
		Policy:   pol,
		DB:       database,
		Metrics:  telemetry.NewMetrics(),
		Verifier: auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
	}

	// Create repository adapters (secondary ports) with the injected DB
	sessionRepo := sqlite.NewSessionRepository(database)
	caseRepo := sqlite.NewCaseRepository(database)
	commentRepo := sqlite.NewCommentRepository(database)
	timelineRepo := sqlite.NewTimelineRepository(database)
	timelineWriter := sqlite.NewTimelineWriterAdapter(timelineRepo)

	c.Cases = app.NewCaseService(pol, caseRepo, commentRepo, timelineRepo, timelineWriter)

	lookup, err := newOrderLookup(cfg.Orders)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	sink := newCaseCreator(cfg.Cases, c.Cases)
	locker, err := c.newSessionLocker(cfg.SessionLock)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	executor := app.NewEffectExecutor(sessionRepo, sink, c.Metrics)
	c.Resolution = app.NewResolutionService(pol, sessionRepo, lookup, locker, executor, c.Metrics)

	if cfg.RateLimit.Enabled {
		c.RateLimiter = httpapi.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	return c, nil
}

func newOrderLookup(cfg config.OrdersConfig) (secondary.OrderLookup, error) {
	switch cfg.Source {
	case config.OrdersHTTP:
		return orders.NewHTTPLookup(cfg.URL, cfg.APIKey, cfg.Timeout), nil
	default:
		lookup, err := orders.LoadFixtureLookup(cfg.FixturesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load order fixtures: %w", err)
		}
		return lookup, nil
	}
}

func newCaseCreator(cfg config.CasesConfig, local primary.CaseService) secondary.CaseCreator {
	if cfg.Sink == config.CasesRemote {
		return casesink.NewRemote(cfg.URL, cfg.Token, cfg.Timeout)
	}
	return casesink.NewLocal(local)
}

func (c *Container) newSessionLocker(cfg config.SessionLockConfig) (secondary.SessionLocker, error) {
	if cfg.Backend != config.LockRedis {
		return app.NewKeyedLocker(), nil
	}
	c.redis = redislock.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := c.redis.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return redislock.New(c.redis, cfg.TTL), nil
}

// HTTPServer returns the HTTP surface over the container's services.
func (c *Container) HTTPServer() *httpapi.Server {
	return httpapi.NewServer(c.Resolution, c.Cases, c.Verifier, c.Metrics, httpapi.Options{
		ServiceName: c.Config.Telemetry.ServiceName,
		RateLimiter: c.RateLimiter,
	})
}

// CaseAdapter returns a new CaseAdapter writing to stdout.
func (c *Container) CaseAdapter() *cliadapter.CaseAdapter {
	return c.CaseAdapterWithOutput(os.Stdout)
}

// CaseAdapterWithOutput returns a new CaseAdapter writing to out.
func (c *Container) CaseAdapterWithOutput(out io.Writer) *cliadapter.CaseAdapter {
	return cliadapter.NewCaseAdapter(c.Cases, out)
}

// Close releases the database and redis connections.
func (c *Container) Close() error {
	var errs []error
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}

var (
	configPath string
	container  *Container
	buildErr   error
	once       sync.Once
)

// SetConfigPath selects the config file the shared container loads.
// It must be called before the first call to Shared.
func SetConfigPath(path string) {
	configPath = path
}

// Shared returns the process-wide container, building it on first use.
func Shared() (*Container, error) {
	once.Do(func() {
		path := configPath
		if path == "" {
			if path, buildErr = config.DefaultPath(); buildErr != nil {
				return
			}
		}
		var cfg *config.Config
		if cfg, buildErr = config.LoadConfig(path); buildErr != nil {
			return
		}
		container, buildErr = Build(cfg)
	})
	return container, buildErr
}
