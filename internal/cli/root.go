package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/routinely/internal/aggregator"
	"github.com/julianstephens/routinely/internal/cache"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/energy"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/providers"
	"github.com/julianstephens/routinely/internal/routine"
	"github.com/julianstephens/routinely/internal/scheduler"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/utils"
)

// Context is handed to every command's Run method.
type Context struct {
	Store      storage.Provider
	Service    *routine.Service
	Aggregator *aggregator.Aggregator
	Cache      cache.Cache
	Settings   models.Settings
	UserID     string
	Out        io.Writer

	base context.Context
	now  func() time.Time
}

// Config carries the root flags that shape the engine.
type Config struct {
	Seed            uint64
	ProviderTimeout time.Duration
	CacheTTL        time.Duration
	Redis           cache.RedisConfig
}

// New returns a Context that can run commands which only need the store.
func New(base context.Context, store storage.Provider, userID string) *Context {
	if base == nil {
		base = context.Background()
	}
	return &Context{
		Store:  store,
		UserID: userID,
		Out:    os.Stdout,
		base:   base,
		now:    time.Now,
	}
}

// Context returns the context commands should pass to blocking calls.
func (c *Context) Context() context.Context {
	if c.base == nil {
		return context.Background()
	}
	return c.base
}

// Wire builds the engine over a loaded store: settings, context cache,
// local collaborators and the routine service.
func (c *Context) Wire(cfg Config) error {
	ctx := c.Context()
	settings, err := c.Store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	c.Settings = settings
	if c.now == nil {
		c.now = time.Now
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = constants.ContextCacheTTL
	}
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rc := cache.NewRedisCache(cfg.Redis, ttl)
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return fmt.Errorf("redis cache unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		c.Cache = rc
	} else {
		c.Cache = cache.NewMemoryCache(ttl)
	}

	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = constants.ProviderTimeout
	}
	pref := energy.PreferenceFromSettings(settings)
	local := providers.NewLocal(c.Store,
		providers.WithPreference(pref),
		providers.WithHistoryDays(settings.HistoryDays),
		providers.WithTimezone(settings.Timezone),
		providers.WithClock(c.now),
	)
	c.Aggregator = aggregator.New(local.Providers(), c.Cache,
		aggregator.WithTimeout(timeout),
		aggregator.WithPreference(pref),
		aggregator.WithClock(c.now),
	)
	c.Service = routine.NewService(c.Store, c.Aggregator,
		routine.WithScheduler(scheduler.New(
			scheduler.WithRand(utils.NewRand(cfg.Seed)),
			scheduler.WithPreference(pref),
		)),
		routine.WithSuggester(providers.NewTemplateSuggester()),
		routine.WithEventSource(local),
		routine.WithHistoryDays(settings.HistoryDays),
		routine.WithTimezone(settings.Timezone),
		routine.WithClock(c.now),
	)
	logger.Debug("engine wired", "user", c.UserID, "cache", fmt.Sprintf("%T", c.Cache), "timezone", settings.Timezone)
	return nil
}

// Close releases the cache backend. The store is closed by its owner.
func (c *Context) Close() error {
	if c.Cache == nil {
		return nil
	}
	return c.Cache.Close()
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// day resolves a date argument ("today", "tomorrow", "yesterday" or
// YYYY-MM-DD) in the configured timezone.
func (c *Context) day(value string) (string, error) {
	tz := c.Settings.Timezone
	if tz == "" {
		tz = constants.DefaultTimezone
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "tomorrow", "yesterday":
		today, err := utils.NormalizeDate("today", tz)
		if err != nil {
			return "", err
		}
		if strings.EqualFold(strings.TrimSpace(value), "tomorrow") {
			return utils.AddDays(today, 1)
		}
		return utils.AddDays(today, -1)
	}
	return utils.NormalizeDate(value, tz)
}

func (c *Context) requireEngine() error {
	if c.Service == nil {
		return fmt.Errorf("storage not loaded, run '%s init' first", constants.AppName)
	}
	return nil
}
