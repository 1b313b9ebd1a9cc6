package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/routinely/internal/cache"
	"github.com/julianstephens/routinely/internal/utils"
)

type DoctorCmd struct{}

type check struct {
	name    string
	run     func(*Context) error
	warning bool
}

var doctorChecks = []check{
	{name: "Database reachable", run: checkDBReachable},
	{name: "Schema version", run: checkSchemaVersion},
	{name: "Settings", run: checkSettings},
	{name: "Context cache", run: checkCache},
	{name: "Profile", run: checkProfile, warning: true},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	hasError := false
	dbReachable := true
	for _, c := range doctorChecks {
		if !dbReachable && c.name != "Clock/timezone" {
			ctx.printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.printf("✓ %s: OK\n", c.name)
		case c.warning:
			ctx.printf("⚠ %s: WARNING\n", c.name)
			ctx.printf("   %v\n", err)
		default:
			ctx.printf("❌ %s: FAIL\n", c.name)
			ctx.printf("   Error: %v\n", err)
			hasError = true
			if c.name == "Database reachable" {
				dbReachable = false
			}
		}
	}

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *Context) error {
	if err := ctx.Store.Load(ctx.Context()); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *Context) error {
	current, latest, err := ctx.Store.SchemaVersion(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkSettings(ctx *Context) error {
	settings, err := ctx.Store.GetSettings(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	for name, value := range map[string]string{
		"morning window start": settings.MorningWindowStart,
		"morning window end":   settings.MorningWindowEnd,
		"evening window start": settings.EveningWindowStart,
		"evening window end":   settings.EveningWindowEnd,
	} {
		if !utils.ValidateTimeFormat(value) {
			return fmt.Errorf("%s %q is not HH:MM", name, value)
		}
	}
	if !utils.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("unknown timezone %q", settings.Timezone)
	}
	return nil
}

func checkCache(ctx *Context) error {
	if ctx.Cache == nil {
		return fmt.Errorf("cache not configured")
	}
	if rc, ok := ctx.Cache.(*cache.RedisCache); ok {
		if err := rc.Ping(ctx.Context()); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}
	}
	_, err := ctx.Cache.Stats(ctx.Context())
	return err
}

func checkProfile(ctx *Context) error {
	if ctx.Service == nil {
		return fmt.Errorf("engine not wired")
	}
	p, stored, err := ctx.Service.Profile(ctx.Context(), ctx.UserID)
	if err != nil {
		return err
	}
	if !stored {
		return fmt.Errorf("no profile for %q, generation will use defaults - run 'routinely profile set'", ctx.UserID)
	}
	if missing := p.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("profile incomplete: %v", missing)
	}
	return nil
}

func checkClockTimezone(ctx *Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, offset := now.Zone(); offset == 0 && now.Location() == time.UTC {
		ctx.printf("   Note: timezone is UTC\n")
	}
	return nil
}
