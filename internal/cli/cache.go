package cli

const memoryCacheNote = "in-memory cache lives for this invocation only; set --redis-addr to share it across runs"

type CacheStatsCmd struct {
	JSON bool `help:"Print the stats as JSON."`
}

func (cmd *CacheStatsCmd) Run(ctx *Context) error {
	if err := ctx.requireEngine(); err != nil {
		return err
	}
	stats, err := ctx.Aggregator.CacheStats(ctx.Context())
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(ctx.Out, stats)
	}
	ctx.printf("%s", RenderCacheStats(stats))
	return nil
}

type CacheClearCmd struct {
	All bool `help:"Clear cached contexts for every user, not just the current one."`
}

func (cmd *CacheClearCmd) Run(ctx *Context) error {
	if err := ctx.requireEngine(); err != nil {
		return err
	}
	var (
		n   int
		err error
	)
	if cmd.All {
		n, err = ctx.Aggregator.ClearAllCache(ctx.Context())
	} else {
		n, err = ctx.Aggregator.ClearUserCache(ctx.Context(), ctx.UserID)
	}
	if err != nil {
		return err
	}
	ctx.printf("Cleared %d cached contexts.\n", n)
	return nil
}

type CacheCmd struct {
	Stats CacheStatsCmd `cmd:"" help:"Show cached routine contexts. Without --redis-addr only this invocation's entries are visible." default:"1"`
	Clear CacheClearCmd `cmd:"" help:"Drop cached routine contexts. Without --redis-addr there is nothing left from earlier runs to clear."`
}
