package cli

import (
	"fmt"
	"os"

	"github.com/julianstephens/routinely/internal/backup"
)

type InitCmd struct {
	Force    bool `help:"Force reset by deleting the existing SQLite database before initialization."`
	NoBackup bool `help:"Skip the snapshot normally taken before a forced reset."`
}

func (c *InitCmd) Run(ctx *Context) error {
	if c.Force {
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if !c.NoBackup {
				info, err := backup.NewManager(dbPath, backup.WithClock(ctx.now)).Create(ctx.Context())
				if err != nil {
					return fmt.Errorf("failed to back up existing database: %w", err)
				}
				ctx.printf("Backed up existing database to: %s\n", info.Path)
			}
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			ctx.printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(ctx.Context()); err != nil {
		return err
	}
	ctx.printf("Initialized routinely storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
