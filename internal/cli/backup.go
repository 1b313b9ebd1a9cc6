package cli

import (
	"fmt"
	"path/filepath"

	"github.com/julianstephens/routinely/internal/backup"
	"github.com/julianstephens/routinely/internal/storage/postgres"
)

// backups returns the snapshot manager for the SQLite database.
func (c *Context) backups() (*backup.Manager, error) {
	path := c.Store.GetConfigPath()
	if path == postgres.ConfigPath {
		return nil, fmt.Errorf("backups are only supported for SQLite storage; use pg_dump for PostgreSQL")
	}
	return backup.NewManager(path, backup.WithClock(c.now)), nil
}

type BackupCreateCmd struct{}

func (cmd *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}
	info, err := mgr.Create(ctx.Context())
	if err != nil {
		return err
	}
	ctx.printf("Backup created: %s\n", info.Path)
	return nil
}

type BackupListCmd struct {
	JSON bool `help:"Print the backups as JSON."`
}

func (cmd *BackupListCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}
	all, err := mgr.List()
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(ctx.Out, all)
	}
	if len(all) == 0 {
		ctx.printf("No backups in %s\n", mgr.Dir())
		return nil
	}
	for _, b := range all {
		ctx.printf("%s  %s  %.1f KB\n", b.Taken.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.SizeBytes)/1024)
	}
	return nil
}

type BackupRestoreCmd struct {
	Path string `arg:"" help:"Backup file to restore, or 'latest'."`
}

func (cmd *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}
	path := cmd.Path
	if path == "latest" {
		all, err := mgr.List()
		if err != nil {
			return err
		}
		if len(all) == 0 {
			return fmt.Errorf("no backups in %s", mgr.Dir())
		}
		path = all[0].Path
	}

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close database before restore: %w", err)
	}
	safety, err := mgr.Restore(ctx.Context(), path)
	if safety != nil {
		ctx.printf("Saved current database to: %s\n", safety.Path)
	}
	if err != nil {
		return err
	}
	ctx.printf("Restored database from: %s\n", path)
	return nil
}

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Snapshot the SQLite database."`
	List    BackupListCmd    `cmd:"" help:"List snapshots, newest first." default:"1"`
	Restore BackupRestoreCmd `cmd:"" help:"Replace the database with a snapshot."`
}
