package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianstephens/daybook/internal/backup"
	"github.com/julianstephens/daybook/internal/storage"
)

func backupManager(ctx *Context) (*backup.Manager, error) {
	if _, ok := ctx.Store.(*storage.PostgresStore); ok {
		return nil, fmt.Errorf("backups are managed by the database server for PostgreSQL stores; use pg_dump")
	}
	return backup.NewManager(ctx.Store.GetConfigPath()), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}

	path, err := mgr.CreateBackup()
	if err != nil {
		return err
	}

	fmt.Printf("Created backup: %s\n", filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		return err
	}

	if len(backups) == 0 {
		fmt.Println("No backups found.")
		return nil
	}

	fmt.Printf("Backups in %s:\n", mgr.GetBackupDir())
	for _, b := range backups {
		fmt.Printf("  %s  %8d bytes  %s\n",
			b.Timestamp.Format("2006-01-02 15:04"), b.Size, filepath.Base(b.Path))
	}
	return nil
}

type BackupRestoreCmd struct {
	Name string `arg:"" help:"Backup file name (as shown by 'backup list')."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}

	// Restore takes a bare name; refuse path traversal.
	if strings.ContainsAny(c.Name, "/\\") {
		return fmt.Errorf("backup name must not contain path separators")
	}

	if err := mgr.RestoreBackup(filepath.Join(mgr.GetBackupDir(), c.Name)); err != nil {
		return err
	}

	fmt.Printf("Restored from %s\n", c.Name)
	return nil
}
