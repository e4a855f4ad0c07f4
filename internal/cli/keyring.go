package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/daybook/internal/keyring"
	"github.com/julianstephens/daybook/internal/storage"
)

// KeyringCmd manages the PostgreSQL connection string in the OS keyring.
type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a connection string in the OS keyring."`
	Get    KeyringGetCmd    `cmd:"" help:"Show the stored connection string (password masked)."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
}

type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring"`
}

func (c *KeyringSetCmd) Run(ctx *Context) error {
	if !strings.HasPrefix(c.ConnectionString, "postgres://") &&
		!strings.HasPrefix(c.ConnectionString, "postgresql://") {
		return errors.New("connection string must be a PostgreSQL URL")
	}

	if storage.HasEmbeddedCredentials(c.ConnectionString) {
		// The keyring itself is encrypted, so embedded credentials are
		// acceptable here even though they are rejected on the command line.
		fmt.Println("Note: connection string contains embedded credentials; they will live only in the OS keyring.")
	}

	if err := keyring.SetConnectionString(c.ConnectionString); err != nil {
		return err
	}

	fmt.Println("✓ Connection string stored in OS keyring")
	return nil
}

type KeyringGetCmd struct{}

func (c *KeyringGetCmd) Run(ctx *Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string stored, use 'daybook keyring set' first")
		}
		return err
	}

	fmt.Println(maskPassword(connStr))
	return nil
}

type KeyringDeleteCmd struct{}

func (c *KeyringDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string stored")
		}
		return err
	}

	fmt.Println("✓ Connection string deleted from OS keyring")
	return nil
}

// maskPassword hides the password portion of a PostgreSQL URL for display.
func maskPassword(connStr string) string {
	idx := strings.Index(connStr, "://")
	if idx == -1 {
		return connStr
	}
	rest := connStr[idx+3:]
	atIdx := strings.LastIndex(rest, "@")
	if atIdx == -1 {
		return connStr
	}
	userInfo := rest[:atIdx]
	colonIdx := strings.Index(userInfo, ":")
	if colonIdx == -1 {
		return connStr
	}
	return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + rest[atIdx:]
}
