package cli

import (
	"fmt"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Init(); err != nil {
		return err
	}

	fmt.Printf("Initialized daybook storage at %s\n", ctx.Store.GetConfigPath())
	return nil
}

type MigrateCmd struct{}

// migrator is implemented by the SQL-backed stores.
type migrator interface {
	Migrate() error
}

func (c *MigrateCmd) Run(ctx *Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		fmt.Println("The JSON store has no schema migrations; nothing to do.")
		return nil
	}

	if err := m.Migrate(); err != nil {
		return err
	}

	fmt.Println("Migrations complete.")
	return nil
}
