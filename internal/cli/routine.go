package cli

import (
	"errors"
	"fmt"

	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/storage"
)

type RoutineCmd struct {
	Add    RoutineAddCmd    `cmd:"" help:"Add a routine title."`
	Remove RoutineRemoveCmd `cmd:"" help:"Remove a routine title."`
	List   RoutineListCmd   `cmd:"" help:"List routine titles." default:"1"`
}

func loadRoutines(ctx *Context) (models.Routines, error) {
	routines, err := ctx.Store.GetRoutines(ctx.User)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Routines{}, nil
		}
		return models.Routines{}, err
	}
	return routines, nil
}

type RoutineAddCmd struct {
	Title string `arg:"" help:"Routine task title."`
	When  string `help:"Which list: morning or night." enum:"morning,night" default:"morning"`
}

func (c *RoutineAddCmd) Run(ctx *Context) error {
	if c.Title == "" {
		return fmt.Errorf("routine title cannot be empty")
	}

	routines, err := loadRoutines(ctx)
	if err != nil {
		return err
	}

	switch models.RoutineType(c.When) {
	case models.RoutineMorning:
		routines.Morning = append(routines.Morning, c.Title)
	case models.RoutineNight:
		routines.Night = append(routines.Night, c.Title)
	}

	if err := ctx.Store.SaveRoutines(ctx.User, routines); err != nil {
		return err
	}

	fmt.Printf("Added %q to the %s routine.\n", c.Title, c.When)
	return nil
}

type RoutineRemoveCmd struct {
	Title string `arg:"" help:"Routine task title to remove."`
	When  string `help:"Which list: morning or night." enum:"morning,night" default:"morning"`
}

// Run removes the first matching title. Tasks already injected from the
// title stay on their entries; they are independent copies, not references.
func (c *RoutineRemoveCmd) Run(ctx *Context) error {
	routines, err := loadRoutines(ctx)
	if err != nil {
		return err
	}

	removeFirst := func(list []string) ([]string, bool) {
		for i, title := range list {
			if title == c.Title {
				return append(list[:i], list[i+1:]...), true
			}
		}
		return list, false
	}

	var removed bool
	switch models.RoutineType(c.When) {
	case models.RoutineMorning:
		routines.Morning, removed = removeFirst(routines.Morning)
	case models.RoutineNight:
		routines.Night, removed = removeFirst(routines.Night)
	}

	if !removed {
		return fmt.Errorf("no %s routine titled %q", c.When, c.Title)
	}

	if err := ctx.Store.SaveRoutines(ctx.User, routines); err != nil {
		return err
	}

	fmt.Printf("Removed %q from the %s routine.\n", c.Title, c.When)
	return nil
}

type RoutineListCmd struct{}

func (c *RoutineListCmd) Run(ctx *Context) error {
	routines, err := loadRoutines(ctx)
	if err != nil {
		return err
	}

	if len(routines.Morning) == 0 && len(routines.Night) == 0 {
		fmt.Println("No routines configured.")
		return nil
	}

	if len(routines.Morning) > 0 {
		fmt.Println("morning:")
		for _, title := range routines.Morning {
			fmt.Printf("  %s\n", title)
		}
	}
	if len(routines.Night) > 0 {
		fmt.Println("night:")
		for _, title := range routines.Night {
			fmt.Printf("  %s\n", title)
		}
	}
	return nil
}
