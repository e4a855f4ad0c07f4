package cli

import (
	"errors"
	"fmt"

	"github.com/julianstephens/daybook/internal/leaderboard"
	"github.com/julianstephens/daybook/internal/storage"
)

type BoardCmd struct {
	Window string `help:"Ranking window: today or week." enum:"today,week" default:"today"`
}

func (c *BoardCmd) Run(ctx *Context) error {
	window, err := leaderboard.ParseWindow(c.Window)
	if err != nil {
		return err
	}

	rows, err := ctx.Board.Build(window, Today())
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Println("No users tracked yet.")
		return nil
	}

	fmt.Printf("Leaderboard (%s):\n\n", window)
	fmt.Printf("%4s  %-20s %10s %8s %6s %8s\n", "rank", "user", "completed", "perfect", "days", "avg/day")
	for i, row := range rows {
		marker := "  "
		if row.UserID == ctx.User {
			marker = "* "
		}
		fmt.Printf("%s%2d  %-20s %10d %8d %6d %8.1f\n",
			marker, i+1, row.DisplayName, row.WindowCompletedCount,
			row.PerfectDayCount, row.TotalDaysTracked, row.AveragePerDay)
	}
	return nil
}

type UserCmd struct {
	Name UserNameCmd `cmd:"" help:"Set the display name shown on the leaderboard."`
}

type UserNameCmd struct {
	DisplayName string `arg:"" help:"Display name."`
}

func (c *UserNameCmd) Run(ctx *Context) error {
	profile, err := ctx.Store.GetProfile(ctx.User)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		// First write materializes the profile.
		profile.UserID = ctx.User
	}
	profile.DisplayName = c.DisplayName

	if err := ctx.Store.SaveProfile(profile); err != nil {
		return err
	}

	fmt.Printf("Display name set to %q.\n", c.DisplayName)
	return nil
}
