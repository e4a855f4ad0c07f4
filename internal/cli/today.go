package cli

import (
	"fmt"
)

type TodayCmd struct {
	Date string `help:"Materialize a specific date instead of today (YYYY-MM-DD)." default:"today"`
}

// Run ensures the day's entry is correct (carryover applied once, routines
// injected) and prints it. Safe to re-run; reloads never duplicate tasks.
func (c *TodayCmd) Run(ctx *Context) error {
	date, err := resolveDate(c.Date)
	if err != nil {
		return err
	}

	entry, err := ctx.Engine.EnsureToday(ctx.User, date)
	if err != nil {
		return err
	}

	fmt.Printf("Daybook for %s:\n\n", date)
	printEntry(entry)
	return nil
}

type PlanCmd struct {
	Date string `arg:"" help:"Date to plan (YYYY-MM-DD or 'tomorrow')."`
}

// Run initializes a future date with routine injection but no carryover.
func (c *PlanCmd) Run(ctx *Context) error {
	date, err := resolveDate(c.Date)
	if err != nil {
		return err
	}

	entry, err := ctx.Engine.PlanDate(ctx.User, date)
	if err != nil {
		return err
	}

	fmt.Printf("Planned %s:\n\n", date)
	printEntry(entry)
	return nil
}

type RollCmd struct{}

// Run moves today's incomplete ad hoc tasks into tomorrow immediately rather
// than waiting for the next day-boundary check.
func (c *RollCmd) Run(ctx *Context) error {
	rolled, err := ctx.Engine.ManualRollover(ctx.User, Today())
	if err != nil {
		return err
	}

	if rolled == 0 {
		fmt.Println("Nothing to roll over.")
		return nil
	}
	fmt.Printf("Rolled %d task(s) into tomorrow.\n", rolled)
	return nil
}
