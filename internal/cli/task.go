package cli

import (
	"errors"
	"fmt"

	"github.com/julianstephens/daybook/internal/storage"
)

type TaskAddCmd struct {
	Title string `arg:"" help:"Task title."`
	Date  string `help:"Date to add the task to." default:"today"`
}

func (c *TaskAddCmd) Run(ctx *Context) error {
	date, err := resolveDate(c.Date)
	if err != nil {
		return err
	}

	task, err := ctx.Engine.AddTask(ctx.User, date, c.Title)
	if err != nil {
		return err
	}

	fmt.Printf("Added task %s: %s\n", shortID(task.ID), task.Title)
	return nil
}

type TaskDoneCmd struct {
	ID   string `arg:"" help:"Task id (or unique prefix)."`
	Date string `help:"Date the task lives on." default:"today"`
}

func (c *TaskDoneCmd) Run(ctx *Context) error {
	date, err := resolveDate(c.Date)
	if err != nil {
		return err
	}

	entry, err := ctx.Store.GetEntry(ctx.User, date)
	if err != nil {
		return err
	}
	task, err := findTask(entry, c.ID)
	if err != nil {
		return err
	}

	updated, err := ctx.Engine.ToggleTask(ctx.User, date, task.ID)
	if err != nil {
		return err
	}

	if updated.Completed {
		fmt.Printf("Completed: %s\n", updated.Title)
	} else {
		fmt.Printf("Reopened: %s\n", updated.Title)
	}
	return nil
}

type TaskDeleteCmd struct {
	ID   string `arg:"" help:"Task id (or unique prefix)."`
	Date string `help:"Date the task lives on." default:"today"`
}

func (c *TaskDeleteCmd) Run(ctx *Context) error {
	date, err := resolveDate(c.Date)
	if err != nil {
		return err
	}

	entry, err := ctx.Store.GetEntry(ctx.User, date)
	if err != nil {
		return err
	}
	task, err := findTask(entry, c.ID)
	if err != nil {
		return err
	}

	if err := ctx.Engine.DeleteTask(ctx.User, date, task.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted: %s\n", task.Title)
	return nil
}

type TaskListCmd struct {
	Date string `help:"Date to list." default:"today"`
}

func (c *TaskListCmd) Run(ctx *Context) error {
	date, err := resolveDate(c.Date)
	if err != nil {
		return err
	}

	entry, err := ctx.Store.GetEntry(ctx.User, date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Printf("No entry for %s.\n", date)
			return nil
		}
		return err
	}

	fmt.Printf("Daybook for %s:\n\n", date)
	printEntry(entry)
	return nil
}
