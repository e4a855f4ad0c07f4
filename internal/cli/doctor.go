package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/daybook/internal/constants"
	"github.com/julianstephens/daybook/internal/validation"
)

type DoctorCmd struct{}

func (c *DoctorCmd) Run(ctx *Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	storeReachable := false

	// Check 1: store reachable
	if err := checkStoreReachable(ctx); err != nil {
		fmt.Printf("❌ Store reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Store reachable: OK\n")
		storeReachable = true
	}

	// Check 2: entry consistency (only if the store is reachable)
	if storeReachable {
		if err := checkEntryConsistency(ctx); err != nil {
			fmt.Printf("❌ Entry consistency: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Entry consistency: OK\n")
		}
	} else {
		fmt.Printf("⊘ Entry consistency: SKIPPED (store not reachable)\n")
	}

	// Check 3: backups present (warning only, file stores only)
	if err := checkBackupsPresent(ctx); err != nil {
		fmt.Printf("⚠ Backups present: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Backups present: OK\n")
	}

	// Check 4: clock/date sanity
	if err := checkClock(); err != nil {
		fmt.Printf("❌ Clock/date: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Clock/date: OK\n")
	}

	// Check 5: concurrent writers (warning only). Rollover is serialized per
	// user inside one process; two processes sharing a store can still race
	// a day boundary and double-apply a carryover.
	if others, err := findOtherInstances(); err != nil {
		fmt.Printf("⚠ Concurrent writers: WARNING\n")
		fmt.Printf("   Could not scan processes: %v\n", err)
	} else if len(others) > 0 {
		fmt.Printf("⚠ Concurrent writers: WARNING\n")
		fmt.Printf("   %d other %s process(es) running (pids %v); concurrent rollovers can duplicate carried tasks\n",
			len(others), constants.AppName, others)
	} else {
		fmt.Printf("✓ Concurrent writers: OK\n")
	}

	fmt.Println()
	if hasError {
		return fmt.Errorf("diagnostics found problems")
	}
	fmt.Println("All checks passed.")
	return nil
}

func checkStoreReachable(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	_, err := ctx.Store.GetAllProfiles()
	return err
}

func checkEntryConsistency(ctx *Context) error {
	profiles, err := ctx.Store.GetAllProfiles()
	if err != nil {
		return err
	}

	validator := validation.New()
	var problems []string
	for _, profile := range profiles {
		entries, err := ctx.Store.GetAllEntries(profile.UserID)
		if err != nil {
			return err
		}
		result := validator.ValidateEntries(profile.UserID, entries)
		for _, p := range result.Problems {
			problems = append(problems, p.Description)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s):\n   %s", len(problems), strings.Join(problems, "\n   "))
	}
	return nil
}

func checkBackupsPresent(ctx *Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		// Postgres: nothing to check locally.
		return nil
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found, consider running 'daybook backup create'")
	}

	if time.Since(backups[0].Timestamp) > 7*24*time.Hour {
		return fmt.Errorf("most recent backup is older than a week")
	}
	return nil
}

func checkClock() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system clock reports implausible year %d", now.Year())
	}
	if _, err := time.Parse(constants.DateFormat, now.Format(constants.DateFormat)); err != nil {
		return fmt.Errorf("cannot round-trip the current date: %w", err)
	}
	return nil
}

// findOtherInstances returns the pids of other running daybook processes.
func findOtherInstances() ([]int, error) {
	procs, err := ps.Processes()
	if err != nil {
		return nil, err
	}

	var others []int
	self := os.Getpid()
	for _, p := range procs {
		if p.Pid() == self {
			continue
		}
		name := p.Executable()
		if name == constants.AppName || strings.TrimSuffix(name, ".exe") == constants.AppName {
			others = append(others, p.Pid())
		}
	}
	return others, nil
}
