package models

import (
	"fmt"
	"strings"
)

// RoutineType tags where a task came from: "none" for ad hoc entries, or the
// routine list ("morning"/"night") it was injected from.
type RoutineType string

const (
	RoutineNone    RoutineType = "none"
	RoutineMorning RoutineType = "morning"
	RoutineNight   RoutineType = "night"
)

func (r RoutineType) IsValid() bool {
	switch r {
	case RoutineNone, RoutineMorning, RoutineNight:
		return true
	default:
		return false
	}
}

func ParseRoutineType(input string) (RoutineType, error) {
	r := RoutineType(strings.TrimSpace(strings.ToLower(input)))
	if !r.IsValid() {
		return "", fmt.Errorf("invalid routine type: %q", input)
	}
	return r, nil
}

// Task is a single to-do item within a daily entry. Ids are uuid strings
// assigned at creation; a task carried to the next day is a new record with a
// fresh id, never a move.
type Task struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Completed   bool        `json:"completed"`
	RoutineType RoutineType `json:"routine_type"`
}
