// Package leaderboard builds cross-user rankings from per-date entries. It
// is a full scan of every user's ledger on each request; fine at the scale
// this runs at, and the first thing to replace with incrementally maintained
// counters if the user population grows.
package leaderboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/daybook/internal/constants"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/storage"
)

// Window selects the date range completed-task counts are summed over.
type Window string

const (
	WindowToday Window = "today"
	WindowWeek  Window = "week"
)

func (w Window) IsValid() bool {
	switch w {
	case WindowToday, WindowWeek:
		return true
	default:
		return false
	}
}

func ParseWindow(input string) (Window, error) {
	w := Window(strings.TrimSpace(strings.ToLower(input)))
	if !w.IsValid() {
		return "", fmt.Errorf("invalid leaderboard window: %q", input)
	}
	return w, nil
}

type Service struct {
	store storage.Provider
}

func New(store storage.Provider) *Service {
	return &Service{store: store}
}

// Build scans every user's entries and returns ranked rows: descending by
// completed count inside the window, ties broken by descending perfect-day
// count. Perfect days, days tracked, and the per-day average are lifetime
// figures regardless of window.
func (s *Service) Build(window Window, today string) ([]models.LeaderboardRow, error) {
	start, end, err := window.bounds(today)
	if err != nil {
		return nil, err
	}

	profiles, err := s.store.GetAllProfiles()
	if err != nil {
		return nil, err
	}

	rows := make([]models.LeaderboardRow, 0, len(profiles))
	for _, profile := range profiles {
		entries, err := s.store.GetAllEntries(profile.UserID)
		if err != nil {
			return nil, err
		}

		row := models.LeaderboardRow{
			UserID:      profile.UserID,
			DisplayName: profile.DisplayName,
		}
		if row.DisplayName == "" {
			row.DisplayName = profile.UserID
		}

		lifetimeCompleted := 0
		for _, entry := range entries {
			if entry.Date >= start && entry.Date <= end {
				row.WindowCompletedCount += entry.CompletedCount
			}
			if entry.CompletedCount == constants.PerfectDayBaseline {
				row.PerfectDayCount++
			}
			lifetimeCompleted += entry.CompletedCount
			row.TotalDaysTracked++
		}
		if row.TotalDaysTracked > 0 {
			row.AveragePerDay = float64(lifetimeCompleted) / float64(row.TotalDaysTracked)
		}

		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].WindowCompletedCount != rows[j].WindowCompletedCount {
			return rows[i].WindowCompletedCount > rows[j].WindowCompletedCount
		}
		return rows[i].PerfectDayCount > rows[j].PerfectDayCount
	})

	return rows, nil
}

// bounds returns the inclusive date range for the window ending at today.
func (w Window) bounds(today string) (start, end string, err error) {
	day, err := time.Parse(constants.DateFormat, today)
	if err != nil {
		return "", "", fmt.Errorf("invalid date %q: %w", today, err)
	}

	switch w {
	case WindowToday:
		return today, today, nil
	case WindowWeek:
		start := day.AddDate(0, 0, -(constants.LeaderboardWindowDays - 1))
		return start.Format(constants.DateFormat), today, nil
	default:
		return "", "", fmt.Errorf("invalid leaderboard window: %q", w)
	}
}
