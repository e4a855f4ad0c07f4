package models

// LeaderboardRow is a derived ranking row; it is computed per request and
// never persisted.
type LeaderboardRow struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`

	// WindowCompletedCount sums completed counts over entries inside the
	// requested window.
	WindowCompletedCount int `json:"window_completed_count"`

	// PerfectDayCount and the figures below are lifetime values, independent
	// of the window.
	PerfectDayCount  int     `json:"perfect_day_count"`
	TotalDaysTracked int     `json:"total_days_tracked"`
	AveragePerDay    float64 `json:"average_per_day"`
}
