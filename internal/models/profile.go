package models

// Routines holds a user's recurring task titles. Lists are ordered free text;
// duplicates are permitted but only the first occurrence matters for
// injection-time membership checks.
type Routines struct {
	Morning []string `json:"morning_routine"`
	Night   []string `json:"night_routine"`
}

// ForType returns the list backing the given routine type, or nil for
// RoutineNone.
func (r Routines) ForType(rt RoutineType) []string {
	switch rt {
	case RoutineMorning:
		return r.Morning
	case RoutineNight:
		return r.Night
	default:
		return nil
	}
}

// Profile is the per-user document: identity fields plus the routine
// registry. Entries live underneath it, keyed by date.
type Profile struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Routines    Routines `json:"routines"`
}
