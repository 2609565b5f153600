package intervention

import "time"

// History actions written by the lifecycle.
const (
	ActionAssigned         = "ASSIGNED"
	ActionPaused           = "PAUSED"
	ActionResumed          = "RESUMED"
	ActionResolved         = "RESOLVED"
	ActionCreatedRecurring = "CREATED_RECURRING"
)

// NextPlannedDate anchors the next occurrence on the previous planned date,
// not on the resolution time, so a late resolution never shifts the schedule.
func NextPlannedDate(plannedAt time.Time, intervalDays int) time.Time {
	return plannedAt.AddDate(0, 0, intervalDays)
}

// Recurs reports whether resolving an intervention spawns the next occurrence.
func Recurs(isRecurring bool, intervalDays int, plannedAt *time.Time) bool {
	return isRecurring && intervalDays > 0 && plannedAt != nil
}
