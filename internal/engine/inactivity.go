package engine

import (
	"math"
	"time"
)

// DefaultInactivityDays is the default inactivity threshold.
const DefaultInactivityDays = 120

// IsInactive reports whether an account has been idle for more than
// threshold days. Unknown idleness (nil) is never inactive.
func IsInactive(daysInactive *int, threshold int) bool {
	if daysInactive == nil {
		return false
	}
	return *daysInactive > threshold
}

// DaysBetween returns the whole days from lastLogin to extraction, rounded
// down, or nil when either date is missing.
func DaysBetween(lastLogin, extraction *time.Time) *int {
	if lastLogin == nil || extraction == nil || lastLogin.IsZero() || extraction.IsZero() {
		return nil
	}
	days := int(math.Floor(extraction.Sub(*lastLogin).Hours() / 24))
	return &days
}
