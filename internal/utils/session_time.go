package utils

import (
	"fmt"
	"time"
)

// JoinGracePeriod is how early a participant may join before the booked
// start time.
const JoinGracePeriod = 5 * time.Minute

// ValidateSessionWindow reports whether "now" falls inside the joinable
// window of a booking, with a human-readable reason when it does not.
func ValidateSessionWindow(start, end, now time.Time) (bool, string) {
	if now.Before(start.Add(-JoinGracePeriod)) {
		return false, fmt.Sprintf("session starts at %s, you can join up to %d minutes early",
			start.Format(time.RFC3339), int(JoinGracePeriod.Minutes()))
	}
	if now.After(end) {
		return false, "this session has already ended"
	}
	return true, ""
}
