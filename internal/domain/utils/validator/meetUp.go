package validator

import (
	"time"
	"unicode/utf8"
)

func MeetUpTitle(title string) bool {
	return utf8.RuneCountInString(title) >= 3 && utf8.RuneCountInString(title) <= 100
}

func MeetUpLocation(location string) bool {
	return utf8.RuneCountInString(location) >= 3 && utf8.RuneCountInString(location) <= 200
}

// MeetUpScheduledTime rejects meet-ups that would already have started.
func MeetUpScheduledTime(scheduled, now time.Time) bool {
	return scheduled.After(now)
}
