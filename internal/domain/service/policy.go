package service

import (
	"time"

	"github.com/storkforge/petconnect/internal/domain/entity"
)

// DueAt returns the start of the reminder window for a participant.
func DueAt(meetUp entity.MeetUp, prefs entity.ReminderPreferences) time.Time {
	return meetUp.ScheduledTime.Add(-prefs.Lead())
}

// IsDue reports whether the reminder for this pair should be dispatched at now.
// The window boundary is inclusive. The function has no side effects.
func IsDue(now time.Time, meetUp entity.MeetUp, record entity.ReminderRecord, prefs entity.ReminderPreferences) bool {
	if meetUp.IsCanceled() || meetUp.HasStarted(now) {
		return false
	}
	if record.State != entity.ReminderPending {
		return false
	}
	return !now.Before(DueAt(meetUp, prefs))
}

// ShouldExpire reports whether a pending record can never be delivered anymore.
func ShouldExpire(now time.Time, meetUp entity.MeetUp, record entity.ReminderRecord) bool {
	if record.State != entity.ReminderPending {
		return false
	}
	return meetUp.IsCanceled() || meetUp.HasStarted(now)
}
