package entity

import "time"

const DefaultHoursBefore = 24

// ReminderPreferences is owned 1:1 by a user.
type ReminderPreferences struct {
	UserID       string `gorm:"primaryKey;type:uuid"`
	UpdatedAt    time.Time
	HoursBefore  int  `gorm:"not null"`
	EmailEnabled bool `gorm:"not null"`
	SMSEnabled   bool `gorm:"column:sms_enabled;not null"`
}

// DefaultPreferences returns the preferences used for users that never saved any.
func DefaultPreferences(userID string, hoursBefore int) ReminderPreferences {
	if hoursBefore < 0 {
		hoursBefore = DefaultHoursBefore
	}
	return ReminderPreferences{
		UserID:       userID,
		HoursBefore:  hoursBefore,
		EmailEnabled: true,
		SMSEnabled:   true,
	}
}

// Lead is the offset before the meet-up at which the reminder becomes due.
func (p ReminderPreferences) Lead() time.Duration {
	return time.Duration(p.HoursBefore) * time.Hour
}
