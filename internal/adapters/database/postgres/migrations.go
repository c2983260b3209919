package postgres

import "github.com/storkforge/petconnect/internal/domain/entity"

// Migrations is a list of all gorm migrations for the database.
var Migrations = []interface{}{
	&entity.User{},
	&entity.MeetUp{},
	&entity.MeetUpParticipant{},
	&entity.ReminderPreferences{},
	&entity.ReminderRecord{},
	&entity.ReminderAttempt{},
}
