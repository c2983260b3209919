package service

import (
	"testing"
	"time"

	"github.com/storkforge/petconnect/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func pending() entity.ReminderRecord {
	return entity.ReminderRecord{State: entity.ReminderPending}
}

func TestIsDueBoundary(t *testing.T) {
	meetUp := meetUpAt("m1", t0.Add(2*time.Hour))
	prefs := entity.ReminderPreferences{HoursBefore: 1, EmailEnabled: true}
	boundary := t0.Add(time.Hour)

	assert.True(t, IsDue(boundary, meetUp, pending(), prefs), "exactly at the threshold")
	assert.False(t, IsDue(boundary.Add(-time.Nanosecond), meetUp, pending(), prefs), "one unit before the threshold")
	assert.True(t, IsDue(meetUp.ScheduledTime.Add(-time.Nanosecond), meetUp, pending(), prefs))
	assert.False(t, IsDue(meetUp.ScheduledTime, meetUp, pending(), prefs), "meet-up started")
}

func TestIsDueRespectsStateAndStatus(t *testing.T) {
	meetUp := meetUpAt("m1", t0.Add(time.Hour))
	prefs := entity.ReminderPreferences{HoursBefore: 24}

	for _, state := range []entity.ReminderState{entity.ReminderSent, entity.ReminderExpired} {
		assert.False(t, IsDue(t0, meetUp, entity.ReminderRecord{State: state}, prefs), state)
	}

	canceled := meetUp
	canceled.Status = entity.MeetUpCanceled
	assert.False(t, IsDue(t0, canceled, pending(), prefs))
}

func TestIsDueIsDeterministic(t *testing.T) {
	meetUp := meetUpAt("m1", t0.Add(90*time.Minute))
	record := pending()
	prefs := entity.ReminderPreferences{HoursBefore: 2}

	first := IsDue(t0, meetUp, record, prefs)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, IsDue(t0, meetUp, record, prefs))
	}
	assert.Equal(t, entity.ReminderPending, record.State)
	assert.Equal(t, entity.MeetUpPlanned, meetUp.Status)
}

func TestShouldExpire(t *testing.T) {
	meetUp := meetUpAt("m1", t0)

	assert.True(t, ShouldExpire(t0, meetUp, pending()))
	assert.False(t, ShouldExpire(t0.Add(-time.Second), meetUp, pending()))
	assert.False(t, ShouldExpire(t0, meetUp, entity.ReminderRecord{State: entity.ReminderSent}))

	canceled := meetUpAt("m2", t0.Add(time.Hour))
	canceled.Status = entity.MeetUpCanceled
	assert.True(t, ShouldExpire(t0, canceled, pending()))
}

func TestReminderTimeline(t *testing.T) {
	meetUp := meetUpAt("m1", t0.Add(2*time.Hour))
	prefs := entity.ReminderPreferences{HoursBefore: 1, EmailEnabled: true, SMSEnabled: true}
	record := pending()

	assert.False(t, IsDue(t0.Add(30*time.Minute), meetUp, record, prefs))
	assert.True(t, IsDue(t0.Add(65*time.Minute), meetUp, record, prefs))

	record.State = entity.ReminderSent
	assert.False(t, IsDue(t0.Add(70*time.Minute), meetUp, record, prefs))
}

func TestDueAt(t *testing.T) {
	meetUp := meetUpAt("m1", t0)
	assert.Equal(t, t0.Add(-24*time.Hour), DueAt(meetUp, entity.ReminderPreferences{HoursBefore: 24}))
	assert.Equal(t, t0, DueAt(meetUp, entity.ReminderPreferences{HoursBefore: 0}))
}
