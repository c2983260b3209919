package entity

import (
	"time"

	"gorm.io/datatypes"
)

type ReminderState string

const (
	ReminderPending ReminderState = "pending"
	ReminderSent    ReminderState = "sent"
	ReminderExpired ReminderState = "expired"
)

// IsTerminal reports whether no further writes are accepted in this state.
func (s ReminderState) IsTerminal() bool {
	return s == ReminderSent || s == ReminderExpired
}

// CanTransition reports whether from -> to respects the state machine:
// pending may stay pending or move to sent/expired, terminal states never move.
func CanTransition(from, to ReminderState) bool {
	if from != ReminderPending {
		return false
	}
	switch to {
	case ReminderPending, ReminderSent, ReminderExpired:
		return true
	}
	return false
}

// ReminderRecord is the delivery state of one (meet-up, participant) pair.
type ReminderRecord struct {
	MeetUpID          string `gorm:"primaryKey;type:uuid"`
	ParticipantID     string `gorm:"primaryKey;type:uuid"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DueAt             time.Time     `gorm:"not null"`
	State             ReminderState `gorm:"not null;index"`
	Attempts          int           `gorm:"not null"`
	LastAttemptAt     *time.Time
	LastFailureReason *string
	FailureReasons    datatypes.JSONSlice[string]
	SentAt            *time.Time
}

func (r *ReminderRecord) IsPending() bool {
	return r.State == ReminderPending
}

// ReminderAttempt is an audit row written after every dispatch.
type ReminderAttempt struct {
	ID            uint   `gorm:"primaryKey"`
	MeetUpID      string `gorm:"not null;index;type:uuid"`
	ParticipantID string `gorm:"not null;index;type:uuid"`
	Outcome       string `gorm:"not null"`
	Delivered     datatypes.JSONSlice[string]
	Failure       string
	AttemptedAt   time.Time `gorm:"not null"`
}
