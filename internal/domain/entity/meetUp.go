package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeetUpStatus string

const (
	MeetUpPlanned   MeetUpStatus = "planned"
	MeetUpConfirmed MeetUpStatus = "confirmed"
	MeetUpCanceled  MeetUpStatus = "canceled"
)

type MeetUp struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Title         string              `gorm:"not null"`
	Location      string              `gorm:"not null"`
	ScheduledTime time.Time           `gorm:"not null;index"`
	Status        MeetUpStatus        `gorm:"not null;index"`
	Participants  []MeetUpParticipant `gorm:"foreignKey:MeetUpID"`
}

func (m *MeetUp) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = MeetUpPlanned
	}
	return nil
}

// HasStarted reports whether the scheduled time is at or before now.
func (m *MeetUp) HasStarted(now time.Time) bool {
	return !m.ScheduledTime.After(now)
}

func (m *MeetUp) IsCanceled() bool {
	return m.Status == MeetUpCanceled
}

// ParticipantIDs returns the user ids of all participants in insertion order.
func (m *MeetUp) ParticipantIDs() []string {
	ids := make([]string, 0, len(m.Participants))
	for _, p := range m.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

type MeetUpParticipant struct {
	MeetUpID  string `gorm:"primaryKey;type:uuid"`
	UserID    string `gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time
}
