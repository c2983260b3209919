package postgres

import (
	"context"

	"github.com/storkforge/petconnect/internal/domain/entity"
	"gorm.io/gorm"
)

type ReminderAttemptStorage struct {
	db *gorm.DB
}

func NewReminderAttemptStorage(db *gorm.DB) *ReminderAttemptStorage {
	return &ReminderAttemptStorage{
		db: db,
	}
}

func (s *ReminderAttemptStorage) Create(ctx context.Context, attempt *entity.ReminderAttempt) error {
	return s.db.WithContext(ctx).Create(attempt).Error
}

// ListByPair returns the attempts of one pair, oldest first.
func (s *ReminderAttemptStorage) ListByPair(ctx context.Context, meetUpID, participantID string) ([]entity.ReminderAttempt, error) {
	var attempts []entity.ReminderAttempt
	err := s.db.WithContext(ctx).
		Where("meet_up_id = ? AND participant_id = ?", meetUpID, participantID).
		Order("attempted_at, id").
		Find(&attempts).Error
	return attempts, err
}
