package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storkforge/petconnect/internal/domain/common/errorz"
	"github.com/storkforge/petconnect/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReminderRecordStorage struct {
	db *gorm.DB
}

func NewReminderRecordStorage(db *gorm.DB) *ReminderRecordStorage {
	return &ReminderRecordStorage{
		db: db,
	}
}

// LoadOrCreate returns the record of the pair, creating a pending one on first sight.
// dueAt is only used when the record is created.
func (s *ReminderRecordStorage) LoadOrCreate(ctx context.Context, meetUpID, participantID string, dueAt time.Time) (*entity.ReminderRecord, error) {
	record := entity.ReminderRecord{
		MeetUpID:      meetUpID,
		ParticipantID: participantID,
		DueAt:         dueAt,
		State:         entity.ReminderPending,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, meetUpID, participantID)
}

func (s *ReminderRecordStorage) Get(ctx context.Context, meetUpID, participantID string) (*entity.ReminderRecord, error) {
	var record entity.ReminderRecord
	err := s.db.WithContext(ctx).
		Where("meet_up_id = ? AND participant_id = ?", meetUpID, participantID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Save writes the record only while the stored state is still pending, so a
// sent or expired record can never be moved back. A rejected write returns
// errorz.ErrRecordTerminal.
func (s *ReminderRecordStorage) Save(ctx context.Context, record *entity.ReminderRecord) error {
	if !entity.CanTransition(entity.ReminderPending, record.State) {
		return fmt.Errorf("%w: %q", errorz.ErrInvalidTransition, record.State)
	}

	res := s.db.WithContext(ctx).
		Model(&entity.ReminderRecord{}).
		Where("meet_up_id = ? AND participant_id = ? AND state = ?", record.MeetUpID, record.ParticipantID, entity.ReminderPending).
		Updates(map[string]interface{}{
			"state":               record.State,
			"due_at":              record.DueAt,
			"attempts":            record.Attempts,
			"last_attempt_at":     record.LastAttemptAt,
			"last_failure_reason": record.LastFailureReason,
			"failure_reasons":     record.FailureReasons,
			"sent_at":             record.SentAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if _, err := s.Get(ctx, record.MeetUpID, record.ParticipantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("check reminder record: %w", err)
	}
	return errorz.ErrRecordTerminal
}

// ListStalePending returns pending records whose meet-up was canceled or has already started.
func (s *ReminderRecordStorage) ListStalePending(ctx context.Context, now time.Time) ([]entity.ReminderRecord, error) {
	var records []entity.ReminderRecord
	err := s.db.WithContext(ctx).
		Select("reminder_records.*").
		Joins("JOIN meet_ups ON meet_ups.id = reminder_records.meet_up_id").
		Where("reminder_records.state = ? AND (meet_ups.status = ? OR meet_ups.scheduled_time <= ?)",
			entity.ReminderPending, entity.MeetUpCanceled, now).
		Find(&records).Error
	return records, err
}

// ExpireByMeetUp expires every pending record of a meet-up and returns how many changed.
func (s *ReminderRecordStorage) ExpireByMeetUp(ctx context.Context, meetUpID string, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&entity.ReminderRecord{}).
		Where("meet_up_id = ? AND state = ?", meetUpID, entity.ReminderPending).
		Updates(map[string]interface{}{
			"state":      entity.ReminderExpired,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
