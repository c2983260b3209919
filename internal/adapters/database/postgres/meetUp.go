package postgres

import (
	"context"
	"time"

	"github.com/storkforge/petconnect/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MeetUpStorage struct {
	db *gorm.DB
}

func NewMeetUpStorage(db *gorm.DB) *MeetUpStorage {
	return &MeetUpStorage{
		db: db,
	}
}

// Create is a function that creates a new meet-up together with its participants.
func (s *MeetUpStorage) Create(ctx context.Context, meetUp *entity.MeetUp) (*entity.MeetUp, error) {
	err := s.db.WithContext(ctx).Create(meetUp).Error
	return meetUp, err
}

// Get is a function that gets a meet-up with its participants by id.
func (s *MeetUpStorage) Get(ctx context.Context, id string) (*entity.MeetUp, error) {
	var meetUp entity.MeetUp
	err := s.db.WithContext(ctx).Preload("Participants").Where("id = ?", id).First(&meetUp).Error
	return &meetUp, err
}

func (s *MeetUpStorage) UpdateStatus(ctx context.Context, id string, status entity.MeetUpStatus) error {
	res := s.db.WithContext(ctx).Model(&entity.MeetUp{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListUpcoming returns every non-canceled meet-up scheduled after now, soonest first.
func (s *MeetUpStorage) ListUpcoming(ctx context.Context, now time.Time) ([]entity.MeetUp, error) {
	var meetUps []entity.MeetUp
	err := s.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at")
		}).
		Where("status <> ? AND scheduled_time > ?", entity.MeetUpCanceled, now).
		Order("scheduled_time").
		Find(&meetUps).Error
	return meetUps, err
}

func (s *MeetUpStorage) AddParticipant(ctx context.Context, meetUpID, userID string) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.MeetUpParticipant{MeetUpID: meetUpID, UserID: userID}).Error
}

// RemoveParticipant deletes the participation only. The reminder record of the
// pair lives as long as the meet-up, so a re-added participant is never
// reminded twice; a pending record left behind is expired by the stale sweep
// once the meet-up starts.
func (s *MeetUpStorage) RemoveParticipant(ctx context.Context, meetUpID, userID string) error {
	return s.db.WithContext(ctx).
		Where("meet_up_id = ? AND user_id = ?", meetUpID, userID).
		Delete(&entity.MeetUpParticipant{}).Error
}

// Delete removes the meet-up, its participants, reminder records and attempts.
func (s *MeetUpStorage) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meet_up_id = ?", id).Delete(&entity.ReminderAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meet_up_id = ?", id).Delete(&entity.ReminderRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meet_up_id = ?", id).Delete(&entity.MeetUpParticipant{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&entity.MeetUp{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
