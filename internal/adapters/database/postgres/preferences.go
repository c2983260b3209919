package postgres

import (
	"context"

	"github.com/storkforge/petconnect/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferencesStorage struct {
	db *gorm.DB
}

func NewPreferencesStorage(db *gorm.DB) *PreferencesStorage {
	return &PreferencesStorage{
		db: db,
	}
}

// Get returns gorm.ErrRecordNotFound for users that never saved preferences.
func (s *PreferencesStorage) Get(ctx context.Context, userID string) (*entity.ReminderPreferences, error) {
	var prefs entity.ReminderPreferences
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	return &prefs, err
}

func (s *PreferencesStorage) Upsert(ctx context.Context, prefs *entity.ReminderPreferences) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"hours_before", "email_enabled", "sms_enabled", "updated_at"}),
		}).
		Create(prefs).Error
}
