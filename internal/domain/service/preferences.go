package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storkforge/petconnect/internal/domain/common/errorz"
	"github.com/storkforge/petconnect/internal/domain/entity"
	"github.com/storkforge/petconnect/internal/domain/utils/validator"
	"github.com/storkforge/petconnect/pkg/logger/types"
	"gorm.io/gorm"
)

type PreferencesStorage interface {
	Get(ctx context.Context, userID string) (*entity.ReminderPreferences, error)
	Upsert(ctx context.Context, prefs *entity.ReminderPreferences) error
}

type preferencesCache interface {
	Get(ctx context.Context, userID string) (entity.ReminderPreferences, bool, error)
	Set(ctx context.Context, prefs entity.ReminderPreferences, expiration time.Duration) error
	Clear(ctx context.Context, userID string) error
}

// PreferenceService resolves reminder preferences through the cache, the
// database and finally the configured defaults.
type PreferenceService struct {
	logger  *types.Logger
	storage PreferencesStorage
	cache   preferencesCache

	defaultHoursBefore int
	cacheTTL           time.Duration
}

func NewPreferenceService(
	logger *types.Logger,
	storage PreferencesStorage,
	cache preferencesCache,
	defaultHoursBefore int,
	cacheTTL time.Duration,
) *PreferenceService {
	return &PreferenceService{
		logger:             logger,
		storage:            storage,
		cache:              cache,
		defaultHoursBefore: defaultHoursBefore,
		cacheTTL:           cacheTTL,
	}
}

// Get never fails for a missing row: users without saved preferences get the defaults.
func (s *PreferenceService) Get(ctx context.Context, userID string) (entity.ReminderPreferences, error) {
	if s.cache != nil {
		prefs, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Warnf("preferences cache read failed (user_id=%s): %v", userID, err)
		} else if ok {
			return prefs, nil
		}
	}

	stored, err := s.storage.Get(ctx, userID)
	var prefs entity.ReminderPreferences
	switch {
	case err == nil:
		prefs = *stored
	case errors.Is(err, gorm.ErrRecordNotFound):
		prefs = entity.DefaultPreferences(userID, s.defaultHoursBefore)
	default:
		return entity.ReminderPreferences{}, fmt.Errorf("load preferences for %s: %w", userID, err)
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err = s.cache.Set(ctx, prefs, s.cacheTTL); err != nil {
			s.logger.Warnf("preferences cache write failed (user_id=%s): %v", userID, err)
		}
	}
	return prefs, nil
}

func (s *PreferenceService) Update(ctx context.Context, prefs entity.ReminderPreferences) error {
	if prefs.UserID == "" || !validator.HoursBefore(prefs.HoursBefore) {
		return errorz.ErrInvalidPreferences
	}
	if err := s.storage.Upsert(ctx, &prefs); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Clear(ctx, prefs.UserID); err != nil {
			s.logger.Warnf("preferences cache invalidation failed (user_id=%s): %v", prefs.UserID, err)
		}
	}
	return nil
}
