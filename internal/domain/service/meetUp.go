package service

import (
	"context"
	"fmt"
	"time"

	"github.com/storkforge/petconnect/internal/domain/common/errorz"
	"github.com/storkforge/petconnect/internal/domain/entity"
	"github.com/storkforge/petconnect/internal/domain/utils/validator"
	"github.com/storkforge/petconnect/pkg/logger/types"
)

type MeetUpStorage interface {
	Create(ctx context.Context, meetUp *entity.MeetUp) (*entity.MeetUp, error)
	Get(ctx context.Context, id string) (*entity.MeetUp, error)
	UpdateStatus(ctx context.Context, id string, status entity.MeetUpStatus) error
	ListUpcoming(ctx context.Context, now time.Time) ([]entity.MeetUp, error)
	AddParticipant(ctx context.Context, meetUpID, userID string) error
	RemoveParticipant(ctx context.Context, meetUpID, userID string) error
	Delete(ctx context.Context, id string) error
}

type meetUpRecordStorage interface {
	ExpireByMeetUp(ctx context.Context, meetUpID string, now time.Time) (int64, error)
}

// MeetUpService owns meet-up lifecycle transitions that affect reminder state.
type MeetUpService struct {
	logger  *types.Logger
	storage MeetUpStorage
	records meetUpRecordStorage
	now     func() time.Time
}

func NewMeetUpService(logger *types.Logger, storage MeetUpStorage, records meetUpRecordStorage) *MeetUpService {
	return &MeetUpService{
		logger:  logger,
		storage: storage,
		records: records,
		now:     time.Now,
	}
}

func (s *MeetUpService) Create(ctx context.Context, meetUp entity.MeetUp) (*entity.MeetUp, error) {
	if !validator.MeetUpTitle(meetUp.Title) || !validator.MeetUpLocation(meetUp.Location) {
		return nil, fmt.Errorf("invalid meet-up title or location")
	}
	if !validator.MeetUpScheduledTime(meetUp.ScheduledTime, s.now()) {
		return nil, fmt.Errorf("meet-up must be scheduled in the future")
	}
	meetUp.Status = entity.MeetUpPlanned
	return s.storage.Create(ctx, &meetUp)
}

func (s *MeetUpService) Get(ctx context.Context, id string) (*entity.MeetUp, error) {
	return s.storage.Get(ctx, id)
}

func (s *MeetUpService) ListUpcoming(ctx context.Context, now time.Time) ([]entity.MeetUp, error) {
	return s.storage.ListUpcoming(ctx, now)
}

// Confirm moves a planned meet-up to confirmed.
func (s *MeetUpService) Confirm(ctx context.Context, id string) error {
	meetUp, err := s.storage.Get(ctx, id)
	if err != nil {
		return err
	}
	switch meetUp.Status {
	case entity.MeetUpConfirmed:
		return nil
	case entity.MeetUpCanceled:
		return errorz.ErrInvalidTransition
	}
	return s.storage.UpdateStatus(ctx, id, entity.MeetUpConfirmed)
}

// Cancel is terminal. Pending reminders of the meet-up are expired right away
// instead of waiting for the next scheduler pass.
func (s *MeetUpService) Cancel(ctx context.Context, id string) error {
	meetUp, err := s.storage.Get(ctx, id)
	if err != nil {
		return err
	}
	if meetUp.IsCanceled() {
		return nil
	}
	if err = s.storage.UpdateStatus(ctx, id, entity.MeetUpCanceled); err != nil {
		return err
	}

	expired, err := s.records.ExpireByMeetUp(ctx, id, s.now())
	if err != nil {
		return fmt.Errorf("expire reminders of canceled meet-up %s: %w", id, err)
	}
	s.logger.Infof("Meet-up canceled (meet_up_id=%s, expired_reminders=%d)", id, expired)
	return nil
}

func (s *MeetUpService) AddParticipant(ctx context.Context, meetUpID, userID string) error {
	meetUp, err := s.storage.Get(ctx, meetUpID)
	if err != nil {
		return err
	}
	if meetUp.IsCanceled() {
		return errorz.ErrMeetUpCanceled
	}
	return s.storage.AddParticipant(ctx, meetUpID, userID)
}

// RemoveParticipant ends the pairing. Its reminder record is kept until the meet-up is deleted.
func (s *MeetUpService) RemoveParticipant(ctx context.Context, meetUpID, userID string) error {
	return s.storage.RemoveParticipant(ctx, meetUpID, userID)
}

func (s *MeetUpService) Delete(ctx context.Context, id string) error {
	return s.storage.Delete(ctx, id)
}
