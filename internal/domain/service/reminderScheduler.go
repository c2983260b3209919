package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/storkforge/petconnect/internal/domain/common/errorz"
	"github.com/storkforge/petconnect/internal/domain/dto"
	"github.com/storkforge/petconnect/internal/domain/entity"
	"github.com/storkforge/petconnect/pkg/logger/types"
	"golang.org/x/sync/errgroup"
)

type reminderMeetUpStorage interface {
	ListUpcoming(ctx context.Context, now time.Time) ([]entity.MeetUp, error)
}

type reminderUserStorage interface {
	GetMany(ctx context.Context, ids []string) ([]entity.User, error)
}

type reminderPreferences interface {
	Get(ctx context.Context, userID string) (entity.ReminderPreferences, error)
}

type reminderRecordStorage interface {
	LoadOrCreate(ctx context.Context, meetUpID, participantID string, dueAt time.Time) (*entity.ReminderRecord, error)
	Save(ctx context.Context, record *entity.ReminderRecord) error
	ListStalePending(ctx context.Context, now time.Time) ([]entity.ReminderRecord, error)
}

type reminderAttemptStorage interface {
	Create(ctx context.Context, attempt *entity.ReminderAttempt) error
}

type reminderDispatcher interface {
	Dispatch(ctx context.Context, recipient dto.Recipient, prefs entity.ReminderPreferences, msg dto.ReminderMessage) DispatchResult
}

type reminderMessages interface {
	Build(meetUp entity.MeetUp, recipient dto.Recipient, now time.Time) (dto.ReminderMessage, error)
}

type SchedulerConfig struct {
	Interval time.Duration
	Workers  int
	Location *time.Location
}

// ReminderScheduler evaluates every upcoming (meet-up, participant) pair on a
// fixed cadence and dispatches reminders that are due. Only one pass runs at a time.
type ReminderScheduler struct {
	logger *types.Logger
	cfg    SchedulerConfig

	meetUps     reminderMeetUpStorage
	users       reminderUserStorage
	preferences reminderPreferences
	records     reminderRecordStorage
	attempts    reminderAttemptStorage
	dispatcher  reminderDispatcher
	messages    reminderMessages

	now func() time.Time

	pass sync.Mutex

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewReminderScheduler(
	logger *types.Logger,
	cfg SchedulerConfig,
	meetUps reminderMeetUpStorage,
	users reminderUserStorage,
	preferences reminderPreferences,
	records reminderRecordStorage,
	attempts reminderAttemptStorage,
	dispatcher reminderDispatcher,
	messages reminderMessages,
) *ReminderScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ReminderScheduler{
		logger:      logger,
		cfg:         cfg,
		meetUps:     meetUps,
		users:       users,
		preferences: preferences,
		records:     records,
		attempts:    attempts,
		dispatcher:  dispatcher,
		messages:    messages,
		now:         time.Now,
	}
}

// Start registers the pass on an "@every" cron schedule. Start is idempotent.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	c := cron.New(
		cron.WithLocation(s.cfg.Location),
		cron.WithChain(cron.Recover(cronLogger{s.logger}), cron.SkipIfStillRunning(cronLogger{s.logger})),
	)
	_, err := c.AddFunc(fmt.Sprintf("@every %s", s.cfg.Interval), func() {
		s.tick(ctx)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("register reminder pass: %w", err)
	}

	s.logger.Infof("Starting reminder scheduler (interval=%s, workers=%d)", s.cfg.Interval, s.cfg.Workers)
	c.Start()
	s.cron = c
	s.cancel = cancel
	return nil
}

// Stop prevents new passes and new pairs from starting, then waits for the
// running pass so in-flight dispatches resolve and their records are written.
func (s *ReminderScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	cancel()
	done := c.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Reminder scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ReminderScheduler) tick(ctx context.Context) {
	report, err := s.RunPass(ctx)
	if err != nil {
		if errors.Is(err, errorz.ErrPassInProgress) {
			s.logger.Warn("Previous reminder pass still running, skipping tick")
			return
		}
		s.logger.Errorf("reminder pass failed: %v", err)
		return
	}

	if report.Eventful() {
		s.logger.Infof(
			"Reminder pass done (meet_ups=%d, pairs=%d, due=%d, delivered=%d, failed=%d, skipped=%d, expired=%d, conflicts=%d, errors=%d, took=%s)",
			report.MeetUps, report.Pairs, report.Due, report.Delivered, report.Failed, report.Skipped,
			report.Expired, report.Conflicts, report.Errors, report.Duration,
		)
	} else {
		s.logger.Debugf("Reminder pass done (meet_ups=%d, pairs=%d, took=%s)", report.MeetUps, report.Pairs, report.Duration)
	}
}

// RunPass performs one evaluation pass over all upcoming meet-ups.
// It returns errorz.ErrPassInProgress if another pass has not finished yet.
// Cancelling ctx stops new pairs from being evaluated; pairs already
// dispatching run to completion.
func (s *ReminderScheduler) RunPass(ctx context.Context) (dto.PassReport, error) {
	if !s.pass.TryLock() {
		return dto.PassReport{}, errorz.ErrPassInProgress
	}
	defer s.pass.Unlock()

	started := time.Now()
	now := s.now()
	report := &passReport{PassReport: dto.PassReport{StartedAt: now}}

	s.expireStale(ctx, now, report)

	meetUps, err := s.meetUps.ListUpcoming(ctx, now)
	if err != nil {
		return report.snapshot(), fmt.Errorf("list upcoming meet-ups: %w", err)
	}
	report.MeetUps = len(meetUps)

	recipients, err := s.loadRecipients(ctx, meetUps)
	if err != nil {
		return report.snapshot(), err
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)

launch:
	for _, meetUp := range meetUps {
		for _, participantID := range meetUp.ParticipantIDs() {
			if ctx.Err() != nil {
				s.logger.Info("Reminder pass interrupted, not starting remaining pairs")
				break launch
			}
			meetUp, participantID := meetUp, participantID
			report.add(func(r *dto.PassReport) { r.Pairs++ })
			g.Go(func() error {
				recipient, ok := recipients[participantID]
				if !ok {
					s.logger.Errorf("participant not found (meet_up_id=%s, user_id=%s)", meetUp.ID, participantID)
					report.add(func(r *dto.PassReport) { r.Errors++ })
					return nil
				}
				if err := s.processPair(ctx, now, meetUp, recipient, report); err != nil {
					s.logger.Errorf("reminder evaluation failed (meet_up_id=%s, user_id=%s): %v", meetUp.ID, participantID, err)
					report.add(func(r *dto.PassReport) { r.Errors++ })
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	report.Duration = time.Since(started)
	return report.snapshot(), nil
}

// processPair evaluates a single pair. A panic here is a programming defect
// and is turned into an error so the rest of the pass carries on.
func (s *ReminderScheduler) processPair(ctx context.Context, now time.Time, meetUp entity.MeetUp, recipient dto.Recipient, report *passReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during evaluation: %v", r)
		}
	}()

	prefs, err := s.preferences.Get(ctx, recipient.UserID)
	if err != nil {
		return err
	}

	dueAt := DueAt(meetUp, prefs)
	record, err := s.records.LoadOrCreate(ctx, meetUp.ID, recipient.UserID, dueAt)
	if err != nil {
		return fmt.Errorf("load reminder record: %w", err)
	}

	if ShouldExpire(now, meetUp, *record) {
		return s.expire(ctx, record, now, report)
	}
	if !IsDue(now, meetUp, *record, prefs) {
		return s.refreshDueAt(ctx, record, dueAt)
	}
	report.add(func(r *dto.PassReport) { r.Due++ })

	msg, err := s.messages.Build(meetUp, recipient, now)
	if err != nil {
		return fmt.Errorf("build reminder message: %w", err)
	}

	// From here on the pair is resolved even if the pass is being cancelled.
	ctx = context.WithoutCancel(ctx)

	s.logger.Infof("Sending reminder (meet_up_id=%s, user_id=%s, due_at=%s)", meetUp.ID, recipient.UserID, dueAt.Format(time.RFC3339))
	result := s.dispatcher.Dispatch(ctx, recipient, prefs, msg)

	record.DueAt = dueAt
	switch result.Outcome {
	case OutcomeDelivered:
		record.State = entity.ReminderSent
		record.SentAt = &now
		record.LastAttemptAt = &now
		record.Attempts++
		record.LastFailureReason = nil
		record.FailureReasons = nil
		report.add(func(r *dto.PassReport) { r.Delivered++ })
	case OutcomeFailed:
		reasons := result.FailureReasons()
		last := result.Err().Error()
		record.LastAttemptAt = &now
		record.Attempts++
		record.LastFailureReason = &last
		record.FailureReasons = reasons
		report.add(func(r *dto.PassReport) { r.Failed++ })
	case OutcomeSkipped:
		report.add(func(r *dto.PassReport) { r.Skipped++ })
		return nil
	}

	// The sends already happened, the audit row is written whatever the save outcome.
	defer s.recordAttempt(ctx, meetUp.ID, recipient.UserID, result, now)

	if err = s.records.Save(ctx, record); err != nil {
		if errors.Is(err, errorz.ErrRecordTerminal) {
			s.logger.Debugf("reminder already resolved elsewhere (meet_up_id=%s, user_id=%s)", meetUp.ID, recipient.UserID)
			report.add(func(r *dto.PassReport) { r.Conflicts++ })
			return nil
		}
		return fmt.Errorf("save reminder record: %w", err)
	}
	return nil
}

// refreshDueAt keeps the stored window in line with the current preferences
// of a pending record that is not due yet.
func (s *ReminderScheduler) refreshDueAt(ctx context.Context, record *entity.ReminderRecord, dueAt time.Time) error {
	if !record.IsPending() || record.DueAt.Equal(dueAt) {
		return nil
	}
	record.DueAt = dueAt
	err := s.records.Save(ctx, record)
	if err != nil && !errors.Is(err, errorz.ErrRecordTerminal) {
		return fmt.Errorf("update reminder due time: %w", err)
	}
	return nil
}

// expireStale expires pending records whose meet-up was canceled or has
// already started; listUpcoming no longer returns those meet-ups.
func (s *ReminderScheduler) expireStale(ctx context.Context, now time.Time, report *passReport) {
	stale, err := s.records.ListStalePending(ctx, now)
	if err != nil {
		s.logger.Errorf("failed to list stale reminders: %v", err)
		report.add(func(r *dto.PassReport) { r.Errors++ })
		return
	}
	for i := range stale {
		if err = s.expire(ctx, &stale[i], now, report); err != nil {
			s.logger.Errorf("failed to expire reminder (meet_up_id=%s, user_id=%s): %v", stale[i].MeetUpID, stale[i].ParticipantID, err)
			report.add(func(r *dto.PassReport) { r.Errors++ })
		}
	}
}

func (s *ReminderScheduler) expire(ctx context.Context, record *entity.ReminderRecord, now time.Time, report *passReport) error {
	record.State = entity.ReminderExpired
	err := s.records.Save(ctx, record)
	switch {
	case err == nil:
		s.logger.Infof("Reminder expired (meet_up_id=%s, user_id=%s)", record.MeetUpID, record.ParticipantID)
		report.add(func(r *dto.PassReport) { r.Expired++ })
		return nil
	case errors.Is(err, errorz.ErrRecordTerminal):
		report.add(func(r *dto.PassReport) { r.Conflicts++ })
		return nil
	default:
		return fmt.Errorf("expire reminder record: %w", err)
	}
}

func (s *ReminderScheduler) recordAttempt(ctx context.Context, meetUpID, participantID string, result DispatchResult, now time.Time) {
	if s.attempts == nil {
		return
	}
	delivered := make([]string, 0, len(result.Delivered))
	for _, ch := range result.Delivered {
		delivered = append(delivered, string(ch))
	}
	attempt := &entity.ReminderAttempt{
		MeetUpID:      meetUpID,
		ParticipantID: participantID,
		Outcome:       string(result.Outcome),
		Delivered:     delivered,
		AttemptedAt:   now,
	}
	if err := result.Err(); err != nil {
		attempt.Failure = err.Error()
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.logger.Warnf("failed to store reminder attempt (meet_up_id=%s, user_id=%s): %v", meetUpID, participantID, err)
	}
}

func (s *ReminderScheduler) loadRecipients(ctx context.Context, meetUps []entity.MeetUp) (map[string]dto.Recipient, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, meetUp := range meetUps {
		for _, id := range meetUp.ParticipantIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	recipients := make(map[string]dto.Recipient, len(ids))
	if len(ids) == 0 {
		return recipients, nil
	}
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	for _, user := range users {
		recipients[user.ID] = dto.NewRecipientFromEntity(user)
	}
	return recipients, nil
}

// passReport guards the counters shared by the pair workers.
type passReport struct {
	mu sync.Mutex
	dto.PassReport
}

func (r *passReport) add(f func(*dto.PassReport)) {
	r.mu.Lock()
	f(&r.PassReport)
	r.mu.Unlock()
}

func (r *passReport) snapshot() dto.PassReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.PassReport
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	logger *types.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
