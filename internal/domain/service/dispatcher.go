package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/storkforge/petconnect/internal/domain/common/errorz"
	"github.com/storkforge/petconnect/internal/domain/dto"
	"github.com/storkforge/petconnect/internal/domain/entity"
	"github.com/storkforge/petconnect/internal/domain/utils/validator"
	"github.com/storkforge/petconnect/pkg/logger/types"
	"golang.org/x/time/rate"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// ChannelFailure is the reason a single channel did not deliver.
type ChannelFailure struct {
	Channel Channel
	Err     error
}

func (f ChannelFailure) Reason() string {
	return fmt.Sprintf("%s: %v", f.Channel, f.Err)
}

// DispatchResult is the aggregate of fanning a reminder out over the enabled channels.
type DispatchResult struct {
	Outcome   Outcome
	Delivered []Channel
	Failures  []ChannelFailure
}

func (r DispatchResult) FailureReasons() []string {
	reasons := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		reasons = append(reasons, f.Reason())
	}
	return reasons
}

// Err joins every channel failure, nil when nothing failed.
func (r DispatchResult) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Channel, f.Err))
	}
	return errors.Join(errs...)
}

type emailSender interface {
	SendEmail(ctx context.Context, to, subject, body string, attachments ...dto.Attachment) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type DispatcherConfig struct {
	SendTimeout time.Duration
	EmailRate   float64 // sends per second, 0 disables limiting
	SMSRate     float64
}

// channel is one member of the closed set of notification media.
type channel struct {
	name    Channel
	enabled func(entity.ReminderPreferences) bool
	address func(dto.Recipient) (string, error)
	send    func(ctx context.Context, address string, msg dto.ReminderMessage) error
	limiter *rate.Limiter
}

type NotificationDispatcher struct {
	logger      *types.Logger
	channels    []channel
	sendTimeout time.Duration
}

func NewNotificationDispatcher(logger *types.Logger, cfg DispatcherConfig, email emailSender, sms smsSender) *NotificationDispatcher {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	emailChannel := channel{
		name:    ChannelEmail,
		enabled: func(p entity.ReminderPreferences) bool { return p.EmailEnabled },
		address: func(r dto.Recipient) (string, error) {
			if r.Email == "" {
				return "", errorz.ErrNoAddress
			}
			if !validator.Email(r.Email) {
				return "", fmt.Errorf("invalid email address %q", r.Email)
			}
			return r.Email, nil
		},
		send: func(ctx context.Context, address string, msg dto.ReminderMessage) error {
			if email == nil {
				return errorz.ErrNoChannelSender
			}
			return email.SendEmail(ctx, address, msg.Subject, msg.Body, msg.Attachments...)
		},
		limiter: newLimiter(cfg.EmailRate),
	}

	smsChannel := channel{
		name:    ChannelSMS,
		enabled: func(p entity.ReminderPreferences) bool { return p.SMSEnabled },
		address: func(r dto.Recipient) (string, error) {
			if r.Phone == "" {
				return "", errorz.ErrNoAddress
			}
			if !validator.Phone(r.Phone) {
				return "", fmt.Errorf("invalid phone number %q", r.Phone)
			}
			return r.Phone, nil
		},
		send: func(ctx context.Context, address string, msg dto.ReminderMessage) error {
			if sms == nil {
				return errorz.ErrNoChannelSender
			}
			return sms.SendSMS(ctx, address, msg.ShortBody)
		},
		limiter: newLimiter(cfg.SMSRate),
	}

	return &NotificationDispatcher{
		logger:      logger,
		channels:    []channel{emailChannel, smsChannel},
		sendTimeout: cfg.SendTimeout,
	}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Dispatch sends msg over every channel the participant enabled.
// Channels are attempted independently; the reminder counts as delivered
// when at least one of them succeeds.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, recipient dto.Recipient, prefs entity.ReminderPreferences, msg dto.ReminderMessage) DispatchResult {
	enabled := make([]channel, 0, len(d.channels))
	for _, ch := range d.channels {
		if ch.enabled(prefs) {
			enabled = append(enabled, ch)
		}
	}
	if len(enabled) == 0 {
		d.logger.Debugf("No channels enabled, skipping (user_id=%s, meet_up_id=%s)", recipient.UserID, msg.MeetUpID)
		return DispatchResult{Outcome: OutcomeSkipped}
	}

	errs := make([]error, len(enabled))
	var wg sync.WaitGroup
	for i, ch := range enabled {
		wg.Add(1)
		go func(i int, ch channel) {
			defer wg.Done()
			errs[i] = d.attempt(ctx, ch, recipient, msg)
		}(i, ch)
	}
	wg.Wait()

	var result DispatchResult
	for i, ch := range enabled {
		if errs[i] == nil {
			result.Delivered = append(result.Delivered, ch.name)
			continue
		}
		d.logger.Warnf("Channel %s failed (user_id=%s, meet_up_id=%s): %v", ch.name, recipient.UserID, msg.MeetUpID, errs[i])
		result.Failures = append(result.Failures, ChannelFailure{Channel: ch.name, Err: errs[i]})
	}

	if len(result.Delivered) > 0 {
		result.Outcome = OutcomeDelivered
	} else {
		result.Outcome = OutcomeFailed
	}
	return result
}

// attempt runs one channel send bounded by the send timeout. A send that does
// not resolve in time is reported as a failure even if it completes later.
func (d *NotificationDispatcher) attempt(ctx context.Context, ch channel, recipient dto.Recipient, msg dto.ReminderMessage) error {
	address, err := ch.address(recipient)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if ch.limiter != nil {
		if err = ch.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("sender panic: %v", r)
			}
		}()
		done <- ch.send(ctx, address, msg)
	}()

	select {
	case err = <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send timed out: %w", ctx.Err())
	}
}
