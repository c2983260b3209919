package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/storkforge/petconnect/internal/adapters/config"
	"github.com/storkforge/petconnect/internal/adapters/database/postgres"
	"github.com/storkforge/petconnect/internal/adapters/logchannel"
	"github.com/storkforge/petconnect/internal/domain/dto"
	"github.com/storkforge/petconnect/internal/domain/service"
	"github.com/storkforge/petconnect/internal/domain/utils/location"
	"github.com/storkforge/petconnect/pkg/logger"
	"github.com/storkforge/petconnect/pkg/logger/types"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 30 * time.Second

type emailSender interface {
	SendEmail(ctx context.Context, to, subject, body string, attachments ...dto.Attachment) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// App is the reminder engine with the services other entry points drive.
type App struct {
	Config *config.Config
	Logger *types.Logger

	Users       *service.UserService
	MeetUps     *service.MeetUpService
	Preferences *service.PreferenceService
	Scheduler   *service.ReminderScheduler

	logChannel *logchannel.TelegramChannel
}

func New(cfg *config.Config) (*App, error) {
	appLogger, err := logger.Named("app")
	if err != nil {
		return nil, err
	}

	email, err := selectEmailSender(cfg)
	if err != nil {
		return nil, err
	}
	var sms smsSender
	if cfg.SMS != nil {
		sms = cfg.SMS
	}

	userStorage := postgres.NewUserStorage(cfg.Database)
	meetUpStorage := postgres.NewMeetUpStorage(cfg.Database)
	preferencesStorage := postgres.NewPreferencesStorage(cfg.Database)
	recordStorage := postgres.NewReminderRecordStorage(cfg.Database)
	attemptStorage := postgres.NewReminderAttemptStorage(cfg.Database)

	preferences := service.NewPreferenceService(
		logger.MustNamed("preferences"),
		preferencesStorage,
		cfg.Redis.Preferences,
		cfg.Reminder.DefaultHoursBefore,
		cfg.Reminder.PreferencesCacheTTL,
	)

	dispatcher := service.NewNotificationDispatcher(
		logger.MustNamed("dispatcher"),
		service.DispatcherConfig{
			SendTimeout: cfg.Reminder.SendTimeout,
			EmailRate:   cfg.Reminder.EmailRate,
			SMSRate:     cfg.Reminder.SMSRate,
		},
		email,
		sms,
	)

	scheduler := service.NewReminderScheduler(
		logger.MustNamed("scheduler"),
		service.SchedulerConfig{
			Interval: cfg.Reminder.Interval,
			Workers:  cfg.Reminder.Workers,
			Location: location.Location(),
		},
		meetUpStorage,
		userStorage,
		preferences,
		recordStorage,
		attemptStorage,
		dispatcher,
		service.NewMessageBuilder(location.Location(), cfg.Reminder.AttachCalendar),
	)

	return &App{
		Config:      cfg,
		Logger:      appLogger,
		Users:       service.NewUserService(userStorage),
		MeetUps:     service.NewMeetUpService(logger.MustNamed("meetups"), meetUpStorage, recordStorage),
		Preferences: preferences,
		Scheduler:   scheduler,
	}, nil
}

func selectEmailSender(cfg *config.Config) (emailSender, error) {
	switch cfg.Reminder.EmailProvider {
	case config.EmailProviderSendGrid:
		if cfg.SendGrid == nil {
			return nil, fmt.Errorf("email provider %q selected but service.sendgrid.api-key is empty", config.EmailProviderSendGrid)
		}
		return cfg.SendGrid, nil
	default:
		if cfg.SMTP == nil {
			return nil, fmt.Errorf("email provider %q selected but service.smtp.host is empty", config.EmailProviderSMTP)
		}
		return cfg.SMTP, nil
	}
}

// Run starts the scheduler and blocks until ctx is done, then shuts down:
// no new passes start and the running pass is allowed to finish.
func (a *App) Run(ctx context.Context) error {
	a.setupLogChannel()

	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}
	a.Logger.Info("Reminder engine started")

	<-ctx.Done()
	a.Logger.Info("Shutting down reminder engine")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := a.Scheduler.Stop(stopCtx)

	if a.logChannel != nil {
		a.logChannel.Close()
	}
	if errClose := a.Config.Redis.Close(); errClose != nil {
		a.Logger.Warnf("Failed to close redis: %v", errClose)
	}
	if sqlDB, errDB := a.Config.Database.DB(); errDB == nil {
		_ = sqlDB.Close()
	}
	return err
}

func (a *App) setupLogChannel() {
	if !viper.GetBool("settings.logging.log-to-channel") {
		return
	}
	channel, err := logchannel.NewTelegramChannel(
		viper.GetString("bot.token"),
		viper.GetInt64("settings.logging.channel-id"),
		zapcore.Level(viper.GetInt("settings.logging.channel-log-level")),
		logger.MustNamed("logchannel"),
	)
	if err != nil {
		a.Logger.Errorf("Failed to create log channel: %v", err)
		return
	}
	a.logChannel = channel
	logger.SetLogHook(channel.Hook)
}
