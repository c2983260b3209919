package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	postgresStorage "github.com/storkforge/petconnect/internal/adapters/database/postgres"
	redisStorage "github.com/storkforge/petconnect/internal/adapters/database/redis"
	"github.com/storkforge/petconnect/internal/domain/utils/location"
	"github.com/storkforge/petconnect/pkg/logger"
	"github.com/storkforge/petconnect/pkg/sendgrid"
	"github.com/storkforge/petconnect/pkg/sms"
	"github.com/storkforge/petconnect/pkg/smtp"
	"gopkg.in/gomail.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	EmailProviderSMTP     = "smtp"
	EmailProviderSendGrid = "sendgrid"
)

type Config struct {
	Database *gorm.DB
	Redis    *redisStorage.Client

	SMTP     *smtp.Client
	SendGrid *sendgrid.Client
	SMS      *sms.Client

	Reminder Reminder
}

// Reminder holds the scheduler and dispatch settings under the reminder.* keys.
type Reminder struct {
	Interval            time.Duration
	DefaultHoursBefore  int
	SendTimeout         time.Duration
	Workers             int
	EmailProvider       string
	PreferencesCacheTTL time.Duration
	EmailRate           float64
	SMSRate             float64
	AttachCalendar      bool
}

func setDefaults() {
	viper.SetDefault("settings.timezone", "UTC")
	viper.SetDefault("settings.logging.channel-log-level", 2) // zapcore.ErrorLevel

	viper.SetDefault("service.database.port", 5432)
	viper.SetDefault("service.database.sslmode", "disable")
	viper.SetDefault("service.redis.port", "6379")
	viper.SetDefault("service.smtp.port", 587)

	viper.SetDefault("reminder.interval", time.Minute)
	viper.SetDefault("reminder.default-hours-before", 24)
	viper.SetDefault("reminder.send-timeout", 10*time.Second)
	viper.SetDefault("reminder.workers", 4)
	viper.SetDefault("reminder.email-provider", EmailProviderSMTP)
	viper.SetDefault("reminder.preferences-cache-ttl", 10*time.Minute)
	viper.SetDefault("reminder.rate.email", 5.0)
	viper.SetDefault("reminder.rate.sms", 1.0)
	viper.SetDefault("reminder.attach-calendar", true)
}

// Load reads .env, config.yaml from the given directories and PETCONNECT_*
// environment overrides. A missing config file is not an error.
func Load(paths ...string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		viper.AddConfigPath(p)
	}

	viper.SetEnvPrefix("PETCONNECT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// ReminderSettings reads the reminder.* keys. Out-of-range values fall back to the defaults.
func ReminderSettings() (Reminder, error) {
	r := Reminder{
		Interval:            viper.GetDuration("reminder.interval"),
		DefaultHoursBefore:  viper.GetInt("reminder.default-hours-before"),
		SendTimeout:         viper.GetDuration("reminder.send-timeout"),
		Workers:             viper.GetInt("reminder.workers"),
		EmailProvider:       strings.ToLower(viper.GetString("reminder.email-provider")),
		PreferencesCacheTTL: viper.GetDuration("reminder.preferences-cache-ttl"),
		EmailRate:           viper.GetFloat64("reminder.rate.email"),
		SMSRate:             viper.GetFloat64("reminder.rate.sms"),
		AttachCalendar:      viper.GetBool("reminder.attach-calendar"),
	}

	if r.Interval <= 0 {
		r.Interval = time.Minute
	}
	if r.DefaultHoursBefore < 0 {
		r.DefaultHoursBefore = 24
	}
	if r.SendTimeout <= 0 {
		r.SendTimeout = 10 * time.Second
	}
	if r.Workers <= 0 {
		r.Workers = 1
	}
	switch r.EmailProvider {
	case EmailProviderSMTP, EmailProviderSendGrid:
	default:
		return Reminder{}, fmt.Errorf("unknown reminder.email-provider %q", r.EmailProvider)
	}
	return r, nil
}

// Get loads the configuration, initializes logging and connects every backing service.
func Get() *Config {
	if err := Load(); err != nil {
		panic(err)
	}

	err := logger.Init(logger.Config{
		Debug:        viper.GetBool("settings.debug"),
		TimeLocation: location.Location(),
		LogToFile:    viper.GetBool("settings.log-to-file"),
		LogsDir:      viper.GetString("settings.logs-dir"),
	})
	if err != nil {
		panic(err)
	}

	reminder, err := ReminderSettings()
	if err != nil {
		logger.Log.Panicf("Invalid reminder settings: %v", err)
	}

	var gormConfig *gorm.Config
	if viper.GetBool("settings.debug") {
		newLogger := gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormLogger.Info,
				Colorful:      true,
			},
		)
		gormConfig = &gorm.Config{
			Logger: newLogger,
		}
	} else {
		gormConfig = &gorm.Config{}
	}

	dsn := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=%s TimeZone=UTC",
		viper.GetString("service.database.user"),
		viper.GetString("service.database.password"),
		viper.GetString("service.database.name"),
		viper.GetString("service.database.host"),
		viper.GetInt("service.database.port"),
		viper.GetString("service.database.sslmode"),
	)

	database, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		logger.Log.Panicf("Failed to connect to the database: %v", err)
	} else {
		logger.Log.Info("Successfully connected to the database")
	}

	errMigrate := database.AutoMigrate(postgresStorage.Migrations...)
	if errMigrate != nil {
		logger.Log.Panicf("Failed to migrate database: %v", errMigrate)
	}

	redisClient, err := redisStorage.New(redisStorage.Options{
		Host:     viper.GetString("service.redis.host"),
		Port:     viper.GetString("service.redis.port"),
		Password: viper.GetString("service.redis.password"),
		DB:       viper.GetInt("service.redis.db"),
	})
	if err != nil {
		logger.Log.Panicf("Failed to connect to redis: %v", err)
	} else {
		logger.Log.Info("Successfully connected to redis")
	}

	cfg := &Config{
		Database: database,
		Redis:    redisClient,
		Reminder: reminder,
	}

	if host := viper.GetString("service.smtp.host"); host != "" {
		dialer := gomail.NewDialer(
			host,
			viper.GetInt("service.smtp.port"),
			viper.GetString("service.smtp.email"),
			viper.GetString("service.smtp.password"),
		)
		cfg.SMTP = smtp.NewClient(dialer, viper.GetString("service.smtp.email"), viper.GetString("service.smtp.domain"), reminder.SendTimeout)
	}
	if key := viper.GetString("service.sendgrid.api-key"); key != "" {
		cfg.SendGrid = sendgrid.NewClient(key, viper.GetString("service.sendgrid.from-email"), viper.GetString("service.sendgrid.from-name"))
	}
	if sid := viper.GetString("service.twilio.account-sid"); sid != "" {
		cfg.SMS = sms.NewClient(
			sid,
			viper.GetString("service.twilio.auth-token"),
			viper.GetString("service.twilio.from-number"),
			reminder.SendTimeout,
		)
	} else {
		logger.Log.Warn("Twilio is not configured, SMS reminders will fail")
	}

	return cfg
}
