package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderSettingsDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir()))

	r, err := ReminderSettings()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, r.Interval)
	assert.Equal(t, 24, r.DefaultHoursBefore)
	assert.Equal(t, 10*time.Second, r.SendTimeout)
	assert.Equal(t, 4, r.Workers)
	assert.Equal(t, EmailProviderSMTP, r.EmailProvider)
	assert.Equal(t, 10*time.Minute, r.PreferencesCacheTTL)
	assert.Equal(t, 5.0, r.EmailRate)
	assert.Equal(t, 1.0, r.SMSRate)
	assert.True(t, r.AttachCalendar)
}

func TestReminderSettingsFromFileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	yaml := []byte("reminder:\n  interval: 30s\n  workers: 8\n  email-provider: SendGrid\n  attach-calendar: false\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("PETCONNECT_REMINDER_DEFAULT_HOURS_BEFORE", "2")

	require.NoError(t, Load(dir))

	r, err := ReminderSettings()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, r.Interval)
	assert.Equal(t, 8, r.Workers)
	assert.Equal(t, EmailProviderSendGrid, r.EmailProvider)
	assert.False(t, r.AttachCalendar)
	assert.Equal(t, 2, r.DefaultHoursBefore)
}

func TestReminderSettingsRejectsUnknownProvider(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir()))
	viper.Set("reminder.email-provider", "pigeon")

	_, err := ReminderSettings()
	assert.Error(t, err)
}

func TestReminderSettingsClampsInvalidValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir()))
	viper.Set("reminder.workers", -3)
	viper.Set("reminder.interval", "0s")
	viper.Set("reminder.default-hours-before", -1)

	r, err := ReminderSettings()
	require.NoError(t, err)
	assert.Equal(t, 1, r.Workers)
	assert.Equal(t, time.Minute, r.Interval)
	assert.Equal(t, 24, r.DefaultHoursBefore)
}
