package service

import (
	"strings"
	"testing"
	"time"

	"github.com/storkforge/petconnect/internal/domain/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuild(t *testing.T) {
	b := NewMessageBuilder(time.UTC, true)
	meetUp := meetUpAt("m1", t0.Add(90*time.Minute))

	msg, err := b.Build(meetUp, dto.Recipient{UserID: "u1", Name: "Anna"}, t0)
	require.NoError(t, err)

	assert.Equal(t, "m1", msg.MeetUpID)
	assert.Equal(t, "Reminder: Dog walk at Fri May 1, 13:30 UTC", msg.Subject)
	assert.Contains(t, msg.Body, "Hello Anna")
	assert.Contains(t, msg.Body, "Where: Central Park")
	assert.NotContains(t, msg.ShortBody, "\n")
	assert.Contains(t, msg.ShortBody, "Central Park")

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "meet-up.ics", msg.Attachments[0].Filename)
	assert.True(t, strings.HasPrefix(string(msg.Attachments[0].Content), "BEGIN:VCALENDAR"))
}

func TestMessageBuildLocalTime(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	b := NewMessageBuilder(berlin, false)

	msg, err := b.Build(meetUpAt("m1", t0.Add(time.Hour)), dto.Recipient{UserID: "u1"}, t0)
	require.NoError(t, err)
	assert.Contains(t, msg.Subject, "15:00 CEST")
	assert.Contains(t, msg.Body, "Hello there")
	assert.Empty(t, msg.Attachments)
}
