package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/storkforge/petconnect/internal/domain/dto"
	"github.com/storkforge/petconnect/internal/domain/entity"
	"github.com/storkforge/petconnect/internal/domain/utils"
	"github.com/storkforge/petconnect/internal/domain/utils/calendar"
)

const timeLayout = "Mon Jan 2, 15:04 MST"

type MessageBuilder struct {
	location       *time.Location
	attachCalendar bool
}

func NewMessageBuilder(location *time.Location, attachCalendar bool) *MessageBuilder {
	if location == nil {
		location = time.UTC
	}
	return &MessageBuilder{
		location:       location,
		attachCalendar: attachCalendar,
	}
}

// Build renders the reminder for one participant: event time and location.
func (b *MessageBuilder) Build(meetUp entity.MeetUp, recipient dto.Recipient, now time.Time) (dto.ReminderMessage, error) {
	startsAt := meetUp.ScheduledTime.In(b.location)
	when := startsAt.Format(timeLayout)
	in := utils.HumanizeDuration(meetUp.ScheduledTime.Sub(now))

	name := recipient.Name
	if name == "" {
		name = "there"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", name)
	fmt.Fprintf(&body, "this is a reminder that %q starts in %s.\n\n", meetUp.Title, in)
	fmt.Fprintf(&body, "When:  %s\n", when)
	fmt.Fprintf(&body, "Where: %s\n\n", meetUp.Location)
	body.WriteString("See you there!\n")

	msg := dto.ReminderMessage{
		MeetUpID:  meetUp.ID,
		Subject:   fmt.Sprintf("Reminder: %s at %s", meetUp.Title, when),
		Body:      body.String(),
		ShortBody: fmt.Sprintf("Reminder: %s at %s, %s", meetUp.Title, when, meetUp.Location),
		StartsAt:  meetUp.ScheduledTime,
	}

	if b.attachCalendar {
		ics, err := calendar.ExportMeetUpToICS(meetUp, now)
		if err != nil {
			return dto.ReminderMessage{}, err
		}
		msg.Attachments = append(msg.Attachments, dto.Attachment{
			Filename:    "meet-up.ics",
			ContentType: "text/calendar; charset=utf-8; method=PUBLISH",
			Content:     ics,
		})
	}

	return msg, nil
}
