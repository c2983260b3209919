package dto

import "time"

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReminderMessage is one logical reminder, rendered for every channel.
type ReminderMessage struct {
	MeetUpID    string
	Subject     string
	Body        string
	ShortBody   string
	StartsAt    time.Time
	Attachments []Attachment
}
