package calendar

import (
	"bytes"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/storkforge/petconnect/internal/domain/entity"
)

// DefaultDuration is used as the meet-up length, meet-ups carry no end time.
const DefaultDuration = time.Hour

// ExportMeetUpToICS renders a single meet-up as an iCalendar document that
// mail clients can import. The UID is stable per meet-up so re-imports update
// the existing entry instead of duplicating it.
func ExportMeetUpToICS(meetUp entity.MeetUp, now time.Time) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//PetConnect//Meet-ups//EN")
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")

	e := cal.AddEvent(fmt.Sprintf("%s@petconnect", meetUp.ID))
	e.SetDtStampTime(now)
	e.SetCreatedTime(meetUp.CreatedAt)
	e.SetModifiedAt(meetUp.UpdatedAt)
	e.SetStartAt(meetUp.ScheduledTime)
	e.SetEndAt(meetUp.ScheduledTime.Add(DefaultDuration))
	e.SetSummary(meetUp.Title)
	e.SetLocation(meetUp.Location)

	if meetUp.Status == entity.MeetUpConfirmed {
		e.SetStatus(ics.ObjectStatusConfirmed)
	} else {
		e.SetStatus(ics.ObjectStatusTentative)
	}
	e.SetTimeTransparency(ics.TransparencyOpaque)
	e.SetClass(ics.ClassificationPublic)
	e.SetSequence(0)

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, fmt.Errorf("error serializing calendar: %w", err)
	}
	return buf.Bytes(), nil
}
