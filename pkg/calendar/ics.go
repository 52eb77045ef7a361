package calendar

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
)

const icsProductId = "-//daypane//calendar//EN"

// EventUID is the iCalendar UID of a stored event.
func EventUID(id int) string {
	return fmt.Sprintf("event-%d@daypane", id)
}

// WriteICS renders events as a VCALENDAR, one VEVENT per event, stamped with now.
func WriteICS(w io.Writer, events []Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductId)

	for _, e := range events {
		vevent := cal.AddEvent(EventUID(e.Id))
		vevent.SetDtStampTime(now.UTC())
		vevent.SetStartAt(e.StartTime.UTC())
		vevent.SetEndAt(e.EndTime.UTC())
		vevent.SetSummary(e.Title)
		if e.Description != "" {
			vevent.SetDescription(e.Description)
		}
		if !e.CreatedAt.IsZero() {
			vevent.SetCreatedTime(e.CreatedAt.UTC())
		}
		if !e.UpdatedAt.IsZero() {
			vevent.SetModifiedAt(e.UpdatedAt.UTC())
		}
		if e.Color != "" {
			vevent.SetProperty(ical.ComponentProperty("COLOR"), e.Color)
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}
