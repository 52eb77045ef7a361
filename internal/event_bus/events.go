package event_bus

import "time"

const (
	CalendarEventCreatedType EventType = "calendar.event.created"
	CalendarEventUpdatedType EventType = "calendar.event.updated"
	CalendarEventDeletedType EventType = "calendar.event.deleted"
)

type CalendarEventCreated struct {
	Id        int
	Title     string
	StartTime time.Time
	EndTime   time.Time
}

type CalendarEventUpdated struct {
	Id        int
	Title     string
	StartTime time.Time
	EndTime   time.Time
	// Changed lists the JSON names of the fields the update touched.
	Changed []string
}

type CalendarEventDeleted struct {
	Id int
}
