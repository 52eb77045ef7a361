package calendar

import (
	"errors"
	"time"
	"unicode/utf8"
)

const maxTitleLength = 200

var ErrEventNotFound = errors.New("event not found")
var ErrInvalidTimeRange = errors.New("end time must be after start time")
var ErrInvalidTitle = errors.New("title must be between 1 and 200 characters")

type Event struct {
	Id          int
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Bounds makes Event usable by the layout engine.
func (e Event) Bounds() (time.Time, time.Time) {
	return e.StartTime, e.EndTime
}

// NewEvent carries the fields a client may set on creation.
type NewEvent struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Color       string
}

// EventPatch is a partial update; nil fields are left unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Color       *string
}

// Apply returns a copy of e with the patch applied and the JSON names of changed fields.
func (p EventPatch) Apply(e Event) (Event, []string) {
	var changed []string
	if p.Title != nil {
		e.Title = *p.Title
		changed = append(changed, "title")
	}
	if p.Description != nil {
		e.Description = *p.Description
		changed = append(changed, "description")
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
		changed = append(changed, "start_time")
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
		changed = append(changed, "end_time")
	}
	if p.Color != nil {
		e.Color = *p.Color
		changed = append(changed, "color")
	}
	return e, changed
}

// Filter narrows event listings. Nil bounds are not applied.
type Filter struct {
	// StartFrom keeps events with start_time >= StartFrom.
	StartFrom *time.Time
	// StartBefore keeps events with start_time < StartBefore.
	StartBefore *time.Time
	// EndUntil keeps events with end_time <= EndUntil.
	EndUntil *time.Time
}

func (f Filter) matches(e Event) bool {
	if f.StartFrom != nil && e.StartTime.Before(*f.StartFrom) {
		return false
	}
	if f.StartBefore != nil && !e.StartTime.Before(*f.StartBefore) {
		return false
	}
	if f.EndUntil != nil && e.EndTime.After(*f.EndUntil) {
		return false
	}
	return true
}

func validateTitle(title string) error {
	length := utf8.RuneCountInString(title)
	if length < 1 || length > maxTitleLength {
		return ErrInvalidTitle
	}
	return nil
}

func validateTimeRange(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidTimeRange
	}
	return nil
}
