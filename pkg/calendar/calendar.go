package calendar

import (
	"context"
	"time"

	"github.com/daypane/daypane/pkg/layout"
)

// PositionedEvent is an event with its column assignment within a day.
type PositionedEvent = layout.Placement[Event]

type DayLayout struct {
	Date   time.Time
	Events []PositionedEvent
}

type Calendar interface {
	CreateEvent(ctx context.Context, event NewEvent) (Event, error)
	GetEvent(ctx context.Context, id int) (Event, error)
	ListEvents(ctx context.Context, from, to *time.Time) ([]Event, error)
	UpdateEvent(ctx context.Context, id int, patch EventPatch) (Event, error)
	DeleteEvent(ctx context.Context, id int) error
	DayLayout(ctx context.Context, day time.Time) (DayLayout, error)
	WeekLayout(ctx context.Context, date time.Time) ([]DayLayout, error)
}
