package app

import (
	"fmt"
	"time"

	"github.com/daypane/daypane/internal/config"
	"github.com/daypane/daypane/internal/event_bus"
	"github.com/daypane/daypane/internal/utils"
	"github.com/daypane/daypane/pkg/calendar"
	"github.com/daypane/daypane/pkg/layout"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	CalendarRepository calendar.Repository
	CalendarService    *calendar.Service
	CalendarHandler    *calendar.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	return buildDependencies(calendar.NewRepository(db), cfg)
}

func buildDependencies(repo calendar.Repository, cfg config.Application) (*Dependencies, error) {
	loc, err := displayLocation(cfg.View.Timezone)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{}
	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()
	subscribeChangeLog(deps.EventBus)

	deps.CalendarRepository = repo
	deps.CalendarService = calendar.NewService(deps.CalendarRepository, deps.EventBus, deps.Clock, calendar.Options{
		Location:     loc,
		WeekStart:    calendar.ParseWeekday(cfg.View.WeekStart),
		DefaultColor: cfg.View.DefaultColor,
		Strategy:     layout.ParseStrategy(cfg.Layout.ColumnCount),
	})
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarService, calendar.ViewOptions{
		Location: loc,
		Clock:    deps.Clock,
		DayMetrics: layout.Metrics{
			HourHeight: cfg.Layout.DayHourHeight,
			MinHeight:  cfg.Layout.MinHeight,
		},
		WeekMetrics: layout.Metrics{
			HourHeight: cfg.Layout.WeekHourHeight,
			MinHeight:  cfg.Layout.MinHeight,
		},
	})

	return deps, nil
}

// displayLocation resolves the configured IANA zone; empty means the server zone.
func displayLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid view.timezone %q: %w", name, err)
	}
	return loc, nil
}

func subscribeChangeLog(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.CalendarEventCreatedType, func(e event_bus.EventT[event_bus.CalendarEventCreated]) error {
		log.WithFields(log.Fields{
			"event_id": e.Data.Id,
			"start":    e.Data.StartTime,
			"end":      e.Data.EndTime,
		}).Info("Calendar event created")
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.CalendarEventUpdatedType, func(e event_bus.EventT[event_bus.CalendarEventUpdated]) error {
		log.WithFields(log.Fields{
			"event_id": e.Data.Id,
			"changed":  e.Data.Changed,
		}).Info("Calendar event updated")
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.CalendarEventDeletedType, func(e event_bus.EventT[event_bus.CalendarEventDeleted]) error {
		log.WithField("event_id", e.Data.Id).Info("Calendar event deleted")
		return nil
	})
}
