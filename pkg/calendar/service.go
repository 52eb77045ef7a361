package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/daypane/daypane/internal/event_bus"
	"github.com/daypane/daypane/internal/utils"
	"github.com/daypane/daypane/pkg/layout"
	log "github.com/sirupsen/logrus"
)

const defaultColor = "#1a73e8"

type Options struct {
	// Location splits events into days. Nil means time.Local.
	Location     *time.Location
	WeekStart    time.Weekday
	DefaultColor string
	Strategy     layout.Strategy
}

type Service struct {
	repo  Repository
	bus   *event_bus.EventBus
	clock utils.Clock
	opts  Options
}

func NewService(repo Repository, bus *event_bus.EventBus, clock utils.Clock, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.DefaultColor == "" {
		opts.DefaultColor = defaultColor
	}
	if opts.Strategy == "" {
		opts.Strategy = layout.PairwiseMax
	}
	return &Service{
		repo:  repo,
		bus:   bus,
		clock: clock,
		opts:  opts,
	}
}

func (s *Service) Location() *time.Location {
	return s.opts.Location
}

func (s *Service) CreateEvent(ctx context.Context, newEvent NewEvent) (Event, error) {
	if err := validateTitle(newEvent.Title); err != nil {
		return Event{}, err
	}
	if err := validateTimeRange(newEvent.StartTime, newEvent.EndTime); err != nil {
		return Event{}, err
	}

	now := s.clock.Now()
	event := Event{
		Title:       newEvent.Title,
		Description: newEvent.Description,
		StartTime:   newEvent.StartTime,
		EndTime:     newEvent.EndTime,
		Color:       newEvent.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if event.Color == "" {
		event.Color = s.opts.DefaultColor
	}

	stored, err := s.repo.StoreEvent(ctx, event)
	if err != nil {
		return Event{}, fmt.Errorf("failed to store event: %w", err)
	}
	log.Debugf("Created event %d", stored.Id)

	s.publish(ctx, event_bus.CalendarEventCreatedType, event_bus.CalendarEventCreated{
		Id:        stored.Id,
		Title:     stored.Title,
		StartTime: stored.StartTime,
		EndTime:   stored.EndTime,
	})
	return stored, nil
}

func (s *Service) GetEvent(ctx context.Context, id int) (Event, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	return event, nil
}

// ListEvents returns events with start_time >= from and end_time <= to, ordered by start.
func (s *Service) ListEvents(ctx context.Context, from, to *time.Time) ([]Event, error) {
	events, err := s.repo.GetEvents(ctx, Filter{StartFrom: from, EndUntil: to})
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return events, nil
}

func (s *Service) UpdateEvent(ctx context.Context, id int, patch EventPatch) (Event, error) {
	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return Event{}, err
		}
	}

	var updated Event
	var changed []string
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		existing, err := repo.GetEvent(ctx, id)
		if err != nil {
			return err
		}

		updated, changed = patch.Apply(existing)
		if err := validateTimeRange(updated.StartTime, updated.EndTime); err != nil {
			return err
		}
		updated.UpdatedAt = s.clock.Now()

		ok, err := repo.UpdateEvent(ctx, updated)
		if err != nil {
			return err
		}
		if !ok {
			return ErrEventNotFound
		}
		return nil
	})
	if err != nil {
		return Event{}, fmt.Errorf("failed to update event %d: %w", id, err)
	}

	s.publish(ctx, event_bus.CalendarEventUpdatedType, event_bus.CalendarEventUpdated{
		Id:        updated.Id,
		Title:     updated.Title,
		StartTime: updated.StartTime,
		EndTime:   updated.EndTime,
		Changed:   changed,
	})
	return updated, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id int) error {
	deleted, err := s.repo.DeleteEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete event %d: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("failed to delete event %d: %w", id, ErrEventNotFound)
	}

	s.publish(ctx, event_bus.CalendarEventDeletedType, event_bus.CalendarEventDeleted{Id: id})
	return nil
}

// DayLayout lays out the events starting on the local day containing `day`.
func (s *Service) DayLayout(ctx context.Context, day time.Time) (DayLayout, error) {
	days, err := s.layoutDays(ctx, layout.StartOfDay(day, s.opts.Location), 1)
	if err != nil {
		return DayLayout{}, err
	}
	return days[0], nil
}

// WeekLayout lays out the seven days of the week containing `date`, each day on its own.
func (s *Service) WeekLayout(ctx context.Context, date time.Time) ([]DayLayout, error) {
	return s.layoutDays(ctx, layout.StartOfWeek(date, s.opts.WeekStart, s.opts.Location), 7)
}

func (s *Service) layoutDays(ctx context.Context, from time.Time, days int) ([]DayLayout, error) {
	to := from.AddDate(0, 0, days)
	events, err := s.repo.GetEvents(ctx, Filter{StartFrom: &from, StartBefore: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	buckets := layout.BucketByDay(events, from, days, s.opts.Location)
	result := make([]DayLayout, 0, days)
	for i, bucket := range buckets {
		result = append(result, DayLayout{
			Date:   from.AddDate(0, 0, i),
			Events: layout.DayWith(bucket, s.opts.Strategy),
		})
	}
	return result, nil
}

func (s *Service) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Warnf("failed to publish %s: %v", eventType, err)
	}
}

// ParseWeekday maps "monday".."sunday" to a weekday, defaulting to Sunday.
func ParseWeekday(s string) time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(s)) {
			return d
		}
	}
	return time.Sunday
}
