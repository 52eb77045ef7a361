package calendar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/daypane/daypane/internal/rest"
	"github.com/daypane/daypane/internal/utils"
	"github.com/daypane/daypane/pkg/layout"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const dateFormat = "2006-01-02"

// naive timestamps carry no offset and are read in the display location
var naiveFormats = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

type EventDTO struct {
	Id          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Color       string `json:"color"`
}

// UpdateEventRequest distinguishes absent fields (unchanged) from explicit nulls (cleared).
type UpdateEventRequest struct {
	Title       OptionalString `json:"title" swaggertype:"string"`
	Description OptionalString `json:"description" swaggertype:"string"`
	StartTime   OptionalString `json:"start_time" swaggertype:"string"`
	EndTime     OptionalString `json:"end_time" swaggertype:"string"`
	Color       OptionalString `json:"color" swaggertype:"string"`
}

// OptionalString records whether a JSON field was present and whether it was null.
type OptionalString struct {
	Set   bool
	Null  bool
	Value string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		o.Value = ""
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// ptr returns nil for an absent field and a pointer to "" for an explicit null.
func (o OptionalString) ptr() *string {
	if !o.Set {
		return nil
	}
	value := o.Value
	return &value
}

type PositionedEventDTO struct {
	EventDTO
	Column      int     `json:"column"`
	ColumnCount int     `json:"columnCount"`
	Top         float64 `json:"top"`
	Height      float64 `json:"height"`
	Left        float64 `json:"left"`
	Width       float64 `json:"width"`
}

type DayLayoutDTO struct {
	Date   string               `json:"date"`
	Events []PositionedEventDTO `json:"events"`
}

// ViewOptions controls how the handler reads naive timestamps and sizes boxes.
type ViewOptions struct {
	Location *time.Location
	// Clock stamps exports. Nil means the system clock.
	Clock       utils.Clock
	DayMetrics  layout.Metrics
	WeekMetrics layout.Metrics
}

type Handler struct {
	calendar Calendar
	view     ViewOptions
}

func NewHandler(calendar Calendar, view ViewOptions) *Handler {
	if view.Location == nil {
		view.Location = time.Local
	}
	if view.Clock == nil {
		view.Clock = utils.SystemClock{}
	}
	if view.DayMetrics == (layout.Metrics{}) {
		view.DayMetrics = layout.DayViewMetrics
	}
	if view.WeekMetrics == (layout.Metrics{}) {
		view.WeekMetrics = layout.WeekViewMetrics
	}
	return &Handler{calendar: calendar, view: view}
}

// ListEvents godoc
// @Summary List events
// @Description Events starting at or after start_date and ending at or before end_date
// @Tags Events
// @Produce json
// @Param start_date query string false "ISO-8601 timestamp"
// @Param end_date query string false "ISO-8601 timestamp"
// @Success 200 {array} EventDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	events, err := h.calendar.ListEvents(r.Context(), from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, h.eventToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// ExportEvents godoc
// @Summary Export events as iCalendar
// @Tags Events
// @Produce text/calendar
// @Param start_date query string false "ISO-8601 timestamp"
// @Param end_date query string false "ISO-8601 timestamp"
// @Success 200 {string} string "VCALENDAR"
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/events.ics [get]
func (h *Handler) ExportEvents(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	events, err := h.calendar.ListEvents(r.Context(), from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteICS(&buf, events, h.view.Clock.Now()); err != nil {
		log.Errorf("failed to export events: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to export events", "")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="daypane.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Errorf("failed to write calendar export: %v", err)
	}
}

// GetEvent godoc
// @Summary Get an event
// @Tags Events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} EventDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/events/{id} [get]
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventId(w, r)
	if !ok {
		return
	}

	event, err := h.calendar.GetEvent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, h.eventToDTO(event))
}

// CreateEvent godoc
// @Summary Create an event
// @Tags Events
// @Accept json
// @Produce json
// @Param event body CreateEventRequest true "Event"
// @Success 201 {object} EventDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/events [post]
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var request CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	start, err := h.parseTimestamp(request.StartTime)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid start_time", err.Error())
		return
	}
	end, err := h.parseTimestamp(request.EndTime)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid end_time", err.Error())
		return
	}

	log.Debugf("Creating event %q", request.Title)
	event, err := h.calendar.CreateEvent(r.Context(), NewEvent{
		Title:       request.Title,
		Description: request.Description,
		StartTime:   start,
		EndTime:     end,
		Color:       request.Color,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, h.eventToDTO(event))
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Only the fields present in the body are changed; null clears description and color
// @Tags Events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param event body UpdateEventRequest true "Changed fields"
// @Success 200 {object} EventDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/events/{id} [put]
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventId(w, r)
	if !ok {
		return
	}

	var request UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	patch := EventPatch{
		Title:       request.Title.ptr(),
		Description: request.Description.ptr(),
		Color:       request.Color.ptr(),
	}
	if patch.StartTime, ok = h.parseOptionalTimestamp(w, "start_time", request.StartTime); !ok {
		return
	}
	if patch.EndTime, ok = h.parseOptionalTimestamp(w, "end_time", request.EndTime); !ok {
		return
	}

	event, err := h.calendar.UpdateEvent(r.Context(), id, patch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, h.eventToDTO(event))
}

// DeleteEvent godoc
// @Summary Delete an event
// @Tags Events
// @Param id path int true "Event ID"
// @Success 204
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/events/{id} [delete]
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventId(w, r)
	if !ok {
		return
	}

	if err := h.calendar.DeleteEvent(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DayLayout godoc
// @Summary Lay out one day
// @Tags Layout
// @Produce json
// @Param date query string true "2006-01-02 or RFC 3339"
// @Success 200 {object} DayLayoutDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/layout/day [get]
func (h *Handler) DayLayout(w http.ResponseWriter, r *http.Request) {
	date, ok := h.parseDateParam(w, r)
	if !ok {
		return
	}

	day, err := h.calendar.DayLayout(r.Context(), date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, h.dayToDTO(day, h.view.DayMetrics))
}

// WeekLayout godoc
// @Summary Lay out the week containing a date
// @Tags Layout
// @Produce json
// @Param date query string true "2006-01-02 or RFC 3339"
// @Success 200 {array} DayLayoutDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/layout/week [get]
func (h *Handler) WeekLayout(w http.ResponseWriter, r *http.Request) {
	date, ok := h.parseDateParam(w, r)
	if !ok {
		return
	}

	days, err := h.calendar.WeekLayout(r.Context(), date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	dtos := make([]DayLayoutDTO, 0, len(days))
	for _, day := range days {
		dtos = append(dtos, h.dayToDTO(day, h.view.WeekMetrics))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEventNotFound):
		rest.WriteError(w, http.StatusNotFound, "Event not found", err.Error())
	case errors.Is(err, ErrInvalidTimeRange), errors.Is(err, ErrInvalidTitle):
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
	default:
		log.Errorf("request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (*time.Time, *time.Time, bool) {
	var from, to *time.Time
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := h.parseTimestamp(s)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid start_date format", err.Error())
			return nil, nil, false
		}
		from = &t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := h.parseTimestamp(s)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid end_date format", err.Error())
			return nil, nil, false
		}
		to = &t
	}
	return from, to, true
}

func (h *Handler) parseDateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	s := r.URL.Query().Get("date")
	if s == "" {
		rest.WriteError(w, http.StatusBadRequest, "Missing date", "'date' query parameter is required")
		return time.Time{}, false
	}
	if d, err := time.ParseInLocation(dateFormat, s, h.view.Location); err == nil {
		return d, true
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "'date' must be YYYY-MM-DD or RFC3339")
		return time.Time{}, false
	}
	return d, true
}

// parseTimestamp accepts RFC 3339 or an offset-less ISO-8601 timestamp in the display location.
func (h *Handler) parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, format := range naiveFormats {
		if t, err := time.ParseInLocation(format, s, h.view.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 timestamp", s)
}

func (h *Handler) parseOptionalTimestamp(w http.ResponseWriter, field string, value OptionalString) (*time.Time, bool) {
	if !value.Set {
		return nil, true
	}
	if value.Null {
		rest.WriteError(w, http.StatusBadRequest, "Invalid "+field, fmt.Sprintf("'%s' cannot be null", field))
		return nil, false
	}
	t, err := h.parseTimestamp(value.Value)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid "+field, err.Error())
		return nil, false
	}
	return &t, true
}

func eventId(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event id", err.Error())
		return 0, false
	}
	return id, true
}

func (h *Handler) eventToDTO(e Event) EventDTO {
	return EventDTO{
		Id:          e.Id,
		Title:       e.Title,
		Description: e.Description,
		StartTime:   e.StartTime.In(h.view.Location),
		EndTime:     e.EndTime.In(h.view.Location),
		Color:       e.Color,
		CreatedAt:   e.CreatedAt.In(h.view.Location),
		UpdatedAt:   e.UpdatedAt.In(h.view.Location),
	}
}

func (h *Handler) dayToDTO(day DayLayout, metrics layout.Metrics) DayLayoutDTO {
	events := make([]PositionedEventDTO, 0, len(day.Events))
	for _, p := range day.Events {
		box := p.Box(metrics, h.view.Location)
		events = append(events, PositionedEventDTO{
			EventDTO:    h.eventToDTO(p.Event),
			Column:      p.Column,
			ColumnCount: p.ColumnCount,
			Top:         box.Top,
			Height:      box.Height,
			Left:        box.Left,
			Width:       box.Width,
		})
	}
	return DayLayoutDTO{
		Date:   day.Date.In(h.view.Location).Format(dateFormat),
		Events: events,
	}
}
