package layout

import "time"

// Metrics holds the pixel scale of a time grid.
type Metrics struct {
	HourHeight float64
	MinHeight  float64
}

var (
	DayViewMetrics  = Metrics{HourHeight: 64, MinHeight: 32}
	WeekViewMetrics = Metrics{HourHeight: 48, MinHeight: 32}
)

// Box is the rendered rectangle of a placement. Top and Height are pixels from local
// midnight; Left and Width are fractions of the day column.
type Box struct {
	Top    float64
	Height float64
	Left   float64
	Width  float64
}

// Box derives the rectangle of a placement. Hours are read from the local wall clock, so
// an event ending after midnight collapses to the minimum height.
func (p Placement[E]) Box(m Metrics, loc *time.Location) Box {
	if loc == nil {
		loc = time.Local
	}
	start, end := p.Event.Bounds()
	startHour := clockHours(start.In(loc))
	endHour := clockHours(end.In(loc))

	count := p.ColumnCount
	if count < 1 {
		count = 1
	}
	return Box{
		Top:    startHour * m.HourHeight,
		Height: max((endHour-startHour)*m.HourHeight, m.MinHeight),
		Left:   float64(p.Column) / float64(count),
		Width:  1 / float64(count),
	}
}

func clockHours(t time.Time) float64 {
	h, m, _ := t.Clock()
	return float64(h) + float64(m)/60
}
