package layout

import "time"

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StartOfWeek returns local midnight of the first day of the week containing t.
func StartOfWeek(t time.Time, firstDay time.Weekday, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	offset := (int(day.Weekday()) - int(firstDay) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// BucketByDay splits events into `days` consecutive local days starting at the day of
// `from`. An event belongs to the day its start time falls on; events starting outside
// the range are dropped. Relative input order is kept within each bucket.
func BucketByDay[E Span](events []E, from time.Time, days int, loc *time.Location) [][]E {
	if days <= 0 {
		return nil
	}
	first := StartOfDay(from, loc)
	buckets := make([][]E, days)
	for i := range buckets {
		buckets[i] = []E{}
	}

	for _, e := range events {
		start, _ := e.Bounds()
		day := StartOfDay(start, loc)
		// AddDate keeps wall clock midnight across DST changes, so compare calendar dates
		// rather than dividing durations.
		for i := 0; i < days; i++ {
			if first.AddDate(0, 0, i).Equal(day) {
				buckets[i] = append(buckets[i], e)
				break
			}
		}
	}
	return buckets
}
