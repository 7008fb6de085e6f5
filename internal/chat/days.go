package chat

import "time"

// DayGroup is a run of messages created on the same calendar day.
type DayGroup struct {
	Day      time.Time
	Messages []Message
}

// GroupByDay splits msgs into consecutive same-day runs in loc, keeping the
// original order. A message without a timestamp stays in the current run.
func GroupByDay(msgs []Message, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.Local
	}
	var groups []DayGroup
	for _, m := range msgs {
		day := truncateDay(m.CreatedAt, loc)
		if n := len(groups); n > 0 && (m.CreatedAt.IsZero() || groups[n-1].Day.Equal(day)) {
			groups[n-1].Messages = append(groups[n-1].Messages, m)
			continue
		}
		groups = append(groups, DayGroup{Day: day, Messages: []Message{m}})
	}
	return groups
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, mo, d := t.In(loc).Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, loc)
}
