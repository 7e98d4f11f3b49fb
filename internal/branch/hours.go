package branch

import (
	"sort"
	"time"

	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
)

// MinutesPerDay bounds opens_at and closes_at.
const MinutesPerDay = 24 * 60

// Day is one weekday of opening hours. Minutes count from local midnight.
// A ClosesAt before OpensAt spans past midnight; equal values mean open
// around the clock.
type Day struct {
	Weekday  int  `json:"weekday" validate:"gte=0,lte=6"`
	OpensAt  int  `json:"opens_at" validate:"gte=0,lte=1440"`
	ClosesAt int  `json:"closes_at" validate:"gte=0,lte=1440"`
	Closed   bool `json:"closed"`
}

// Schedule is a branch's weekly hours in its own time zone. Weekdays without
// an entry are closed.
type Schedule struct {
	Location *time.Location
	days     map[time.Weekday]Day
}

// NewSchedule builds a schedule from stored rows.
func NewSchedule(tz string, rows []dbgen.BranchHour) Schedule {
	days := make([]Day, 0, len(rows))
	for _, r := range rows {
		days = append(days, Day{Weekday: int(r.Weekday), OpensAt: int(r.OpensAt), ClosesAt: int(r.ClosesAt), Closed: r.Closed})
	}
	return ScheduleOf(loadLocation(tz), days)
}

// ScheduleOf builds a schedule from days.
func ScheduleOf(loc *time.Location, days []Day) Schedule {
	if loc == nil {
		loc = time.UTC
	}
	s := Schedule{Location: loc, days: make(map[time.Weekday]Day, len(days))}
	for _, d := range days {
		s.days[time.Weekday(d.Weekday)] = d
	}
	return s
}

func loadLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Days returns the configured days ordered by weekday.
func (s Schedule) Days() []Day {
	out := make([]Day, 0, len(s.days))
	for _, d := range s.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out
}

// interval returns the opening window that starts on the local calendar day
// of midnight.
func (s Schedule) interval(y int, m time.Month, d int) (time.Time, time.Time, bool) {
	midnight := time.Date(y, m, d, 0, 0, 0, 0, s.Location)
	day, ok := s.days[midnight.Weekday()]
	if !ok || day.Closed {
		return time.Time{}, time.Time{}, false
	}
	start := time.Date(y, m, d, 0, day.OpensAt, 0, 0, s.Location)
	end := time.Date(y, m, d, 0, day.ClosesAt, 0, 0, s.Location)
	if day.ClosesAt <= day.OpensAt {
		end = time.Date(y, m, d+1, 0, day.ClosesAt, 0, 0, s.Location)
	}
	return start, end, true
}

// OpenInterval returns the opening window containing t. The previous day is
// checked first so late-night spans are honoured.
func (s Schedule) OpenInterval(t time.Time) (time.Time, time.Time, bool) {
	local := t.In(s.Location)
	y, m, d := local.Date()
	for _, offset := range []int{-1, 0} {
		start, end, ok := s.interval(y, m, d+offset)
		if ok && !t.Before(start) && t.Before(end) {
			return start, end, true
		}
	}
	return time.Time{}, time.Time{}, false
}

// IsOpenAt reports whether the branch is open at t.
func (s Schedule) IsOpenAt(t time.Time) bool {
	_, _, ok := s.OpenInterval(t)
	return ok
}

// Fits reports whether [start, start+d) stays open throughout. Windows that
// touch or overlap, such as consecutive around-the-clock days, count as one.
func (s Schedule) Fits(start time.Time, d time.Duration) bool {
	from, end, ok := s.OpenInterval(start)
	return ok && !start.Add(d).After(s.reach(from, end))
}

// reach extends end across the following days' windows while each one opens
// no later than the current end.
func (s Schedule) reach(from, end time.Time) time.Time {
	y, m, d := from.In(s.Location).Date()
	for next := 1; next <= 7; next++ {
		start, stop, ok := s.interval(y, m, d+next)
		if !ok || start.After(end) {
			break
		}
		if stop.After(end) {
			end = stop
		}
	}
	return end
}

// Slots lists reservation start times inside the window opening on the local
// date of day, every step, such that a booking of length d stays open.
func (s Schedule) Slots(day time.Time, step, d time.Duration) []time.Time {
	if step <= 0 {
		return nil
	}
	local := day.In(s.Location)
	start, end, ok := s.interval(local.Year(), local.Month(), local.Day())
	if !ok {
		return nil
	}
	limit := s.reach(start, end)
	var out []time.Time
	for t := start; t.Before(end) && !t.Add(d).After(limit); t = t.Add(step) {
		out = append(out, t)
	}
	return out
}
