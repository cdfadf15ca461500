package event

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

type Status string

const (
	StatusPrevious Status = "previous"
	StatusOngoing  Status = "ongoing"
	StatusUpcoming Status = "upcoming"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	DefaultTimezone = "Asia/Manila"
)

var ErrInvertedRange = errors.New("time_to is before time_from")

// ParseError reports a date or time field that is not in the expected layout.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func ParseStatus(s string) (Status, error) {
	switch s {
	case string(StatusPrevious):
		return StatusPrevious, nil
	case string(StatusOngoing), "on-going":
		return StatusOngoing, nil
	case string(StatusUpcoming):
		return StatusUpcoming, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Classify places now relative to the closed interval [date@timeFrom, date@timeTo]
// in loc. A nil loc means DefaultTimezone.
func Classify(date, timeFrom, timeTo string, now time.Time, loc *time.Location) (Status, error) {
	start, end, err := Bounds(date, timeFrom, timeTo, loc)
	if err != nil {
		return "", err
	}

	switch {
	case now.After(end):
		return StatusPrevious, nil
	case now.Before(start):
		return StatusUpcoming, nil
	default:
		return StatusOngoing, nil
	}
}

// Bounds returns the start and end instants of an event.
func Bounds(date, timeFrom, timeTo string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = defaultLocation()
	}

	day, err := parseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, err := parseClock("time_from", timeFrom)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseClock("time_to", timeTo)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to < from {
		return time.Time{}, time.Time{}, ErrInvertedRange
	}

	return wallClock(day, from, loc), wallClock(day, to, loc), nil
}

// wallClock places a time of day on day's calendar date in loc. It goes
// through time.Date so DST changeover days keep their clock reading.
func wallClock(day time.Time, clock time.Duration, loc *time.Location) time.Time {
	y, m, d := day.Date()
	h := int(clock / time.Hour)
	minute := int(clock % time.Hour / time.Minute)
	return time.Date(y, m, d, h, minute, 0, 0, loc)
}

func parseDate(s string) (time.Time, error) {
	// the remote API sends RFC 3339 timestamps on some endpoints
	if len(s) > len(dateLayout) && s[len(dateLayout)] == 'T' {
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			s = s[:len(dateLayout)]
		}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &ParseError{Field: "date", Value: s, Err: err}
	}
	return t, nil
}

func parseClock(field, s string) (time.Duration, error) {
	if len(s) != len(clockLayout) {
		return 0, &ParseError{Field: field, Value: s, Err: errors.New("want HH:MM")}
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, &ParseError{Field: field, Value: s, Err: err}
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

var manila = time.FixedZone("PHT", 8*60*60)

func defaultLocation() *time.Location {
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return manila
}

// Classifier binds the classification rule to one zone.
type Classifier struct {
	Location *time.Location
}

func NewClassifier(loc *time.Location) *Classifier {
	if loc == nil {
		loc = defaultLocation()
	}
	return &Classifier{Location: loc}
}

func (c *Classifier) Classify(e *Event, now time.Time) (Status, error) {
	return Classify(e.Date, e.TimeFrom, e.TimeTo, now, c.Location)
}

// Annotate sets Status on every event it can classify and returns the ones
// it could not, paired with the reason.
func (c *Classifier) Annotate(events []*Event, now time.Time) (ok []*Event, failed map[string]error) {
	ok = make([]*Event, 0, len(events))
	for _, e := range events {
		status, err := c.Classify(e, now)
		if err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[e.ID] = err
			continue
		}
		e.Status = status
		ok = append(ok, e)
	}
	return ok, failed
}

type Groups struct {
	Previous []*Event `json:"previous"`
	Ongoing  []*Event `json:"ongoing"`
	Upcoming []*Event `json:"upcoming"`
}

// Group buckets already annotated events by status, each bucket ordered by
// start time.
func (c *Classifier) Group(events []*Event) Groups {
	g := Groups{
		Previous: []*Event{},
		Ongoing:  []*Event{},
		Upcoming: []*Event{},
	}
	for _, e := range events {
		switch e.Status {
		case StatusPrevious:
			g.Previous = append(g.Previous, e)
		case StatusOngoing:
			g.Ongoing = append(g.Ongoing, e)
		case StatusUpcoming:
			g.Upcoming = append(g.Upcoming, e)
		}
	}
	c.SortByStart(g.Previous)
	c.SortByStart(g.Ongoing)
	c.SortByStart(g.Upcoming)
	return g
}

func (c *Classifier) SortByStart(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		si, _, _ := Bounds(events[i].Date, events[i].TimeFrom, events[i].TimeTo, c.Location)
		sj, _, _ := Bounds(events[j].Date, events[j].TimeFrom, events[j].TimeTo, c.Location)
		return si.Before(sj)
	})
}
