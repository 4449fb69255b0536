package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/campus-room-booking/internal/apperr"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// MinutesPerDay is the exclusive upper bound of a TimeOfDay, also
	// accepted as an end-of-day marker for slot ends.
	MinutesPerDay = 24 * 60
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// Slot arithmetic is done on this integer form, never on strings.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24h).  "24:00" is accepted as the end of
// the day.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return MinutesPerDay, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Date is a calendar day.  The wrapped time is always midnight UTC so that
// two Dates for the same day compare equal regardless of how they were
// obtained (request string, DATE column).
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's own location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t), nil
}

// Equal reports whether d and o denote the same calendar day.
func (d Date) Equal(o Date) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := o.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool {
	return NewDate(d.Time).Time.Before(NewDate(o.Time).Time)
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Slot is a half-open interval [Start, End) on a calendar day.
type Slot struct {
	Date  Date      `json:"date"`
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

// NewSlot validates and builds a Slot.  It fails with InvalidSlot when
// start >= end or either bound falls outside the day.
func NewSlot(date Date, start, end TimeOfDay) (Slot, error) {
	if date.IsZero() {
		return Slot{}, apperr.InvalidSlot("date is required")
	}
	if start < 0 || start >= MinutesPerDay {
		return Slot{}, apperr.InvalidSlot(fmt.Sprintf("start time %s is out of range", start))
	}
	if end <= 0 || end > MinutesPerDay {
		return Slot{}, apperr.InvalidSlot(fmt.Sprintf("end time %s is out of range", end))
	}
	if start >= end {
		return Slot{}, apperr.InvalidSlot(fmt.Sprintf("start time %s must be before end time %s", start, end))
	}
	return Slot{Date: date, Start: start, End: end}, nil
}

// ParseSlot builds a Slot from the transport representation.  Any parse
// failure is reported as InvalidSlot.
func ParseSlot(date, start, end string) (Slot, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Slot{}, apperr.Wrap(err, apperr.KindInvalidSlot, "date must be YYYY-MM-DD")
	}
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Slot{}, apperr.Wrap(err, apperr.KindInvalidSlot, "start_time must be HH:MM")
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Slot{}, apperr.Wrap(err, apperr.KindInvalidSlot, "end_time must be HH:MM")
	}
	return NewSlot(d, s, e)
}

// Duration returns the length of the slot.
func (s Slot) Duration() time.Duration {
	return time.Duration(s.End-s.Start) * time.Minute
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Date, s.Start, s.End)
}

// Overlaps reports whether a and b share any instant.  Slots that merely
// touch (a.End == b.Start) do not overlap.
func Overlaps(a, b Slot) bool {
	return a.Date.Equal(b.Date) && a.Start < b.End && a.End > b.Start
}
