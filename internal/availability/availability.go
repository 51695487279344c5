// Package availability works out which calendar days of a product are
// already claimed by bookings and whether a requested range can be booked.
//
// The check is advisory: the backend re-checks overlaps when the booking is
// inserted and its answer wins.
package availability

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const layout = "2006-01-02"

var (
	ErrRangeRequired = errors.New("select a rental period")
	ErrRangeInverted = errors.New("end date is before start date")
	ErrPastDate      = errors.New("start date is in the past")
	ErrUnavailable   = errors.New("the selected period overlaps an existing booking")
	ErrRangeTooLong  = fmt.Errorf("a rental cannot exceed %d days", MaxRentalDays)
)

// MaxRentalDays bounds a single booking, both ends included.
const MaxRentalDays = 365

// Day is a calendar day without time of day.
type Day struct {
	t time.Time
}

// DayOf returns the calendar day t falls on in its own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Day{}, fmt.Errorf("availability.ParseDay: %w", err)
	}
	return Day{t: t}, nil
}

func (d Day) String() string {
	return d.t.Format(layout)
}

func (d Day) IsZero() bool {
	return d.t.IsZero()
}

func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

func (d Day) Before(o Day) bool {
	return d.t.Before(o.t)
}

func (d Day) After(o Day) bool {
	return d.t.After(o.t)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b Day) int {
	return int(b.t.Sub(a.t).Hours() / 24)
}

// Range is an inclusive span of days.
type Range struct {
	Start Day
	End   Day
}

func ParseRange(start, end string) (Range, error) {
	s, err := ParseDay(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDay(end)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: s, End: e}, nil
}

// DaySet is a set of unavailable days.
type DaySet map[Day]struct{}

// DisabledDays expands every range day by day and unions the result. A range
// ending before it starts contributes nothing.
func DisabledDays(ranges []Range) DaySet {
	set := make(DaySet)
	for _, r := range ranges {
		for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
			set[d] = struct{}{}
		}
	}
	return set
}

func (s DaySet) Contains(d Day) bool {
	_, ok := s[d]
	return ok
}

func (s DaySet) Sorted() []Day {
	days := make([]Day, 0, len(s))
	for d := range s {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// FirstConflict returns the earliest day of [from, to] present in s.
func (s DaySet) FirstConflict(from, to Day) (Day, bool) {
	for d := from; !d.After(to); d = d.AddDays(1) {
		if s.Contains(d) {
			return d, true
		}
	}
	return Day{}, false
}

// CheckRequest validates the parts of a request that need no booking data:
// both ends present and ordered, no start before today, at most MaxRentalDays long.
func CheckRequest(from, to *Day, today Day) error {
	if from == nil || to == nil || from.IsZero() || to.IsZero() {
		return ErrRangeRequired
	}
	if to.Before(*from) {
		return ErrRangeInverted
	}
	if from.Before(today) {
		return ErrPastDate
	}
	if NumberOfDays(*from, *to) > MaxRentalDays {
		return ErrRangeTooLong
	}
	return nil
}

// Validate accepts [from, to] only when no day of it is disabled. Any
// overlap rejects the whole range.
func Validate(from, to *Day, disabled DaySet, today Day) error {
	if err := CheckRequest(from, to, today); err != nil {
		return err
	}
	if day, ok := disabled.FirstConflict(*from, *to); ok {
		return fmt.Errorf("%w: %s", ErrUnavailable, day)
	}
	return nil
}

// NumberOfDays counts both ends of the range.
func NumberOfDays(from, to Day) int {
	return DaysBetween(from, to) + 1
}

func Price(from, to Day, daily decimal.Decimal) decimal.Decimal {
	return daily.Mul(decimal.NewFromInt(int64(NumberOfDays(from, to))))
}
