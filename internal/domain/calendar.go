package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const MinutesPerDay = 24 * 60

// epoch is 06-01 of a non-leap year; all dates are sale-season days after it.
var epoch = time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)

// Day counts days since 06-01.
type Day int

// ParseDay parses "MM-DD".
func ParseDay(s string) (Day, error) {
	const op = "domain.ParseDay"

	t, err := time.Parse("01-02", s)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	d := time.Date(epoch.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(epoch) {
		return 0, fmt.Errorf("%s: %q is before 06-01", op, s)
	}

	return Day(d.Sub(epoch).Hours() / 24), nil
}

func (d Day) String() string {
	return epoch.AddDate(0, 0, int(d)).Format("01-02")
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	const op = "domain.ParseClock"

	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return t.Hour()*60 + t.Minute(), nil
}

// Stamp is an absolute point in time, in minutes since 06-01 00:00.
type Stamp int

func StampAt(d Day, minutes int) Stamp {
	return Stamp(int(d)*MinutesPerDay + minutes)
}

func (s Stamp) Day() Day { return Day(int(s) / MinutesPerDay) }

func (s Stamp) String() string {
	return epoch.Add(time.Duration(s) * time.Minute).Format("01-02 15:04")
}

func (s Stamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Stamp) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	t, err := time.Parse("01-02 15:04", raw)
	if err != nil {
		return err
	}

	// arrivals can run past 12-31, which String prints without a year
	at := time.Date(epoch.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if at.Before(epoch) {
		at = at.AddDate(1, 0, 0)
	}

	d := Day(at.Sub(epoch).Hours() / 24)
	*s = StampAt(d, t.Hour()*60+t.Minute())
	return nil
}
