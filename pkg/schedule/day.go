package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// Day keys a weekday partition.
type Day string

const (
	Monday    Day = "mon"
	Tuesday   Day = "tue"
	Wednesday Day = "wed"
	Thursday  Day = "thu"
	Friday    Day = "fri"
	Saturday  Day = "sat"
)

// Days is the fixed, ordered set of partitions every selection subscribes to.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var displayNames = map[Day]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
}

// ErrUnknownDay is returned by ParseDay for anything outside Days.
var ErrUnknownDay = errors.New("schedule: unknown day")

// ParseDay accepts a day key or display name ("wed", "Wednesday", "WED").
// Only the first three letters are significant.
func ParseDay(s string) (Day, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if len(key) > 3 {
		key = key[:3]
	}
	d := Day(key)
	if _, ok := displayNames[d]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownDay, s)
	}
	return d, nil
}

// DisplayName is the full weekday name.
func (d Day) DisplayName() string {
	if name, ok := displayNames[d]; ok {
		return name
	}
	return string(d)
}

func (d Day) String() string {
	return string(d)
}
