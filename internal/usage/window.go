package usage

import (
	"errors"
	"fmt"
	"time"
)

// Report modes
const (
	ModeToday     = "today"
	ModeYesterday = "yesterday"
	ModeWeek      = "week"
	ModeLast7     = "last7"
	ModeEver      = "ever"
	ModeRange     = "range"
)

const dateLayout = "2006-01-02"

// ErrUnknownMode is returned for a mode outside today|yesterday|week|last7|ever|range
var ErrUnknownMode = errors.New("unknown mode")

// Window is a half-open interval [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the millisecond timestamp falls in the window
func (w Window) Contains(ms int64) bool {
	return ms >= w.Start.UnixMilli() && ms < w.End.UnixMilli()
}

// StartOfDay returns local midnight of the given date in loc
func StartOfDay(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", date, err)
	}
	return d, nil
}

// LocalDate formats t as YYYY-MM-DD in loc
func LocalDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// ResolveWindow turns a mode into a time window relative to now. Day
// boundaries are local midnights in loc; range is inclusive of both dates.
func ResolveWindow(mode, start, end string, loc *time.Location, now time.Time) (Window, error) {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch mode {
	case ModeEver:
		return Window{Start: time.UnixMilli(0), End: now}, nil
	case ModeToday, "":
		return Window{Start: midnight, End: now}, nil
	case ModeYesterday:
		return Window{Start: midnight.AddDate(0, 0, -1), End: midnight}, nil
	case ModeWeek, ModeLast7:
		return Window{Start: now.Add(-7 * 24 * time.Hour), End: now}, nil
	case ModeRange:
		if start == "" || end == "" {
			return Window{}, errors.New("range needs a start and an end date (YYYY-MM-DD)")
		}
		s, err := StartOfDay(start, loc)
		if err != nil {
			return Window{}, err
		}
		e, err := StartOfDay(end, loc)
		if err != nil {
			return Window{}, err
		}
		return Window{Start: s, End: e.AddDate(0, 0, 1)}, nil
	}
	return Window{}, fmt.Errorf("%w: %s. Use today|yesterday|week|ever|range YYYY-MM-DD YYYY-MM-DD", ErrUnknownMode, mode)
}
