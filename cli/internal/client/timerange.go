package client

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseTimeRange resolves --last or --from/--to into a window. last takes
// precedence; from defaults to 24 hours before to, and to defaults to now.
func ParseTimeRange(from, to, last string, now time.Time) (time.Time, time.Time, error) {
	if last != "" {
		d, err := ParseDuration(last)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'last' duration: %w", err)
		}
		return now.Add(-d), now, nil
	}

	end := now
	if to != "" {
		t, err := parseTimeSpec(to, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'to': %w", err)
		}
		end = t
	}

	start := end.Add(-24 * time.Hour)
	if from != "" {
		t, err := parseTimeSpec(from, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'from': %w", err)
		}
		start = t
	}
	return start, end, nil
}

// ParseDuration parses duration strings like "1h", "24h", "7d" or "2w".
func ParseDuration(s string) (time.Duration, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("empty duration")
	}

	unit := 24 * time.Hour
	switch s[len(s)-1] {
	case 'w':
		unit *= 7
		fallthrough
	case 'd':
		n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid number: %s", s)
		}
		if n > math.MaxInt64/int64(unit) {
			return 0, fmt.Errorf("duration out of range: %s", s)
		}
		return time.Duration(n) * unit, nil
	}
	return time.ParseDuration(s)
}

// parseTimeSpec accepts "now", relative offsets such as "-1h", epoch
// milliseconds, RFC3339 and a few common date layouts.
func parseTimeSpec(s string, now time.Time) (time.Time, error) {
	if s == "now" {
		return now, nil
	}

	if strings.HasPrefix(s, "-") {
		d, err := ParseDuration(s[1:])
		if err != nil {
			return time.Time{}, err
		}
		return now.Add(-d), nil
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, f := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
