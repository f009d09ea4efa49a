// Package histogram plans the time buckets used by KPI histograms.
package histogram

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInterval is returned when an interval string cannot be parsed.
var ErrInvalidInterval = errors.New("invalid interval")

var intervalUnits = map[string]time.Duration{
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
	"w":  7 * 24 * time.Hour,
}

// ParseInterval converts a dashboard interval such as "12h", "30s" or "1d"
// into a duration. The multiplier must be a positive integer.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidInterval)
	}

	split := len(s)
	for i, c := range s {
		if c < '0' || c > '9' {
			split = i
			break
		}
	}
	if split == 0 || split == len(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}

	n, err := strconv.ParseInt(s[:split], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	unit, ok := intervalUnits[s[split:]]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidInterval, s)
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidInterval, s)
	}
	return time.Duration(n) * unit, nil
}

// FormatInterval renders a duration in the largest unit that divides it
// exactly, the inverse of ParseInterval.
func FormatInterval(d time.Duration) string {
	for _, u := range []struct {
		suffix string
		unit   time.Duration
	}{
		{"w", intervalUnits["w"]},
		{"d", intervalUnits["d"]},
		{"h", time.Hour},
		{"m", time.Minute},
		{"s", time.Second},
	} {
		if d >= u.unit && d%u.unit == 0 {
			return strconv.FormatInt(int64(d/u.unit), 10) + u.suffix
		}
	}
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}
