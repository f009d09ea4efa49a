package histogram

import "time"

// Span is the observed extent of events in a range. A zero Span means no
// events matched.
type Span struct {
	First time.Time
	Last  time.Time
}

// IsZero reports whether the span holds no events.
func (s Span) IsZero() bool {
	return s.First.IsZero() && s.Last.IsZero()
}

type rung struct {
	unit     time.Duration // rounding applied to the first event
	multiple int64
}

func (r rung) interval() time.Duration {
	return r.unit * time.Duration(r.multiple)
}

const day = 24 * time.Hour

// Calendar months and years are approximated by fixed 30 and 365 day widths
// so every bucket in a plan has the same width.
var ladder = []rung{
	{time.Second, 1}, {time.Second, 5}, {time.Second, 10}, {time.Second, 30},
	{time.Minute, 1}, {time.Minute, 5}, {time.Minute, 10}, {time.Minute, 30},
	{time.Hour, 1}, {time.Hour, 3}, {time.Hour, 12},
	{day, 1}, {day, 7},
	{30 * day, 1},
	{365 * day, 1}, {365 * day, 5}, {365 * day, 10}, {365 * day, 20}, {365 * day, 50}, {365 * day, 100},
}

func floorMillis(ms, unit int64) int64 {
	r := ms % unit
	if r < 0 {
		r += unit
	}
	return ms - r
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// AutoPlan picks a plan of at most target buckets covering the events in
// span, clamped to [from, to). Bucket starts are aligned on the rounding unit
// of the chosen rung, beginning at the first event. When span is empty the
// whole requested range is covered instead.
func AutoPlan(span Span, from, to time.Time, target int) Plan {
	if target <= 0 {
		target = 1
	}
	fromMs, toMs := from.UnixMilli(), to.UnixMilli()

	bounds := func(r rung) (int64, int64) {
		if span.IsZero() {
			return fromMs, toMs
		}
		start := floorMillis(span.First.UnixMilli(), r.unit.Milliseconds())
		if start < fromMs {
			start = fromMs
		}
		end := span.Last.UnixMilli() + 1
		if end > toMs {
			end = toMs
		}
		if end <= start {
			end = start + 1
		}
		return start, end
	}

	for _, r := range ladder {
		start, end := bounds(r)
		iv := r.interval().Milliseconds()
		if ceilDiv(end-start, iv) <= int64(target) {
			return Plan{
				From:     time.UnixMilli(start).UTC(),
				To:       time.UnixMilli(end).UTC(),
				Interval: r.interval(),
				Auto:     true,
			}
		}
	}

	last := ladder[len(ladder)-1]
	start, end := bounds(last)
	iv := last.interval().Milliseconds()
	k := ceilDiv(end-start, iv*int64(target))
	// time.Duration tops out near 292 years.
	if maxK := int64(1<<63-1) / int64(time.Millisecond) / iv; k > maxK {
		k = maxK
	}
	return Plan{
		From:     time.UnixMilli(start).UTC(),
		To:       time.UnixMilli(end).UTC(),
		Interval: time.Duration(iv*k) * time.Millisecond,
		Auto:     true,
	}
}
