package histogram

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyRange is returned when from is not strictly before to.
	ErrEmptyRange = errors.New("time range is empty")

	// ErrTooManyBuckets is returned when a fixed plan exceeds the bucket limit.
	ErrTooManyBuckets = errors.New("too many buckets")
)

// Plan is a partition of [From, To) into contiguous buckets of width
// Interval. The last bucket is truncated at To. All arithmetic is done in
// epoch milliseconds, the resolution used on the wire.
type Plan struct {
	From     time.Time
	To       time.Time
	Interval time.Duration
	// Auto is set when the plan was derived from the data span rather than
	// taken verbatim from the request.
	Auto bool
}

// NewPlan builds a fixed plan. maxBuckets <= 0 disables the limit.
func NewPlan(from, to time.Time, interval time.Duration, maxBuckets int) (Plan, error) {
	if interval < time.Millisecond {
		return Plan{}, fmt.Errorf("%w: must be at least 1ms", ErrInvalidInterval)
	}
	fromMs, toMs := from.UnixMilli(), to.UnixMilli()
	if fromMs >= toMs {
		return Plan{}, ErrEmptyRange
	}

	p := Plan{
		From:     time.UnixMilli(fromMs).UTC(),
		To:       time.UnixMilli(toMs).UTC(),
		Interval: interval.Truncate(time.Millisecond),
	}
	if maxBuckets > 0 && p.count() > int64(maxBuckets) {
		return Plan{}, fmt.Errorf("%w: %d buckets of %s exceed limit %d",
			ErrTooManyBuckets, p.count(), FormatInterval(p.Interval), maxBuckets)
	}
	return p, nil
}

func (p Plan) intervalMillis() int64 {
	return p.Interval.Milliseconds()
}

func (p Plan) count() int64 {
	iv := p.intervalMillis()
	if iv <= 0 {
		return 0
	}
	span := p.To.UnixMilli() - p.From.UnixMilli()
	if span <= 0 {
		return 0
	}
	return (span + iv - 1) / iv
}

// Count is ceil((To-From)/Interval).
func (p Plan) Count() int {
	return int(p.count())
}

// Starts returns the start of every bucket in order.
func (p Plan) Starts() []time.Time {
	n := p.count()
	starts := make([]time.Time, 0, n)
	from, iv := p.From.UnixMilli(), p.intervalMillis()
	for i := int64(0); i < n; i++ {
		starts = append(starts, time.UnixMilli(from+i*iv).UTC())
	}
	return starts
}

// Index returns the bucket holding t, or -1 when t is outside [From, To).
func (p Plan) Index(t time.Time) int {
	ms := t.UnixMilli()
	if ms < p.From.UnixMilli() || ms >= p.To.UnixMilli() {
		return -1
	}
	return int((ms - p.From.UnixMilli()) / p.intervalMillis())
}

// IndexMillis is Index for a bucket key expressed in epoch milliseconds.
func (p Plan) IndexMillis(ms int64) int {
	return p.Index(time.UnixMilli(ms))
}

// OffsetMillis is the shift, relative to the epoch, that aligns fixed
// interval buckets on From.
func (p Plan) OffsetMillis() int64 {
	iv := p.intervalMillis()
	if iv <= 0 {
		return 0
	}
	return ((p.From.UnixMilli() % iv) + iv) % iv
}

// LastStart is the start of the final bucket.
func (p Plan) LastStart() time.Time {
	n := p.count()
	if n == 0 {
		return p.From
	}
	return time.UnixMilli(p.From.UnixMilli() + (n-1)*p.intervalMillis()).UTC()
}

// String renders the plan for logs.
func (p Plan) String() string {
	mode := "fixed"
	if p.Auto {
		mode = "auto"
	}
	return fmt.Sprintf("%s %d x %s from %s", mode, p.Count(), FormatInterval(p.Interval), p.From.Format(time.RFC3339))
}
