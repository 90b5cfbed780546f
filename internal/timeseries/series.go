package timeseries

import (
	"sort"
	"time"

	"github.com/salescast/salescast-api/internal/utils"
)

// MinPeriods is the smallest number of aggregated periods any forecasting
// strategy can fit meaningfully.
const MinPeriods = 3

// Row is a raw (timestamp, amount) observation from the sales schema.
// Multiple rows may share the same truncated period.
type Row struct {
	Timestamp time.Time
	Amount    float64
}

// Point is one aggregated entry of a time series.
type Point struct {
	Period time.Time
	Value  float64
}

// Series is a strictly ordered, deduplicated, gap-free time series indexed by
// calendar period. It is immutable after construction: transformations yield
// new slices, never mutate the backing points.
type Series struct {
	freq   Frequency
	points []Point
}

// Build aggregates raw rows into a Series at the given frequency.
// Timestamps are normalized to UTC and truncated to their period; amounts
// sharing a truncated period are summed. Interior periods with no sales are
// zero-filled so that consecutive points are exactly one frequency step
// apart. Returns utils.ErrInsufficientHistory when fewer than MinPeriods
// aggregated periods exist.
func Build(rows []Row, freq Frequency) (*Series, error) {
	if len(rows) == 0 {
		return nil, utils.ErrNoData
	}

	totals := make(map[time.Time]float64, len(rows))
	for _, r := range rows {
		period := freq.Truncate(r.Timestamp)
		totals[period] += r.Amount
	}

	periods := make([]time.Time, 0, len(totals))
	for p := range totals {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	if len(periods) < MinPeriods {
		return nil, utils.ErrInsufficientHistory
	}

	// Zero-fill interior gaps: the SQL aggregation omits periods with no
	// sales, but a period without orders is a real zero observation.
	points := make([]Point, 0, len(periods))
	for cur := periods[0]; !cur.After(periods[len(periods)-1]); cur = freq.Next(cur) {
		points = append(points, Point{Period: cur, Value: totals[cur]})
	}

	return &Series{freq: freq, points: points}, nil
}

// Len returns the number of periods in the series.
func (s *Series) Len() int { return len(s.points) }

// Frequency returns the series' cadence.
func (s *Series) Frequency() Frequency { return s.freq }

// At returns the i-th point.
func (s *Series) At(i int) Point { return s.points[i] }

// Last returns the most recent point.
func (s *Series) Last() Point { return s.points[len(s.points)-1] }

// Values returns a copy of the aggregate values in period order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Value
	}
	return out
}

// Periods returns a copy of the period starts in ascending order.
func (s *Series) Periods() []time.Time {
	out := make([]time.Time, len(s.points))
	for i, p := range s.points {
		out[i] = p.Period
	}
	return out
}

// FuturePeriods returns the next n periods strictly continuing the series.
func (s *Series) FuturePeriods(n int) []time.Time {
	out := make([]time.Time, 0, n)
	cur := s.Last().Period
	for i := 0; i < n; i++ {
		cur = s.freq.Next(cur)
		out = append(out, cur)
	}
	return out
}
