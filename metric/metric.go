// Package metric implements the value core of a statsd-family metrics
// aggregation pipeline: the in-memory representation of a single metric
// aggregate, the rules for folding repeated observations of the same metric
// into it, and the error taxonomy shared by the codec and ingestion layers.
//
// The package is deliberately concurrency-free: every operation is a
// synchronous transformation over owned data, so a surrounding aggregator can
// shard metric keys across workers and only needs one critical section per
// key per Accumulate call.
package metric

import "math"

// Float is the scalar representation a metric aggregate is computed in.
// The wire format always carries float64; narrower representations are
// widened through FromF64.
type Float interface {
	float32 | float64
}

// Kind identifies the aggregation family of a metric.
type Kind int

const (
	// KindCounter is a monotonically accumulating sum.
	KindCounter Kind = iota
	// KindDiffCounter is a counter derived from a monotonically increasing
	// external reading; it carries the previous raw reading as state.
	KindDiffCounter
	// KindTimer is an insertion-ordered multiset of observed durations,
	// kept whole for later percentile computation.
	KindTimer
	// KindGauge is a point-in-time value with an optional relative
	// increment/decrement direction.
	KindGauge
	// KindSet is a deduplicated set of distinct observed values, keyed by
	// the 64-bit bit pattern of each value.
	KindSet
)

// String returns the registry name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindDiffCounter:
		return "diff-counter"
	case KindTimer:
		return "timer"
	case KindGauge:
		return "gauge"
	case KindSet:
		return "set"
	}
	return "unknown"
}

// MetricType holds the variant tag of a metric together with the
// per-family aggregation state. Values are built through the Type*
// constructors; the zero value is a plain counter.
type MetricType[F Float] struct {
	kind Kind
	prev F                   // DiffCounter: previous raw reading
	agg  []F                 // Timer: observed values in insertion order
	sign *int8               // Gauge: nil for absolute, otherwise +1 or -1
	set  map[uint64]struct{} // Set: float64 bit patterns
}

// TypeCounter returns the counter variant.
func TypeCounter[F Float]() MetricType[F] {
	return MetricType[F]{kind: KindCounter}
}

// TypeDiffCounter returns the diff-counter variant seeded with the previous
// raw reading.
func TypeDiffCounter[F Float](prev F) MetricType[F] {
	return MetricType[F]{kind: KindDiffCounter, prev: prev}
}

// TypeTimer returns the timer variant. The slice is adopted as the
// aggregation state, it must not be mutated by the caller afterwards.
func TypeTimer[F Float](agg []F) MetricType[F] {
	return MetricType[F]{kind: KindTimer, agg: agg}
}

// TypeGauge returns the absolute (direction-less) gauge variant.
func TypeGauge[F Float]() MetricType[F] {
	return MetricType[F]{kind: KindGauge}
}

// TypeGaugeSigned returns the relative gauge variant. Only +1 and -1 are
// meaningful directions; anything else is rejected at merge time.
func TypeGaugeSigned[F Float](sign int8) MetricType[F] {
	return MetricType[F]{kind: KindGauge, sign: &sign}
}

// TypeSet returns the set variant populated with the given bit patterns.
func TypeSet[F Float](values []uint64) MetricType[F] {
	set := make(map[uint64]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return MetricType[F]{kind: KindSet, set: set}
}

// Kind returns the variant tag.
func (t MetricType[F]) Kind() Kind { return t.kind }

// Previous returns the last raw reading of a diff-counter. It is only
// meaningful when Kind is KindDiffCounter.
func (t MetricType[F]) Previous() F { return t.prev }

// Timer returns the observed timer values in insertion order. The returned
// slice is the live aggregation state and must not be mutated.
func (t MetricType[F]) Timer() []F { return t.agg }

// GaugeSign returns the gauge direction and whether one is set.
func (t MetricType[F]) GaugeSign() (int8, bool) {
	if t.sign == nil {
		return 0, false
	}
	return *t.sign, true
}

// SetLen returns the number of distinct values in a set metric.
func (t MetricType[F]) SetLen() int { return len(t.set) }

// SetContains reports whether the set holds the given bit pattern.
func (t MetricType[F]) SetContains(bits uint64) bool {
	_, ok := t.set[bits]
	return ok
}

// SetValues returns the distinct bit patterns of a set metric. The order is
// unspecified.
func (t MetricType[F]) SetValues() []uint64 {
	values := make([]uint64, 0, len(t.set))
	for bits := range t.set {
		values = append(values, bits)
	}
	return values
}

// Metric is one aggregation slot: a typed, optionally timestamped metric
// value (without its name). Names travel alongside metrics and are handled
// by the name package.
//
// A Metric is created once per distinct raw sample via New, mutated in place
// by Accumulate as further samples for the same key arrive within an
// aggregation window, and read out by the wire codec at flush time.
type Metric[F Float] struct {
	// Value is the current aggregate scalar. Its meaning depends on the
	// variant: running sum for counters, last observed value for gauges
	// and timers.
	Value F

	// Type is the variant and its auxiliary aggregation state. It never
	// changes across the lifetime of the metric; only metrics of the same
	// kind may be merged.
	Type MetricType[F]

	// Timestamp is the event time if one is known. A nil timestamp means
	// the consumer decides (usually ingestion time).
	Timestamp *uint64

	// UpdateCounter counts the raw samples folded into this aggregate.
	// It starts at 1 for a fresh sample and is summed across merges; it is
	// used downstream to reconstruct sampling-corrected rates.
	UpdateCounter uint32

	// Sampling is the client-declared sampling rate. It is carried through
	// but never applied arithmetically by this package.
	Sampling *float32
}

// New creates a metric from a single raw sample. Timer metrics get the value
// pushed into their sequence and set metrics get its bit pattern inserted,
// so the aggregation state is never empty once a value exists.
func New[F Float](value F, mtype MetricType[F], timestamp *uint64, sampling *float32) (Metric[F], error) {
	m := Metric[F]{
		Value:         value,
		Type:          mtype,
		Timestamp:     timestamp,
		Sampling:      sampling,
		UpdateCounter: 1,
	}

	switch m.Type.kind {
	case KindTimer:
		m.Type.agg = append(m.Type.agg, value)
	case KindSet:
		if m.Type.set == nil {
			m.Type.set = make(map[uint64]struct{}, 1)
		}
		m.Type.set[math.Float64bits(float64(value))] = struct{}{}
	}
	return m, nil
}

// Accumulate merges an incoming metric for the same key into m.
//
// The update counter is summed unconditionally before the kinds are matched,
// so even a rejected merge leaves it summed; a caller that receives
// ErrAggregating must treat the merge as rejected and drop the incoming
// sample.
//
// The merge is associative and commutative for every kind except
// diff-counter: its previous-reading state depends on merge order, which is
// at odds with multi-stage re-merging. This is inherited behavior, kept
// rather than replaced; downstream users must not assume associativity for
// diff-counters.
func (m *Metric[F]) Accumulate(next Metric[F]) error {
	m.UpdateCounter += next.UpdateCounter
	switch {
	case m.Type.kind == KindCounter && next.Type.kind == KindCounter:
		m.Value += next.Value

	case m.Type.kind == KindDiffCounter && next.Type.kind == KindDiffCounter:
		// A reading below the previous one means the external counter
		// was reset; the whole new reading counts as the diff.
		prev := m.Type.prev
		diff := next.Value
		if next.Value > prev {
			diff = next.Value - prev
		}
		m.Type.prev = next.Value
		m.Value += diff

	case m.Type.kind == KindGauge && next.Type.kind == KindGauge:
		switch {
		case next.Type.sign == nil:
			m.Value = next.Value
		case *next.Type.sign == 1:
			m.Value += next.Value
		case *next.Type.sign == -1:
			m.Value -= next.Value
		default:
			return ErrAggregating
		}

	case m.Type.kind == KindTimer && next.Type.kind == KindTimer:
		m.Value = next.Value
		m.Type.agg = append(m.Type.agg, next.Type.agg...)

	case m.Type.kind == KindSet && next.Type.kind == KindSet:
		for bits := range next.Type.set {
			m.Type.set[bits] = struct{}{}
		}

	default:
		return ErrAggregating
	}
	return nil
}

// Equal reports whether two metrics hold the same aggregate, including the
// full timer and set aggregation state.
func (m Metric[F]) Equal(other Metric[F]) bool {
	if m.Value != other.Value ||
		m.UpdateCounter != other.UpdateCounter ||
		m.Type.kind != other.Type.kind {
		return false
	}
	if (m.Timestamp == nil) != (other.Timestamp == nil) {
		return false
	}
	if m.Timestamp != nil && *m.Timestamp != *other.Timestamp {
		return false
	}
	if (m.Sampling == nil) != (other.Sampling == nil) {
		return false
	}
	if m.Sampling != nil && *m.Sampling != *other.Sampling {
		return false
	}

	switch m.Type.kind {
	case KindDiffCounter:
		return m.Type.prev == other.Type.prev
	case KindTimer:
		if len(m.Type.agg) != len(other.Type.agg) {
			return false
		}
		for i, v := range m.Type.agg {
			if other.Type.agg[i] != v {
				return false
			}
		}
	case KindGauge:
		ms, mok := m.GaugeSign()
		os, ook := other.GaugeSign()
		return mok == ook && ms == os
	case KindSet:
		if len(m.Type.set) != len(other.Type.set) {
			return false
		}
		for bits := range m.Type.set {
			if _, ok := other.Type.set[bits]; !ok {
				return false
			}
		}
	}
	return true
}

// GaugeSign is a shorthand for m.Type.GaugeSign.
func (m Metric[F]) GaugeSign() (int8, bool) { return m.Type.GaugeSign() }
