package metric

import (
	"fmt"
	"slices"

	"github.com/goccy/go-json"
)

// metricJSON is the JSON shape of a metric. The scalar always travels as a
// float64, whatever representation the aggregate is computed in.
type metricJSON struct {
	Value         float64  `json:"value"`
	Type          typeJSON `json:"type"`
	Timestamp     *uint64  `json:"timestamp,omitempty"`
	UpdateCounter uint32   `json:"update_counter"`
	Sampling      *float32 `json:"sampling,omitempty"`
}

type typeJSON struct {
	Kind     string    `json:"kind"`
	Previous *float64  `json:"previous,omitempty"`
	Timer    []float64 `json:"timer,omitempty"`
	Sign     *int8     `json:"sign,omitempty"`
	Set      []uint64  `json:"set,omitempty"`
}

// MarshalJSON encodes the metric including its full timer/set aggregation
// state. Set members are sorted for deterministic output.
func (m Metric[F]) MarshalJSON() ([]byte, error) {
	out := metricJSON{
		Value:         float64(m.Value),
		Timestamp:     m.Timestamp,
		UpdateCounter: m.UpdateCounter,
		Sampling:      m.Sampling,
	}
	out.Type.Kind = TypeNameOf(m).String()

	switch m.Type.kind {
	case KindDiffCounter:
		prev := float64(m.Type.prev)
		out.Type.Previous = &prev
	case KindTimer:
		out.Type.Timer = make([]float64, len(m.Type.agg))
		for i, v := range m.Type.agg {
			out.Type.Timer[i] = float64(v)
		}
	case KindGauge:
		out.Type.Sign = m.Type.sign
	case KindSet:
		values := m.Type.SetValues()
		slices.Sort(values)
		out.Type.Set = values
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a metric previously produced by MarshalJSON. The
// aggregation state is rebuilt directly from the document, never through New,
// so timer and set payloads are not re-seeded.
func (m *Metric[F]) UnmarshalJSON(data []byte) error {
	var in metricJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	tn, err := ParseTypeName(in.Type.Kind)
	if err != nil {
		return err
	}

	var mtype MetricType[F]
	switch tn {
	case TypeNameCounter:
		mtype = TypeCounter[F]()
	case TypeNameDiffCounter:
		var prev float64
		if in.Type.Previous != nil {
			prev = *in.Type.Previous
		}
		mtype = TypeDiffCounter(FromF64[F](prev))
	case TypeNameTimer:
		agg := make([]F, len(in.Type.Timer))
		for i, v := range in.Type.Timer {
			agg[i] = FromF64[F](v)
		}
		mtype = TypeTimer(agg)
	case TypeNameGauge:
		if in.Type.Sign != nil {
			mtype = TypeGaugeSigned[F](*in.Type.Sign)
		} else {
			mtype = TypeGauge[F]()
		}
	case TypeNameSet:
		mtype = TypeSet[F](in.Type.Set)
	default:
		return fmt.Errorf("%w: no metric variant for type name '%s'", ErrSchema, in.Type.Kind)
	}

	counter := in.UpdateCounter
	if counter == 0 {
		counter = 1
	}
	*m = Metric[F]{
		Value:         FromF64[F](in.Value),
		Type:          mtype,
		Timestamp:     in.Timestamp,
		UpdateCounter: counter,
		Sampling:      in.Sampling,
	}
	return nil
}
