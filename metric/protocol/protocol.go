// Package protocol is the wire codec for aggregated metrics: a lossless,
// self-describing binary record per metric, moved between processes at flush
// time (shard to aggregator, aggregator to aggregator).
//
// Records use the protobuf wire format against the schema in metric.proto.
// The encoding is deterministic: fields are written in field-number order and
// set members are sorted.
package protocol

import (
	"bytes"
	"fmt"
	"math"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/Albibek/bioyino-metric/metric"
	"github.com/Albibek/bioyino-metric/name"
)

// Field numbers of the Metric record, matching metric.proto.
const (
	fieldName protowire.Number = iota + 1
	fieldValue
	fieldCounter
	fieldDiffCounter
	fieldGauge
	fieldTimer
	fieldSet
	fieldTimestamp
	fieldMeta
)

const (
	gaugeFieldUnsigned protowire.Number = iota + 1
	gaugeFieldSigned
)

// Timer and Set submessages both carry their payload in field 1 as a packed
// list of fixed64 words.
const listFieldValues protowire.Number = 1

const (
	metaFieldSampling protowire.Number = iota + 1
	metaFieldUpdateCounter
)

// Marshal encodes one metric together with its raw name bytes. The name is
// opaque at this stage; tag segmentation happens on decode.
func Marshal[F metric.Float](rawName []byte, m metric.Metric[F]) []byte {
	return AppendMetric(nil, rawName, m)
}

// AppendMetric appends the encoded record to buf and returns the extended
// buffer.
func AppendMetric[F metric.Float](buf []byte, rawName []byte, m metric.Metric[F]) []byte {
	buf = protowire.AppendTag(buf, fieldName, protowire.BytesType)
	buf = protowire.AppendBytes(buf, rawName)

	buf = protowire.AppendTag(buf, fieldValue, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, math.Float64bits(float64(m.Value)))

	switch m.Type.Kind() {
	case metric.KindCounter:
		buf = protowire.AppendTag(buf, fieldCounter, protowire.VarintType)
		buf = protowire.AppendVarint(buf, 1)

	case metric.KindDiffCounter:
		buf = protowire.AppendTag(buf, fieldDiffCounter, protowire.Fixed64Type)
		buf = protowire.AppendFixed64(buf, math.Float64bits(float64(m.Type.Previous())))

	case metric.KindGauge:
		var g []byte
		if sign, ok := m.Type.GaugeSign(); ok {
			g = protowire.AppendTag(g, gaugeFieldSigned, protowire.VarintType)
			g = protowire.AppendVarint(g, protowire.EncodeZigZag(int64(sign)))
		} else {
			g = protowire.AppendTag(g, gaugeFieldUnsigned, protowire.VarintType)
			g = protowire.AppendVarint(g, 1)
		}
		buf = protowire.AppendTag(buf, fieldGauge, protowire.BytesType)
		buf = protowire.AppendBytes(buf, g)

	case metric.KindTimer:
		agg := m.Type.Timer()
		var t []byte
		if len(agg) > 0 {
			packed := make([]byte, 0, len(agg)*8)
			for _, v := range agg {
				packed = protowire.AppendFixed64(packed, math.Float64bits(float64(v)))
			}
			t = protowire.AppendTag(t, listFieldValues, protowire.BytesType)
			t = protowire.AppendBytes(t, packed)
		}
		buf = protowire.AppendTag(buf, fieldTimer, protowire.BytesType)
		buf = protowire.AppendBytes(buf, t)

	case metric.KindSet:
		values := m.Type.SetValues()
		slices.Sort(values)
		var s []byte
		if len(values) > 0 {
			packed := make([]byte, 0, len(values)*8)
			for _, v := range values {
				packed = protowire.AppendFixed64(packed, v)
			}
			s = protowire.AppendTag(s, listFieldValues, protowire.BytesType)
			s = protowire.AppendBytes(s, packed)
		}
		buf = protowire.AppendTag(buf, fieldSet, protowire.BytesType)
		buf = protowire.AppendBytes(buf, s)
	}

	if m.Timestamp != nil {
		buf = protowire.AppendTag(buf, fieldTimestamp, protowire.VarintType)
		buf = protowire.AppendVarint(buf, *m.Timestamp)
	}

	// The meta group is always written on encode; only decode has to
	// tolerate its absence.
	var mb []byte
	if m.Sampling != nil {
		mb = protowire.AppendTag(mb, metaFieldSampling, protowire.Fixed32Type)
		mb = protowire.AppendFixed32(mb, math.Float32bits(*m.Sampling))
	}
	mb = protowire.AppendTag(mb, metaFieldUpdateCounter, protowire.VarintType)
	mb = protowire.AppendVarint(mb, uint64(m.UpdateCounter))
	buf = protowire.AppendTag(buf, fieldMeta, protowire.BytesType)
	buf = protowire.AppendBytes(buf, mb)

	return buf
}

// Unmarshal decodes one record into the metric and its name, segmented with
// the graphite tag format. The metric is rebuilt directly from the wire
// fields, never through metric.New: going through the constructor would seed
// the just-decoded value into timer/set state a second time.
//
// A record without a type arm fails with metric.ErrSchema; malformed bytes
// fail with metric.ErrDecode. Unknown fields are skipped.
func Unmarshal[F metric.Float](data []byte) (name.MetricName, metric.Metric[F], error) {
	var (
		rawName   []byte
		value     float64
		mtype     metric.MetricType[F]
		typeSeen  bool
		timestamp *uint64
		sampling  *float32
		counter   uint32
		metaSeen  bool
	)

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return name.MetricName{}, metric.Metric[F]{}, decodeErr(n)
		}
		data = data[n:]

		switch num {
		case fieldName:
			v, n, err := consumeBytes(data, typ)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			rawName = bytes.Clone(v)
			data = data[n:]

		case fieldValue:
			v, n, err := consumeFixed64(data, typ)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			value = math.Float64frombits(v)
			data = data[n:]

		case fieldCounter:
			_, n, err := consumeVarint(data, typ)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			mtype = metric.TypeCounter[F]()
			typeSeen = true
			data = data[n:]

		case fieldDiffCounter:
			v, n, err := consumeFixed64(data, typ)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			mtype = metric.TypeDiffCounter(metric.FromF64[F](math.Float64frombits(v)))
			typeSeen = true
			data = data[n:]

		case fieldGauge:
			v, n, err := consumeBytes(data, typ)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			mtype, err = unmarshalGauge[F](v)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			typeSeen = true
			data = data[n:]

		case fieldTimer:
			v, n, err := consumeBytes(data, typ)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			words, err := unmarshalPacked(v)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			agg := make([]F, len(words))
			for i, w := range words {
				agg[i] = metric.FromF64[F](math.Float64frombits(w))
			}
			mtype = metric.TypeTimer(agg)
			typeSeen = true
			data = data[n:]

		case fieldSet:
			v, n, err := consumeBytes(data, typ)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			words, err := unmarshalPacked(v)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			mtype = metric.TypeSet[F](words)
			typeSeen = true
			data = data[n:]

		case fieldTimestamp:
			v, n, err := consumeVarint(data, typ)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			ts := v
			timestamp = &ts
			data = data[n:]

		case fieldMeta:
			v, n, err := consumeBytes(data, typ)
			if err != nil {
				return name.MetricName{}, metric.Metric[F]{}, err
			}
			var err2 error
			sampling, counter, err2 = unmarshalMeta(v)
			if err2 != nil {
				return name.MetricName{}, metric.Metric[F]{}, err2
			}
			metaSeen = true
			data = data[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return name.MetricName{}, metric.Metric[F]{}, decodeErr(n)
			}
			data = data[n:]
		}
	}

	if !typeSeen {
		return name.MetricName{}, metric.Metric[F]{}, fmt.Errorf("%w: metric type missing", metric.ErrSchema)
	}
	if !metaSeen {
		counter = 1
	}

	m := metric.Metric[F]{
		Value:         metric.FromF64[F](value),
		Type:          mtype,
		Timestamp:     timestamp,
		UpdateCounter: counter,
		Sampling:      sampling,
	}
	mname := name.New(rawName, name.TagFormatGraphite)
	return mname, m, nil
}

func unmarshalGauge[F metric.Float](data []byte) (metric.MetricType[F], error) {
	var (
		mtype metric.MetricType[F]
		seen  bool
	)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return mtype, decodeErr(n)
		}
		data = data[n:]

		switch num {
		case gaugeFieldUnsigned:
			_, n, err := consumeVarint(data, typ)
			if err != nil {
				return mtype, err
			}
			mtype = metric.TypeGauge[F]()
			seen = true
			data = data[n:]
		case gaugeFieldSigned:
			v, n, err := consumeVarint(data, typ)
			if err != nil {
				return mtype, err
			}
			mtype = metric.TypeGaugeSigned[F](int8(protowire.DecodeZigZag(v)))
			seen = true
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return mtype, decodeErr(n)
			}
			data = data[n:]
		}
	}
	if !seen {
		return mtype, fmt.Errorf("%w: gauge direction missing", metric.ErrSchema)
	}
	return mtype, nil
}

// unmarshalPacked reads a Timer/Set submessage: packed fixed64 words in
// field 1, possibly split across several occurrences.
func unmarshalPacked(data []byte) ([]uint64, error) {
	words := []uint64{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, decodeErr(n)
		}
		data = data[n:]

		if num != listFieldValues {
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, decodeErr(n)
			}
			data = data[n:]
			continue
		}

		packed, n, err := consumeBytes(data, typ)
		if err != nil {
			return nil, err
		}
		data = data[n:]
		if len(packed)%8 != 0 {
			return nil, fmt.Errorf("%w: truncated packed list", metric.ErrDecode)
		}
		for len(packed) > 0 {
			v, vn := protowire.ConsumeFixed64(packed)
			if vn < 0 {
				return nil, decodeErr(vn)
			}
			words = append(words, v)
			packed = packed[vn:]
		}
	}
	return words, nil
}

func unmarshalMeta(data []byte) (*float32, uint32, error) {
	var (
		sampling *float32
		counter  uint32
	)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, 0, decodeErr(n)
		}
		data = data[n:]

		switch num {
		case metaFieldSampling:
			v, n, err := consumeFixed32(data, typ)
			if err != nil {
				return nil, 0, err
			}
			s := math.Float32frombits(v)
			sampling = &s
			data = data[n:]
		case metaFieldUpdateCounter:
			v, n, err := consumeVarint(data, typ)
			if err != nil {
				return nil, 0, err
			}
			counter = uint32(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, 0, decodeErr(n)
			}
			data = data[n:]
		}
	}
	return sampling, counter, nil
}

func consumeVarint(data []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, wireTypeErr(typ)
	}
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, 0, decodeErr(n)
	}
	return v, n, nil
}

func consumeFixed64(data []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.Fixed64Type {
		return 0, 0, wireTypeErr(typ)
	}
	v, n := protowire.ConsumeFixed64(data)
	if n < 0 {
		return 0, 0, decodeErr(n)
	}
	return v, n, nil
}

func consumeFixed32(data []byte, typ protowire.Type) (uint32, int, error) {
	if typ != protowire.Fixed32Type {
		return 0, 0, wireTypeErr(typ)
	}
	v, n := protowire.ConsumeFixed32(data)
	if n < 0 {
		return 0, 0, decodeErr(n)
	}
	return v, n, nil
}

func consumeBytes(data []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, wireTypeErr(typ)
	}
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, decodeErr(n)
	}
	return v, n, nil
}

func decodeErr(n int) error {
	return fmt.Errorf("%w: %v", metric.ErrDecode, protowire.ParseError(n))
}

func wireTypeErr(typ protowire.Type) error {
	return fmt.Errorf("%w: unexpected wire type %d", metric.ErrDecode, typ)
}
