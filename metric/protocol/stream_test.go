package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/Albibek/bioyino-metric/metric"
)

func TestStreamRoundTrip(t *testing.T) {
	metrics := []struct {
		name   string
		metric metric.Metric[float64]
	}{
		{"gorets", mustNew(t, 3.0, metric.TypeCounter[float64](), uint64p(10), float32p(0.1))},
		{"glork", mustNew(t, 2.0, metric.TypeTimer([]float64{1, 3}), nil, nil)},
		{"uniques", mustNew(t, 1.0, metric.TypeSet[float64]([]uint64{10, 20}), nil, nil)},
	}

	var buf bytes.Buffer
	enc := NewEncoder[float64](&buf)
	for _, m := range metrics {
		if err := enc.Encode([]byte(m.name), m.metric); err != nil {
			t.Fatalf("encode %s: %v", m.name, err)
		}
	}

	dec := NewDecoder[float64](&buf)
	for i := 0; ; i++ {
		mname, m, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			if i != len(metrics) {
				t.Fatalf("stream ended after %d records, expected %d", i, len(metrics))
			}
			break
		}
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		if i >= len(metrics) {
			t.Fatalf("decoded more records than encoded")
		}
		if mname.String() != metrics[i].name {
			t.Errorf("record %d: expected name %q, got %q", i, metrics[i].name, mname)
		}
		if !m.Equal(metrics[i].metric) {
			t.Errorf("record %d mismatch:\n  in:  %+v\n  out: %+v", i, metrics[i].metric, m)
		}
	}
}

func TestStreamTruncated(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder[float64](&buf)
	if err := enc.Encode([]byte("gorets"), mustNew(t, 1.0, metric.TypeCounter[float64](), nil, nil)); err != nil {
		t.Fatalf("encode: %v", err)
	}

	cut := buf.Bytes()[:buf.Len()-2]
	dec := NewDecoder[float64](bytes.NewReader(cut))
	if _, _, err := dec.Decode(); !errors.Is(err, metric.ErrDecode) {
		t.Fatalf("expected ErrDecode for a cut stream, got %v", err)
	}
}
