package parser

import (
	"errors"
	"testing"

	"github.com/Albibek/bioyino-metric/metric"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind metric.Kind
		wantVal  float64
		wantSign *int8
		wantRate *float32
	}{
		{
			name:     "counter",
			line:     "gorets:1|c",
			wantKind: metric.KindCounter,
			wantVal:  1,
		},
		{
			name:     "counter sampled",
			line:     "gorets:1|c|@0.1",
			wantKind: metric.KindCounter,
			wantVal:  1,
			wantRate: float32p(0.1),
		},
		{
			name:     "gauge absolute",
			line:     "gaugor:333|g",
			wantKind: metric.KindGauge,
			wantVal:  333,
		},
		{
			name:     "gauge increment",
			line:     "gaugor:+10|g",
			wantKind: metric.KindGauge,
			wantVal:  10,
			wantSign: int8p(1),
		},
		{
			name:     "gauge decrement",
			line:     "gaugor:-4|g",
			wantKind: metric.KindGauge,
			wantVal:  4,
			wantSign: int8p(-1),
		},
		{
			name:     "timer",
			line:     "glork:320|ms",
			wantKind: metric.KindTimer,
			wantVal:  320,
		},
		{
			name:     "set",
			line:     "uniques:765|s",
			wantKind: metric.KindSet,
			wantVal:  765,
		},
		{
			name:     "negative counter",
			line:     "gorets:-5|c",
			wantKind: metric.KindCounter,
			wantVal:  -5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseLine[float64]([]byte(tt.line))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if s.Metric.Type.Kind() != tt.wantKind {
				t.Errorf("expected kind %v, got %v", tt.wantKind, s.Metric.Type.Kind())
			}
			if s.Metric.Value != tt.wantVal {
				t.Errorf("expected value %v, got %v", tt.wantVal, s.Metric.Value)
			}
			if s.Metric.UpdateCounter != 1 {
				t.Errorf("expected update counter 1, got %d", s.Metric.UpdateCounter)
			}
			sign, signed := s.Metric.GaugeSign()
			if (tt.wantSign != nil) != signed {
				t.Errorf("expected signed=%v, got %v", tt.wantSign != nil, signed)
			} else if tt.wantSign != nil && sign != *tt.wantSign {
				t.Errorf("expected sign %d, got %d", *tt.wantSign, sign)
			}
			if (tt.wantRate != nil) != (s.Metric.Sampling != nil) {
				t.Errorf("sampling presence mismatch")
			} else if tt.wantRate != nil && *s.Metric.Sampling != *tt.wantRate {
				t.Errorf("expected sampling %v, got %v", *tt.wantRate, *s.Metric.Sampling)
			}
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"no colon", "gorets|c", ErrBadLine},
		{"empty name", ":1|c", ErrBadLine},
		{"no sections", "gorets:1", ErrBadLine},
		{"too many sections", "gorets:1|c|@0.1|x", ErrBadLine},
		{"empty value", "gorets:|c", ErrBadLine},
		{"bad value", "gorets:abc|c", ErrBadValue},
		{"bad rate literal", "gorets:1|c|@abc", metric.ErrFloatToRatio},
		{"rate zero", "gorets:1|c|@0", metric.ErrSampling},
		{"rate above one", "gorets:1|c|@1.5", metric.ErrSampling},
		{"rate without at", "gorets:1|c|0.1", ErrBadLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine[float64]([]byte(tt.line))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseLineUnknownType(t *testing.T) {
	_, err := ParseLine[float64]([]byte("gorets:1|q"))
	var bad *metric.BadTypeNameError
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadTypeNameError, got %v", err)
	}
	if bad.Name != "q" {
		t.Errorf("expected offending type 'q', got %q", bad.Name)
	}
}

func TestParseBatch(t *testing.T) {
	data := []byte("gorets:1|c\nbroken line\nglork:320|ms\n\ngaugor:+4|g")

	samples, err := Parse[float64](data)
	if err == nil {
		t.Error("expected an error for the broken line")
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if string(samples[0].Name) != "gorets" || string(samples[1].Name) != "glork" || string(samples[2].Name) != "gaugor" {
		t.Errorf("unexpected sample names: %q %q %q", samples[0].Name, samples[1].Name, samples[2].Name)
	}
}

func TestParseAllGood(t *testing.T) {
	samples, err := Parse[float64]([]byte("a:1|c\nb:2|c\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
}

func int8p(v int8) *int8          { return &v }
func float32p(v float32) *float32 { return &v }

// Benchmarks
func BenchmarkParseLine(b *testing.B) {
	line := []byte("some.deep.metric.name:320|ms|@0.5")

	b.ResetTimer()
	for b.Loop() {
		if _, err := ParseLine[float64](line); err != nil {
			b.Fatal(err)
		}
	}
}
