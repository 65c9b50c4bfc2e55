package metric

import (
	"errors"
	"testing"
)

func TestTypeNameRoundTrip(t *testing.T) {
	names := []string{"default", "counter", "diff-counter", "timer", "gauge", "set"}

	for _, s := range names {
		t.Run(s, func(t *testing.T) {
			tn, err := ParseTypeName(s)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if tn.String() != s {
				t.Fatalf("stringify: expected %q, got %q", s, tn.String())
			}
			again, err := ParseTypeName(tn.String())
			if err != nil {
				t.Fatalf("reparse: %v", err)
			}
			if again != tn {
				t.Errorf("round trip changed the tag: %v != %v", again, tn)
			}
		})
	}
}

func TestParseTypeNameUnknown(t *testing.T) {
	for _, s := range []string{"", "histogram", "Counter", "diff_counter"} {
		_, err := ParseTypeName(s)
		var bad *BadTypeNameError
		if !errors.As(err, &bad) {
			t.Fatalf("expected BadTypeNameError for %q, got %v", s, err)
		}
		if bad.Name != s {
			t.Errorf("expected offending string %q, got %q", s, bad.Name)
		}
	}
}

func TestTypeNameOf(t *testing.T) {
	tests := []struct {
		mtype MetricType[float64]
		want  TypeName
	}{
		{TypeCounter[float64](), TypeNameCounter},
		{TypeDiffCounter(0.0), TypeNameDiffCounter},
		{TypeTimer[float64](nil), TypeNameTimer},
		{TypeGauge[float64](), TypeNameGauge},
		{TypeGaugeSigned[float64](1), TypeNameGauge},
		{TypeSet[float64](nil), TypeNameSet},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			m := mustNew(t, 1.0, tt.mtype, nil, nil)
			if got := TypeNameOf(m); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTypeNameText(t *testing.T) {
	text, err := TypeNameDiffCounter.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(text) != "diff-counter" {
		t.Fatalf("expected diff-counter, got %q", text)
	}

	var tn TypeName
	if err := tn.UnmarshalText(text); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tn != TypeNameDiffCounter {
		t.Errorf("expected TypeNameDiffCounter, got %v", tn)
	}

	if err := tn.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown name")
	}
}
