// Package parser turns statsd text protocol lines into metrics. One line is
// one raw sample: name:value|type with an optional |@rate sampling suffix.
//
// Recognized type letters: "c" counter, "g" gauge, "ms" timer, "s" set.
// A gauge value with a leading '+' or '-' is a relative sample and maps to a
// signed gauge direction; without a sign the gauge is absolute.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/Albibek/bioyino-metric/metric"
)

var (
	// ErrBadLine reports a line that does not split into name, value and
	// type sections.
	ErrBadLine = errors.New("malformed statsd line")

	// ErrBadValue reports an unparseable metric value.
	ErrBadValue = errors.New("bad metric value")
)

// Sample is one parsed raw sample: the metric name bytes still unsegmented,
// and a freshly constructed metric with update counter 1.
type Sample[F metric.Float] struct {
	Name   []byte
	Metric metric.Metric[F]
}

// Parse parses a newline-separated batch of statsd lines. Bad lines do not
// abort the batch: every parseable sample is returned, and the per-line
// failures come back joined into one error.
func Parse[F metric.Float](data []byte) ([]Sample[F], error) {
	var (
		samples []Sample[F]
		errs    []error
	)
	for line := range bytes.Lines(data) {
		line = bytes.TrimRight(line, "\n")
		if len(line) == 0 {
			continue
		}
		s, err := ParseLine[F](line)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %q: %w", line, err))
			continue
		}
		samples = append(samples, s)
	}
	return samples, errors.Join(errs...)
}

// ParseLine parses a single statsd line.
func ParseLine[F metric.Float](line []byte) (Sample[F], error) {
	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return Sample[F]{}, ErrBadLine
	}
	rawName := line[:colon]
	rest := line[colon+1:]

	sections := bytes.Split(rest, []byte{'|'})
	if len(sections) < 2 || len(sections) > 3 {
		return Sample[F]{}, ErrBadLine
	}
	rawValue, rawType := sections[0], sections[1]
	if len(rawValue) == 0 || len(rawType) == 0 {
		return Sample[F]{}, ErrBadLine
	}

	var sampling *float32
	if len(sections) == 3 {
		rate, err := parseRate(sections[2])
		if err != nil {
			return Sample[F]{}, err
		}
		sampling = &rate
	}

	// Relative gauges carry their direction in the value sign; the value
	// itself is always a magnitude.
	var sign int8
	if rawType[0] == 'g' && (rawValue[0] == '+' || rawValue[0] == '-') {
		sign = 1
		if rawValue[0] == '-' {
			sign = -1
		}
		rawValue = rawValue[1:]
	}

	value, err := strconv.ParseFloat(string(rawValue), 64)
	if err != nil {
		return Sample[F]{}, fmt.Errorf("%w: %q", ErrBadValue, rawValue)
	}

	var mtype metric.MetricType[F]
	switch string(rawType) {
	case "c":
		mtype = metric.TypeCounter[F]()
	case "g":
		if sign != 0 {
			mtype = metric.TypeGaugeSigned[F](sign)
		} else {
			mtype = metric.TypeGauge[F]()
		}
	case "ms":
		mtype = metric.TypeTimer[F](nil)
	case "s":
		mtype = metric.TypeSet[F](nil)
	default:
		return Sample[F]{}, &metric.BadTypeNameError{Name: string(rawType)}
	}

	m, err := metric.New(metric.FromF64[F](value), mtype, nil, sampling)
	if err != nil {
		return Sample[F]{}, err
	}
	return Sample[F]{Name: rawName, Metric: m}, nil
}

// parseRate parses the "@rate" sampling section. A rate must sit in (0, 1]:
// it is the fraction of raw events the client actually sent.
func parseRate(section []byte) (float32, error) {
	if len(section) < 2 || section[0] != '@' {
		return 0, ErrBadLine
	}
	rate, err := strconv.ParseFloat(string(section[1:]), 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", metric.ErrFloatToRatio, section[1:])
	}
	if rate <= 0 || rate > 1 {
		return 0, fmt.Errorf("%w: %v", metric.ErrSampling, rate)
	}
	return float32(rate), nil
}
