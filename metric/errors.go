package metric

import (
	"errors"
	"fmt"
)

// The closed error taxonomy of the metric core. All operations return one of
// these kinds (possibly wrapped with context); callers branch with errors.Is
// and errors.As rather than string matching.
var (
	// ErrFloatToRatio reports a failed float to sampling-ratio conversion.
	ErrFloatToRatio = errors.New("float conversion")

	// ErrSampling reports a sampling rate outside the valid range.
	ErrSampling = errors.New("bad sampling range")

	// ErrAggregating reports an attempt to merge metrics of different
	// kinds, or an invalid gauge direction.
	ErrAggregating = errors.New("aggregating metrics of different types")

	// ErrDecode wraps failures to decode a malformed wire record.
	ErrDecode = errors.New("decoding error")

	// ErrSchema wraps wire records whose discriminant is not present in
	// the expected schema.
	ErrSchema = errors.New("schema error")
)

// BadTypeNameError reports an unrecognized metric type name. It carries the
// offending string for diagnostics.
type BadTypeNameError struct {
	Name string
}

func (e *BadTypeNameError) Error() string {
	return fmt.Sprintf("unknown type name '%s'", e.Name)
}
