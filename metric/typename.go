package metric

// TypeName is the metric type specification simplified for naming in
// configuration. TypeNameDefault has no MetricType counterpart: it is a
// configuration-only sentinel meaning "infer from context", resolved by the
// caller.
type TypeName int

const (
	TypeNameDefault TypeName = iota
	TypeNameCounter
	TypeNameDiffCounter
	TypeNameTimer
	TypeNameGauge
	TypeNameSet
)

var typeNames = map[TypeName]string{
	TypeNameDefault:     "default",
	TypeNameCounter:     "counter",
	TypeNameDiffCounter: "diff-counter",
	TypeNameTimer:       "timer",
	TypeNameGauge:       "gauge",
	TypeNameSet:         "set",
}

// String returns the lowercase-hyphenated name of the type.
func (n TypeName) String() string {
	if s, ok := typeNames[n]; ok {
		return s
	}
	return "default"
}

// ParseTypeName maps a type name string back to its TypeName. Unrecognized
// strings yield a BadTypeNameError carrying the offending input.
func ParseTypeName(s string) (TypeName, error) {
	for n, tn := range typeNames {
		if tn == s {
			return n, nil
		}
	}
	return TypeNameDefault, &BadTypeNameError{Name: s}
}

// TypeNameOf returns the type name of a live metric.
func TypeNameOf[F Float](m Metric[F]) TypeName {
	switch m.Type.Kind() {
	case KindCounter:
		return TypeNameCounter
	case KindDiffCounter:
		return TypeNameDiffCounter
	case KindTimer:
		return TypeNameTimer
	case KindGauge:
		return TypeNameGauge
	case KindSet:
		return TypeNameSet
	}
	return TypeNameDefault
}

// MarshalText implements encoding.TextMarshaler so configuration loaders can
// serialize type names directly.
func (n TypeName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *TypeName) UnmarshalText(text []byte) error {
	parsed, err := ParseTypeName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
