package metric

import "math"

// FromF64 converts a canonical wire double into the aggregate representation
// F. For float64 this is the identity; for float32 the value is rebuilt from
// an explicit sign/mantissa/exponent decomposition instead of a plain
// narrowing conversion, so the coercion does not depend on implicit
// conversion behavior.
func FromF64[F Float](v float64) F {
	var zero F
	if _, wide := any(zero).(float64); wide {
		return F(v)
	}
	return F(float32fromF64(v))
}

// float32fromF64 decomposes v into sign, mantissa and exponent and
// reassembles the closest float32. Subnormal float64 values collapse to zero,
// they are below the float32 range anyway.
func float32fromF64(v float64) float32 {
	bits := math.Float64bits(v)

	sign := float32(1)
	if bits>>63 != 0 {
		sign = -1
	}

	rawExp := (bits >> 52) & 0x7ff
	mantissa := bits & 0xfffffffffffff
	if rawExp == 0 {
		mantissa <<= 1
	} else {
		mantissa |= 1 << 52
	}
	exponent := int(rawExp) - 1075

	return sign * float32(mantissa) * float32(math.Exp2(float64(exponent)))
}
