package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Albibek/bioyino-metric/metric"
	"github.com/Albibek/bioyino-metric/name"
)

// Encoder writes a stream of varint length-prefixed metric records, the
// framing used for shard-to-aggregator batches. It is not safe for
// concurrent use.
type Encoder[F metric.Float] struct {
	w       io.Writer
	scratch []byte
}

func NewEncoder[F metric.Float](w io.Writer) *Encoder[F] {
	return &Encoder[F]{w: w}
}

// Encode frames and writes one record. The scratch buffer is reused across
// calls, so encoding does not allocate once it has grown to the largest
// record seen.
func (e *Encoder[F]) Encode(rawName []byte, m metric.Metric[F]) error {
	record := AppendMetric(e.scratch[:0], rawName, m)
	e.scratch = record

	var prefix [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(prefix[:], uint64(len(record)))
	if _, err := e.w.Write(prefix[:n]); err != nil {
		return err
	}
	_, err := e.w.Write(record)
	return err
}

// Decoder reads a stream written by Encoder. It is not safe for concurrent
// use.
type Decoder[F metric.Float] struct {
	r   *bufio.Reader
	buf []byte
}

func NewDecoder[F metric.Float](r io.Reader) *Decoder[F] {
	return &Decoder[F]{r: bufio.NewReader(r)}
}

// Decode reads the next record. It returns io.EOF at a clean stream
// boundary; a stream cut mid-record fails with metric.ErrDecode.
func (d *Decoder[F]) Decode() (name.MetricName, metric.Metric[F], error) {
	size, err := binary.ReadUvarint(d.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return name.MetricName{}, metric.Metric[F]{}, io.EOF
		}
		return name.MetricName{}, metric.Metric[F]{}, fmt.Errorf("%w: %v", metric.ErrDecode, err)
	}

	if uint64(cap(d.buf)) < size {
		d.buf = make([]byte, size)
	}
	buf := d.buf[:size]
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return name.MetricName{}, metric.Metric[F]{}, fmt.Errorf("%w: %v", metric.ErrDecode, err)
	}
	return Unmarshal[F](buf)
}
