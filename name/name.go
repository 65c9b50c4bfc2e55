// Package name handles raw metric name bytes and tag-aware segmentation.
// Names travel on the wire next to metric values as opaque byte strings; the
// only structure this package extracts is the position of the tag block.
package name

import "bytes"

// TagFormat selects the tag syntax recognized inside a raw name.
type TagFormat int

const (
	// TagFormatGraphite is the graphite tag syntax: the base name, then
	// ";tag=value" pairs separated by semicolons.
	TagFormatGraphite TagFormat = iota
)

// FindTagPos returns the byte offset where the tag block of a raw name
// starts, or -1 when the name carries no tags.
func FindTagPos(raw []byte, format TagFormat) int {
	switch format {
	case TagFormatGraphite:
		return bytes.IndexByte(raw, ';')
	}
	return -1
}

// MetricName is a raw metric name with its tag position located.
type MetricName struct {
	raw    []byte
	tagPos int
}

// New parses a raw name in the given tag format.
func New(raw []byte, format TagFormat) MetricName {
	return FromRawParts(raw, FindTagPos(raw, format))
}

// FromRawParts builds a MetricName from already-segmented parts. tagPos below
// zero means the name is untagged.
func FromRawParts(raw []byte, tagPos int) MetricName {
	if tagPos < 0 || tagPos > len(raw) {
		tagPos = -1
	}
	return MetricName{raw: raw, tagPos: tagPos}
}

// Bytes returns the whole raw name, tags included.
func (n MetricName) Bytes() []byte { return n.raw }

// Base returns the name without its tag block.
func (n MetricName) Base() []byte {
	if n.tagPos < 0 {
		return n.raw
	}
	return n.raw[:n.tagPos]
}

// Tags returns the raw tag block without the leading delimiter, or nil for
// an untagged name.
func (n MetricName) Tags() []byte {
	if n.tagPos < 0 || n.tagPos+1 > len(n.raw) {
		return nil
	}
	return n.raw[n.tagPos+1:]
}

// TagPos returns the tag block offset and whether the name is tagged.
func (n MetricName) TagPos() (int, bool) {
	if n.tagPos < 0 {
		return 0, false
	}
	return n.tagPos, true
}

func (n MetricName) String() string { return string(n.raw) }
