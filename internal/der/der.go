// Package der implements a minimal DER (Distinguished Encoding Rules)
// scanner for the fixed PKCS#8/PKCS#5 structures this module reads.
//
// The scanner understands tag/length/value framing only; tag semantics
// (SEQUENCE vs INTEGER vs OCTET STRING) belong to the callers. It is not
// a general-purpose ASN.1 decoder: indefinite lengths, high tag numbers
// and non-minimal encodings are rejected.
package der

import (
	"errors"
	"fmt"
	"math"
)

// Universal class tags for the shapes read by this module.
const (
	TagInteger     byte = 0x02
	TagBitString   byte = 0x03
	TagOctetString byte = 0x04
	TagNull        byte = 0x05
	TagOID         byte = 0x06
	TagSequence    byte = 0x30
	TagSet         byte = 0x31
)

var (
	// ErrMalformed indicates structurally invalid DER: a truncated header,
	// an indefinite or non-minimal length, or a value running past the end
	// of the buffer.
	ErrMalformed = errors.New("der: malformed encoding")

	// ErrTruncated indicates a nested length mismatch: an element or
	// document that does not exactly consume its enclosing region.
	ErrTruncated = errors.New("der: truncated document")
)

// Element is one decoded tag/length/value triple. Value aliases the input
// buffer (zero copy); callers must not modify it.
type Element struct {
	Tag   byte
	Value []byte
}

// Constructed reports whether the element's constructed bit is set.
func (e Element) Constructed() bool { return e.Tag&0x20 != 0 }

// ReadElement decodes the element starting at off and returns it together
// with the offset of the next sibling. It fails with ErrMalformed when off
// is at or beyond the end of the buffer, the header is truncated, the
// length is indefinite (0x80) or non-minimal, or the declared value
// extends past the end of the buffer.
func ReadElement(buf []byte, off int) (Element, int, error) {
	if off < 0 || off >= len(buf) {
		return Element{}, 0, fmt.Errorf("%w: offset %d beyond end of %d-byte buffer", ErrMalformed, off, len(buf))
	}
	tag := buf[off]
	if tag&0x1f == 0x1f {
		return Element{}, 0, fmt.Errorf("%w: high tag number form at offset %d", ErrMalformed, off)
	}
	if off+1 >= len(buf) {
		return Element{}, 0, fmt.Errorf("%w: missing length at offset %d", ErrMalformed, off+1)
	}

	var length int
	start := off + 2
	switch lb := buf[off+1]; {
	case lb < 0x80:
		// Short form: the byte is the length.
		length = int(lb)

	case lb == 0x80:
		return Element{}, 0, fmt.Errorf("%w: indefinite length at offset %d", ErrMalformed, off+1)

	default:
		// Long form: lb&0x7f big-endian length bytes follow.
		n := int(lb & 0x7f)
		if n > 4 {
			return Element{}, 0, fmt.Errorf("%w: %d-byte length at offset %d", ErrMalformed, n, off+1)
		}
		if start+n > len(buf) {
			return Element{}, 0, fmt.Errorf("%w: truncated length at offset %d", ErrMalformed, off+1)
		}
		if buf[start] == 0 {
			return Element{}, 0, fmt.Errorf("%w: length with leading zero at offset %d", ErrMalformed, start)
		}
		var v int64
		for i := 0; i < n; i++ {
			v = v<<8 | int64(buf[start+i])
		}
		if v < 0x80 {
			return Element{}, 0, fmt.Errorf("%w: non-minimal length at offset %d", ErrMalformed, off+1)
		}
		if v > int64(len(buf)) {
			return Element{}, 0, fmt.Errorf("%w: length %d exceeds %d-byte buffer", ErrMalformed, v, len(buf))
		}
		length = int(v)
		start += n
	}

	end := start + length
	if end > len(buf) {
		return Element{}, 0, fmt.Errorf("%w: value [%d:%d] extends past end of %d-byte buffer", ErrMalformed, start, end, len(buf))
	}
	return Element{Tag: tag, Value: buf[start:end]}, end, nil
}

// Parse reads a single element that must span the entire buffer. Trailing
// bytes after the element fail with ErrTruncated.
func Parse(buf []byte) (Element, error) {
	el, next, err := ReadElement(buf, 0)
	if err != nil {
		return Element{}, err
	}
	if next != len(buf) {
		return Element{}, fmt.Errorf("%w: %d trailing bytes after element", ErrTruncated, len(buf)-next)
	}
	return el, nil
}

// ParseInt decodes a DER INTEGER value into a non-negative int. Empty,
// negative, non-minimal and oversized encodings are rejected.
func ParseInt(value []byte) (int, error) {
	if len(value) == 0 {
		return 0, fmt.Errorf("%w: empty INTEGER", ErrMalformed)
	}
	if value[0]&0x80 != 0 {
		return 0, fmt.Errorf("%w: negative INTEGER", ErrMalformed)
	}
	if len(value) > 1 && value[0] == 0 && value[1]&0x80 == 0 {
		return 0, fmt.Errorf("%w: non-minimal INTEGER", ErrMalformed)
	}
	if value[0] == 0 {
		value = value[1:]
	}
	if len(value) > 8 {
		return 0, fmt.Errorf("%w: INTEGER exceeds 64 bits", ErrMalformed)
	}
	var v uint64
	for _, b := range value {
		v = v<<8 | uint64(b)
	}
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: INTEGER exceeds 64 bits", ErrMalformed)
	}
	return int(v), nil
}
