package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Stream is the only typed API over a Buffer and defines the framework's
// bit-exact encoding: little-endian fixed-width integers, IEEE-754
// little-endian floats, length-prefixed strings/sequences/maps, and a
// cardinality-chosen width for enums.
type Stream struct {
	Buf *Buffer
}

// NewStream wraps buf (or a fresh Buffer if nil) in a Stream.
func NewStream(buf *Buffer) *Stream {
	if buf == nil {
		buf = NewBuffer()
	}
	return &Stream{Buf: buf}
}

// -- primitives --------------------------------------------------------

func (s *Stream) WriteByte(v byte) {
	s.Buf.Grow(1)[0] = v
}

func (s *Stream) ReadByte() (byte, error) {
	b, err := s.Buf.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Stream) WriteBool(v bool) {
	if v {
		s.WriteByte(1)
	} else {
		s.WriteByte(0)
	}
}

func (s *Stream) ReadBool() (bool, error) {
	b, err := s.ReadByte()
	return b != 0, err
}

func (s *Stream) WriteShort(v int16) {
	binary.LittleEndian.PutUint16(s.Buf.Grow(2), uint16(v))
}

func (s *Stream) ReadShort() (int16, error) {
	b, err := s.Buf.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

func (s *Stream) WriteInt(v int32) {
	binary.LittleEndian.PutUint32(s.Buf.Grow(4), uint32(v))
}

func (s *Stream) ReadInt() (int32, error) {
	b, err := s.Buf.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (s *Stream) WriteLong(v int64) {
	binary.LittleEndian.PutUint64(s.Buf.Grow(8), uint64(v))
}

func (s *Stream) ReadLong() (int64, error) {
	b, err := s.Buf.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (s *Stream) WriteFloat(v float32) {
	binary.LittleEndian.PutUint32(s.Buf.Grow(4), math.Float32bits(v))
}

func (s *Stream) ReadFloat() (float32, error) {
	b, err := s.Buf.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (s *Stream) WriteDouble(v float64) {
	binary.LittleEndian.PutUint64(s.Buf.Grow(8), math.Float64bits(v))
}

func (s *Stream) ReadDouble() (float64, error) {
	b, err := s.Buf.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// -- strings -------------------------------------------------------------

// WriteString writes an Int length prefix followed by the raw bytes, no
// trailing nul.
func (s *Stream) WriteString(v string) {
	s.WriteInt(int32(len(v)))
	copy(s.Buf.Grow(len(v)), v)
}

func (s *Stream) ReadString() (string, error) {
	n, err := s.ReadInt()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("wire: negative string length %d", n)
	}
	b, err := s.Buf.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// -- opaque blobs ---------------------------------------------------------

// WriteBytes writes an Int size prefix followed by v verbatim, the same
// shape as an encapsulation in the wire frame header.
func (s *Stream) WriteBytes(v []byte) {
	s.WriteInt(int32(len(v)))
	copy(s.Buf.Grow(len(v)), v)
}

// ReadBytes reads a size-prefixed opaque blob.
func (s *Stream) ReadBytes() ([]byte, error) {
	n, err := s.ReadInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("wire: negative blob length %d", n)
	}
	b, err := s.Buf.take(int(n))
	if err != nil {
		return nil, err
	}
	return b, nil
}

// -- sequences and dictionaries ------------------------------------------

// WriteSequence writes an Int count followed by count values of T written
// by writeElem, in the order given.
func WriteSequence[T any](s *Stream, seq []T, writeElem func(*Stream, T)) {
	s.WriteInt(int32(len(seq)))
	for _, v := range seq {
		writeElem(s, v)
	}
}

// ReadSequence reads an Int count then that many elements, growing the
// result one element at a time rather than preallocating from count --
// defence against hostile or truncated frames claiming an enormous count.
func ReadSequence[T any](s *Stream, readElem func(*Stream) (T, error)) ([]T, error) {
	n, err := s.ReadInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("wire: negative sequence count %d", n)
	}

	var out []T
	for i := int32(0); i < n; i++ {
		v, err := readElem(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// KV is a single key/value pair, used by WriteMap/ReadMap so that callers
// can pass ordered pairs rather than a Go map (whose iteration order is
// unspecified, but the wire format requires sender-determined order).
type KV[K comparable, V any] struct {
	Key K
	Val V
}

// WriteMap writes an Int count then count key/value pairs in the order
// given by pairs.
func WriteMap[K comparable, V any](s *Stream, pairs []KV[K, V], writeKey func(*Stream, K), writeVal func(*Stream, V)) {
	s.WriteInt(int32(len(pairs)))
	for _, kv := range pairs {
		writeKey(s, kv.Key)
		writeVal(s, kv.Val)
	}
}

// ReadMap reads an Int count then that many key/value pairs, inserting
// into dst at the hint position (map assignment) to preserve the entries;
// dst is grown one pair at a time exactly as ReadSequence grows slices.
func ReadMap[K comparable, V any](s *Stream, dst map[K]V, readKey func(*Stream) (K, error), readVal func(*Stream) (V, error)) error {
	n, err := s.ReadInt()
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("wire: negative map count %d", n)
	}

	for i := int32(0); i < n; i++ {
		k, err := readKey(s)
		if err != nil {
			return err
		}
		v, err := readVal(s)
		if err != nil {
			return err
		}
		dst[k] = v
	}
	return nil
}

// -- enums -----------------------------------------------------------

// EnumWidth returns the number of octets used to encode an enum with the
// given member count, per §4.1: Byte if <=127, Short if <=32767, Int if
// <=2^31-1, Long otherwise.
func EnumWidth(memberCount int) int {
	switch {
	case memberCount <= 127:
		return 1
	case memberCount <= 32767:
		return 2
	case memberCount <= (1<<31)-1:
		return 4
	default:
		return 8
	}
}

// WriteEnum writes ordinal using the width implied by memberCount.
func (s *Stream) WriteEnum(ordinal int64, memberCount int) {
	switch EnumWidth(memberCount) {
	case 1:
		s.WriteByte(byte(ordinal))
	case 2:
		s.WriteShort(int16(ordinal))
	case 4:
		s.WriteInt(int32(ordinal))
	default:
		s.WriteLong(ordinal)
	}
}

// ReadEnum reads an ordinal using the width implied by memberCount.
func (s *Stream) ReadEnum(memberCount int) (int64, error) {
	switch EnumWidth(memberCount) {
	case 1:
		v, err := s.ReadByte()
		return int64(v), err
	case 2:
		v, err := s.ReadShort()
		return int64(v), err
	case 4:
		v, err := s.ReadInt()
		return int64(v), err
	default:
		return s.ReadLong()
	}
}

// -- proxies -----------------------------------------------------------

// WriteProxy writes the stringified reference; an empty string denotes a
// null proxy.
func (s *Stream) WriteProxy(stringified string) {
	s.WriteString(stringified)
}

// ReadProxy reads a stringified reference, returning ("", false) for null.
func (s *Stream) ReadProxy() (string, bool, error) {
	v, err := s.ReadString()
	if err != nil {
		return "", false, err
	}
	return v, v != "", nil
}

// -- user exceptions ---------------------------------------------------

// WriteExceptionID writes the scoped identifier that precedes a user
// exception's base-then-derived field list.
func (s *Stream) WriteExceptionID(scopedID string) {
	s.WriteString(scopedID)
}

// ReadExceptionIndex reads the wire exception identifier and binary
// searches it in expected (which must be sorted). On a hit it returns the
// matching index so the caller can instantiate and read the corresponding
// type; on a miss it returns an error so the caller raises
// UnknownUserException.
func (s *Stream) ReadExceptionIndex(expected []string) (int, string, error) {
	id, err := s.ReadString()
	if err != nil {
		return -1, "", err
	}

	if !sort.StringsAreSorted(expected) {
		return -1, id, fmt.Errorf("wire: expected exception list not sorted: %v", expected)
	}

	i := sort.SearchStrings(expected, id)
	if i < len(expected) && expected[i] == id {
		return i, id, nil
	}
	return -1, id, fmt.Errorf("wire: unknown user exception %q", id)
}
