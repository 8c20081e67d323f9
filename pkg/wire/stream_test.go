package wire

import (
	"bytes"
	"testing"
)

func TestPrimitivesRoundTrip(t *testing.T) {
	w := NewStream(nil)
	w.WriteBool(true)
	w.WriteByte(0x7f)
	w.WriteShort(-12345)
	w.WriteInt(-123456789)
	w.WriteLong(-1234567890123)
	w.WriteFloat(3.5)
	w.WriteDouble(2.71828)
	w.WriteString("hello")

	r := NewStream(NewBufferFromBytes(w.Buf.Bytes()))

	if b, err := r.ReadBool(); err != nil || b != true {
		t.Fatalf("ReadBool: %v %v", b, err)
	}
	if b, err := r.ReadByte(); err != nil || b != 0x7f {
		t.Fatalf("ReadByte: %v %v", b, err)
	}
	if v, err := r.ReadShort(); err != nil || v != -12345 {
		t.Fatalf("ReadShort: %v %v", v, err)
	}
	if v, err := r.ReadInt(); err != nil || v != -123456789 {
		t.Fatalf("ReadInt: %v %v", v, err)
	}
	if v, err := r.ReadLong(); err != nil || v != -1234567890123 {
		t.Fatalf("ReadLong: %v %v", v, err)
	}
	if v, err := r.ReadFloat(); err != nil || v != 3.5 {
		t.Fatalf("ReadFloat: %v %v", v, err)
	}
	if v, err := r.ReadDouble(); err != nil || v != 2.71828 {
		t.Fatalf("ReadDouble: %v %v", v, err)
	}
	if v, err := r.ReadString(); err != nil || v != "hello" {
		t.Fatalf("ReadString: %v %v", v, err)
	}
}

// TestSequenceWireBytes pins the exact byte layout of a sequence<int> of
// [1,2,3]: an Int count of 3 followed by the three little-endian Int
// elements.
func TestSequenceWireBytes(t *testing.T) {
	w := NewStream(nil)
	WriteSequence(w, []int32{1, 2, 3}, func(s *Stream, v int32) { s.WriteInt(v) })

	want := []byte{
		0x03, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
	}
	if got := w.Buf.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("byte layout mismatch:\n got  % x\n want % x", got, want)
	}

	r := NewStream(NewBufferFromBytes(w.Buf.Bytes()))
	seq, err := ReadSequence(r, func(s *Stream) (int32, error) { return s.ReadInt() })
	if err != nil {
		t.Fatalf("ReadSequence: %v", err)
	}
	if len(seq) != 3 || seq[0] != 1 || seq[1] != 2 || seq[2] != 3 {
		t.Fatalf("round trip mismatch: %v", seq)
	}
}

func TestSequenceTruncatedFrame(t *testing.T) {
	w := NewStream(nil)
	w.WriteInt(5) // claims 5 elements, writes none

	r := NewStream(NewBufferFromBytes(w.Buf.Bytes()))
	if _, err := ReadSequence(r, func(s *Stream) (int32, error) { return s.ReadInt() }); err == nil {
		t.Fatal("expected truncated-frame error, got nil")
	}
}

func TestMapRoundTrip(t *testing.T) {
	w := NewStream(nil)
	WriteMap(w, []KV[string, int32]{
		{Key: "a", Val: 1},
		{Key: "b", Val: 2},
	}, func(s *Stream, k string) { s.WriteString(k) }, func(s *Stream, v int32) { s.WriteInt(v) })

	r := NewStream(NewBufferFromBytes(w.Buf.Bytes()))
	dst := map[string]int32{}
	if err := ReadMap(r, dst, func(s *Stream) (string, error) { return s.ReadString() }, func(s *Stream) (int32, error) { return s.ReadInt() }); err != nil {
		t.Fatalf("ReadMap: %v", err)
	}
	if dst["a"] != 1 || dst["b"] != 2 || len(dst) != 2 {
		t.Fatalf("map round trip mismatch: %v", dst)
	}
}

func TestEnumWidth(t *testing.T) {
	cases := []struct {
		members int
		want    int
	}{
		{1, 1}, {127, 1}, {128, 2}, {32767, 2}, {32768, 4},
	}
	for _, c := range cases {
		if got := EnumWidth(c.members); got != c.want {
			t.Errorf("EnumWidth(%d) = %d, want %d", c.members, got, c.want)
		}
	}
}

func TestEnumRoundTrip(t *testing.T) {
	const members = 3 // fits in a byte
	w := NewStream(nil)
	w.WriteEnum(2, members)

	r := NewStream(NewBufferFromBytes(w.Buf.Bytes()))
	v, err := r.ReadEnum(members)
	if err != nil || v != 2 {
		t.Fatalf("ReadEnum: %v %v", v, err)
	}
	if w.Buf.Size() != 1 {
		t.Fatalf("expected 1-byte encoding for 3-member enum, got %d bytes", w.Buf.Size())
	}
}

func TestProxyNullRoundTrip(t *testing.T) {
	w := NewStream(nil)
	w.WriteProxy("")
	w.WriteProxy("widget:default -h localhost -p 10000")

	r := NewStream(NewBufferFromBytes(w.Buf.Bytes()))
	s, ok, err := r.ReadProxy()
	if err != nil || ok || s != "" {
		t.Fatalf("expected null proxy, got %q %v %v", s, ok, err)
	}
	s, ok, err = r.ReadProxy()
	if err != nil || !ok || s != "widget:default -h localhost -p 10000" {
		t.Fatalf("expected non-null proxy, got %q %v %v", s, ok, err)
	}
}

// TestExceptionDispatchOnRead pins the base-then-derived ordering
// convention: the wire identifier is read first and binary searched in a
// sorted table of known exception ids for this operation.
func TestExceptionDispatchOnRead(t *testing.T) {
	known := []string{"::demo::NotFoundException", "::demo::OutOfRangeException"}

	w := NewStream(nil)
	w.WriteExceptionID("::demo::OutOfRangeException")
	w.WriteString("base message")
	w.WriteInt(42)

	r := NewStream(NewBufferFromBytes(w.Buf.Bytes()))
	idx, id, err := r.ReadExceptionIndex(known)
	if err != nil {
		t.Fatalf("ReadExceptionIndex: %v", err)
	}
	if idx != 1 || id != "::demo::OutOfRangeException" {
		t.Fatalf("got idx=%d id=%q", idx, id)
	}
	if msg, err := r.ReadString(); err != nil || msg != "base message" {
		t.Fatalf("ReadString: %v %v", msg, err)
	}
	if n, err := r.ReadInt(); err != nil || n != 42 {
		t.Fatalf("ReadInt: %v %v", n, err)
	}
}

func TestExceptionDispatchOnReadUnknown(t *testing.T) {
	known := []string{"::demo::NotFoundException", "::demo::OutOfRangeException"}

	w := NewStream(nil)
	w.WriteExceptionID("::demo::SomethingElseException")

	r := NewStream(NewBufferFromBytes(w.Buf.Bytes()))
	if _, _, err := r.ReadExceptionIndex(known); err == nil {
		t.Fatal("expected unknown-exception error, got nil")
	}
}

func TestBufferSetPosOutOfRange(t *testing.T) {
	buf := NewBuffer()
	buf.Grow(4)
	if err := buf.SetPos(2); err != nil {
		t.Fatalf("SetPos(2): %v", err)
	}
	if err := buf.SetPos(5); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if err := buf.SetPos(-1); err == nil {
		t.Fatal("expected out-of-range error")
	}
}
