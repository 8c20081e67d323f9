package frame

import (
	"bytes"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	hdr := RequestHeader{
		RequestID:  42,
		Identity:   Identity{Category: "", Name: "widget-1"},
		Facet:      "facade",
		Operation:  "setPoint",
		Idempotent: false,
		Context:    map[string]string{"trace": "abc"},
	}
	encapsulation := []byte{1, 2, 3, 4}

	raw := WriteRequest(hdr, encapsulation)

	mt, body, err := ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if mt != Request {
		t.Fatalf("message type = %v, want Request", mt)
	}

	got, gotEnc, err := ReadRequestHeader(body)
	if err != nil {
		t.Fatalf("ReadRequestHeader: %v", err)
	}
	if got.RequestID != hdr.RequestID || got.Identity != hdr.Identity || got.Facet != hdr.Facet ||
		got.Operation != hdr.Operation || got.Idempotent != hdr.Idempotent {
		t.Fatalf("header mismatch: got %+v, want %+v", got, hdr)
	}
	if got.Context["trace"] != "abc" {
		t.Fatalf("context mismatch: %+v", got.Context)
	}
	if !bytes.Equal(gotEnc, encapsulation) {
		t.Fatalf("encapsulation = %v, want %v", gotEnc, encapsulation)
	}
}

func TestReplyRoundTrip(t *testing.T) {
	replyFrame := []byte{0, 9, 9, 9}
	raw := WriteReply(7, replyFrame)

	mt, body, err := ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if mt != Reply {
		t.Fatalf("message type = %v, want Reply", mt)
	}

	requestID, got, err := ReadReplyHeader(body)
	if err != nil {
		t.Fatalf("ReadReplyHeader: %v", err)
	}
	if requestID != 7 {
		t.Fatalf("requestID = %d, want 7", requestID)
	}
	if !bytes.Equal(got, replyFrame) {
		t.Fatalf("replyFrame = %v, want %v", got, replyFrame)
	}
}

func TestReadEnvelopeRejectsBadMagic(t *testing.T) {
	raw := WriteReply(1, []byte{0})
	raw[0] = 'X'
	if _, _, err := ReadEnvelope(bytes.NewReader(raw)); err == nil {
		t.Fatal("expected bad-magic error")
	}
}

func TestReadEnvelopeRejectsTruncatedBody(t *testing.T) {
	raw := WriteReply(1, []byte{0, 1, 2, 3})
	if _, _, err := ReadEnvelope(bytes.NewReader(raw[:len(raw)-2])); err == nil {
		t.Fatal("expected truncated-frame error")
	}
}
