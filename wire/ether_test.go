package wire_test

import (
	"bytes"
	"testing"

	. "github.com/canndrew/netsim-sub001/wire"
)

func TestEtherFrameRoundTrip(t *testing.T) {
	t.Parallel()

	dst := MacAddrFromBytes([]byte{1, 2, 3, 4, 5, 6})
	src := MacAddrFromBytes([]byte{6, 5, 4, 3, 2, 1})
	f := NewEtherFrame(dst, src, EtherTypeIPv4, []byte("payload"))
	defer f.Buffer().Release()

	decoded, err := DecodeEtherFrame(f.Buffer())
	if err != nil {
		t.Fatalf("DecodeEtherFrame() error = %v", err)
	}
	if decoded.Dst() != dst || decoded.Src() != src {
		t.Fatalf("addresses mismatch: dst=%v src=%v", decoded.Dst(), decoded.Src())
	}
	if decoded.EtherType() != EtherTypeIPv4 {
		t.Fatalf("EtherType() = %v, want IPv4", decoded.EtherType())
	}
	if !bytes.Equal(decoded.Payload(), []byte("payload")) {
		t.Fatalf("Payload() = %q, want %q", decoded.Payload(), "payload")
	}
}

func TestDecodeEtherFrameTruncated(t *testing.T) {
	t.Parallel()

	buf := netbufFromBytes([]byte{1, 2, 3})
	if _, err := DecodeEtherFrame(buf); err == nil {
		t.Fatal("DecodeEtherFrame() on a 3-byte buffer succeeded, want error")
	}
}
