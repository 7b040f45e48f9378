package wire_test

import (
	"testing"

	. "github.com/canndrew/netsim-sub001/wire"
)

func TestArpRequestReplyRoundTrip(t *testing.T) {
	t.Parallel()

	senderMac := MacAddrFromBytes([]byte{1, 1, 1, 1, 1, 1})
	senderIP := [4]byte{10, 0, 0, 1}
	targetIP := [4]byte{10, 0, 0, 2}

	req := NewArpRequest(senderMac, senderIP, targetIP)
	defer req.Buffer().Release()

	parsed, err := ParseArp(req.Buffer())
	if err != nil {
		t.Fatalf("ParseArp(request) error = %v", err)
	}
	if parsed.Operation() != ArpRequest {
		t.Fatalf("Operation() = %v, want ArpRequest", parsed.Operation())
	}
	if parsed.SenderMac() != senderMac || parsed.SenderIP() != senderIP || parsed.TargetIP() != targetIP {
		t.Fatalf("request fields corrupted: %+v", parsed)
	}

	targetMac := MacAddrFromBytes([]byte{2, 2, 2, 2, 2, 2})
	reply := NewArpReply(targetMac, targetIP, senderMac, senderIP)
	defer reply.Buffer().Release()

	parsedReply, err := ParseArp(reply.Buffer())
	if err != nil {
		t.Fatalf("ParseArp(reply) error = %v", err)
	}
	if parsedReply.Operation() != ArpReply {
		t.Fatalf("Operation() = %v, want ArpReply", parsedReply.Operation())
	}
	if parsedReply.TargetMac() != senderMac || parsedReply.TargetIP() != senderIP {
		t.Fatalf("reply target fields corrupted: %+v", parsedReply)
	}
}

func TestParseArpUnknownOperation(t *testing.T) {
	t.Parallel()

	req := NewArpRequest(MacAddr{}, [4]byte{}, [4]byte{})
	defer req.Buffer().Release()

	b := req.Buffer().Bytes()
	b[6], b[7] = 0, 99 // overwrite operation field with an unknown opcode

	if _, err := ParseArp(req.Buffer()); err != ErrUnknownArpOperation {
		t.Fatalf("ParseArp() with unknown opcode = %v, want ErrUnknownArpOperation", err)
	}
}

func TestParseArpTruncated(t *testing.T) {
	t.Parallel()

	buf := netbufFromBytes(make([]byte, 10))
	if _, err := ParseArp(buf); err == nil {
		t.Fatal("ParseArp() on a truncated buffer succeeded, want error")
	}
}
