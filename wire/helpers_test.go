package wire_test

import "github.com/canndrew/netsim-sub001/wire/netbuf"

func netbufFromBytes(b []byte) *netbuf.Buffer {
	return netbuf.FromBytes(b)
}
