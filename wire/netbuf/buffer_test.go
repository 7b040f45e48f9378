package netbuf_test

import (
	"bytes"
	"testing"

	. "github.com/canndrew/netsim-sub001/wire/netbuf"
)

func TestWriteAndBytes(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Release()

	n, err := b.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write() = (%d, %v), want (5, nil)", n, err)
	}
	if !bytes.Equal(b.Bytes(), []byte("hello")) {
		t.Fatalf("Bytes() = %q, want %q", b.Bytes(), "hello")
	}
	if b.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", b.Len())
	}
}

func TestAdvanceExposesInnerLayer(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Release()
	b.Write([]byte("HEADERpayload"))

	b.Advance(6)
	if !bytes.Equal(b.Bytes(), []byte("payload")) {
		t.Fatalf("Bytes() after Advance = %q, want %q", b.Bytes(), "payload")
	}
}

func TestExtendZeroesNewRegion(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Release()
	b.Write([]byte{0xff, 0xff})

	ext := b.Extend(4)
	for i, v := range ext {
		if v != 0 {
			t.Fatalf("Extend()[%d] = %x, want 0", i, v)
		}
	}
	if b.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", b.Len())
	}
}

func TestFromBytesDoesNotRecycle(t *testing.T) {
	t.Parallel()

	backing := []byte("owned by caller")
	b := FromBytes(backing)
	b.Release()

	if !bytes.Equal(backing, []byte("owned by caller")) {
		t.Fatal("Release() on an external Buffer mutated the caller's slice")
	}
}

func TestCloneSharesBytesUntilLastRelease(t *testing.T) {
	t.Parallel()

	a := New()
	a.Write([]byte("shared"))
	b := a.Clone()

	if !bytes.Equal(b.Bytes(), []byte("shared")) {
		t.Fatalf("Clone().Bytes() = %q, want %q", b.Bytes(), "shared")
	}

	a.Release()
	// b still owns a live reference; its bytes must remain readable.
	if !bytes.Equal(b.Bytes(), []byte("shared")) {
		t.Fatal("clone's bytes became invalid after the original released")
	}
	b.Release()
}

func TestResizeNegativeOffsets(t *testing.T) {
	t.Parallel()

	b := New()
	defer b.Release()
	b.Write([]byte("0123456789"))

	b.Resize(2, -2)
	if !bytes.Equal(b.Bytes(), []byte("234567")) {
		t.Fatalf("Bytes() after Resize(2,-2) = %q, want %q", b.Bytes(), "234567")
	}
}
