package log_test

import (
	"testing"

	. "github.com/canndrew/netsim-sub001/common/log"
)

type testHandler struct {
	value string
}

func (h *testHandler) Handle(msg Message) {
	h.value = msg.String()
}

type stringMessage string

func (m stringMessage) String() string { return string(m) }

func TestRecordFiltersBySeverity(t *testing.T) {
	var h testHandler
	RegisterHandler(&h)
	SetLevel(SeverityWarning)
	defer SetLevel(SeverityInfo)

	Record(&GeneralMessage{Severity: SeverityDebug, Content: stringMessage("should be dropped")})
	if h.value != "" {
		t.Fatalf("handler got %q, want no message for a below-threshold severity", h.value)
	}

	Record(&GeneralMessage{Severity: SeverityError, Content: stringMessage("boom")})
	if h.value != "boom" {
		t.Fatalf("handler got %q, want %q", h.value, "boom")
	}
}

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{
		"debug":   SeverityDebug,
		"info":    SeverityInfo,
		"warning": SeverityWarning,
		"warn":    SeverityWarning,
		"error":   SeverityError,
	}
	for in, want := range cases {
		got, ok := ParseSeverity(in)
		if !ok || got != want {
			t.Errorf("ParseSeverity(%q) = (%v, %v), want (%v, true)", in, got, ok, want)
		}
	}
	if _, ok := ParseSeverity("nonsense"); ok {
		t.Error("ParseSeverity(\"nonsense\") reported ok, want false")
	}
}
