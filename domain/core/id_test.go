package core

import (
	"testing"
)

func TestNewID(t *testing.T) {
	id1 := NewID()
	id2 := NewID()

	if id1.IsEmpty() {
		t.Error("NewID returned empty ID")
	}
	if id1 == id2 {
		t.Error("NewID returned duplicate IDs")
	}
	if len(id1.String()) != 36 {
		t.Errorf("ID length = %d, want 36", len(id1.String()))
	}
}

func TestParseRunID(t *testing.T) {
	id, err := ParseRunID("run-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() != "run-123" {
		t.Errorf("ParseRunID = %q", id)
	}

	for _, s := range []string{"", "   "} {
		if _, err := ParseRunID(s); err == nil {
			t.Errorf("ParseRunID(%q) should fail", s)
		}
	}
}

func TestHash(t *testing.T) {
	h := NewHash([]byte("scenario"))
	if h.IsEmpty() {
		t.Error("NewHash returned empty hash")
	}
	if h != NewHash([]byte("scenario")) {
		t.Error("hash not deterministic")
	}
	if h == NewHash([]byte("scenario2")) {
		t.Error("distinct inputs collided")
	}
	if len(h.Short()) != 12 {
		t.Errorf("Short length = %d", len(h.Short()))
	}
}
