package logging

import "testing"

func TestNew(t *testing.T) {
	log, err := New("debug", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !log.Core().Enabled(-1) {
		t.Fatal("debug level should be enabled")
	}

	log, err = New("warn", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.Core().Enabled(0) {
		t.Fatal("info should be disabled at warn level")
	}
}

func TestNewBadLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
