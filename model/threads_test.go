package model

import "testing"

func TestThreadNames(t *testing.T) {
	name := PairingThreadName(42, "2024March", 2, "alice", "bob")
	if name != "g42 2024March Week2 | alice vs bob" {
		t.Errorf("unexpected pairing thread name: %s", name)
	}

	id, err := GameIDFromThreadName(name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("expected 42, got %d", id)
	}

	if SubstituteThreadName(7) != "s7 Substitute Request" {
		t.Errorf("unexpected substitute thread name: %s", SubstituteThreadName(7))
	}

	for _, bad := range []string{"s7 Substitute Request", "general", "gx Week1"} {
		if _, err := GameIDFromThreadName(bad); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}
