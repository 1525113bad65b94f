package model

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		input    string
		expected Role
	}{
		{input: "player", expected: ROLE_PLAYER},
		{input: "Player", expected: ROLE_PLAYER},
		{input: " p ", expected: ROLE_PLAYER},
		{input: "substitute", expected: ROLE_SUBSTITUTE},
		{input: "SUB", expected: ROLE_SUBSTITUTE},
		{input: "captain", expected: ROLE_UNKNOWN},
		{input: "", expected: ROLE_UNKNOWN},
	}

	for _, tc := range tests {
		a := ParseRole(tc.input)
		if a != tc.expected {
			t.Errorf("input: '%s', expected: '%s', got '%s'", tc.input, tc.expected, a)
		}
	}
}

func TestRoleOf(t *testing.T) {
	if RoleOf(true) != ROLE_PLAYER {
		t.Errorf("expected player, got %s", RoleOf(true))
	}
	if RoleOf(false) != ROLE_SUBSTITUTE {
		t.Errorf("expected substitute, got %s", RoleOf(false))
	}
}
