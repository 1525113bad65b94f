package model

import (
	"strings"
)

type Role string

const (
	ROLE_UNKNOWN    Role = ""
	ROLE_PLAYER     Role = "player"
	ROLE_SUBSTITUTE Role = "substitute"
)

func ParseRole(role string) Role {
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case "player", "p":
		return ROLE_PLAYER
	case "substitute", "sub", "s":
		return ROLE_SUBSTITUTE
	default:
		return ROLE_UNKNOWN
	}
}

func RoleOf(isPlayer bool) Role {
	if isPlayer {
		return ROLE_PLAYER
	}
	return ROLE_SUBSTITUTE
}

func (r Role) IsPlayer() bool {
	return r == ROLE_PLAYER
}
