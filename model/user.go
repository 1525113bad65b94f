package model

import (
	"strings"
	"time"
)

// User is a chat identity, optionally linked to a rating provider handle.
type User struct {
	ID          int32
	ExternalID  string
	DisplayName string
	Handle      string // empty until linked
	Created     time.Time
	Updated     time.Time
}

func (u *User) Linked() bool {
	return u.Handle != ""
}

// NormalizeHandle is the form handles are stored and rated under. Chess.com
// usernames are case-insensitive.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// ChatUser identifies the caller of a chat command.
type ChatUser struct {
	ExternalID  string
	DisplayName string
}
