package model

// Seed is the weekly obligation of a member. SubMemberID is who currently plays it.
type Seed struct {
	ID          int32
	WeekID      int32
	WeekNum     int
	MemberID    int32
	SubMemberID int32
	Request     bool
	Note        string
	SubThreadID string
}

func (s *Seed) Substituted() bool {
	return s.MemberID != s.SubMemberID
}

// SubAnnouncement describes a slot that needs a substitute announced to its team.
type SubAnnouncement struct {
	SeedID      int32
	Season      string
	Week        int
	TeamName    string
	DisplayName string
	ExternalID  string
}

// ClaimSource is the slot a substitute is claiming, resolved through its current holder.
type ClaimSource struct {
	SeedID      int32
	Season      string
	Week        int
	TeamName    string
	Request     bool
	HolderID    int32 // member currently holding the slot
	HolderName  string
	Handle      string
	OriginalID  int32
	SubThreadID string
}
