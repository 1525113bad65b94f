package model

type Member struct {
	ID       int32
	UserID   int32
	TeamID   int32
	TeamName string
	IsPlayer bool
}

func (m *Member) Role() Role {
	return RoleOf(m.IsPlayer)
}

// MemberInfo is a member joined with its user, team, cached rating and weekly sub requests.
type MemberInfo struct {
	MemberID    int32
	UserID      int32
	ExternalID  string
	DisplayName string
	Handle      string
	TeamName    string
	IsPlayer    bool
	Rating      *int // cached rapid rating, nil when never fetched
	// Requests is indexed by week number, only weeks with a seed are present.
	Requests map[int]bool
}

type LeaveOutcome int

const (
	LeaveRemoved LeaveOutcome = iota
	LeaveDemoted
)

func (o LeaveOutcome) String() string {
	if o == LeaveDemoted {
		return "demoted"
	}
	return "removed"
}
