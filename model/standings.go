package model

import (
	"fmt"
	"sort"
)

type StandingsRow struct {
	MemberID    int32
	DisplayName string
	Handle      string
	Role        Role
	Rating      *int
	Points      int
	Possible    int
	// Requests holds "Yes"/"No" per week for players, "-" for substitutes.
	Requests [WeeksPerSeason]string
}

func (r *StandingsRow) Score() string {
	return fmt.Sprintf("%d/%d", r.Points, r.Possible)
}

type TeamStandings struct {
	Team     string
	Points   int
	Possible int
	Rows     []StandingsRow
}

func (t *TeamStandings) Score() string {
	return fmt.Sprintf("%d/%d", t.Points, t.Possible)
}

type Standings struct {
	Season string
	Teams  []TeamStandings
}

// BuildStandings totals points for the member who actually played each side of every
// decided game. Teams are ordered by name, rows by role, rating, name and handle.
func BuildStandings(season string, members []MemberInfo, games []SeasonGame) *Standings {
	points := make(map[int32]int)
	possible := make(map[int32]int)
	for _, g := range games {
		if g.Result == nil {
			continue
		}
		w, b := g.Result.Points()
		points[g.White.MemberID] += w
		points[g.Black.MemberID] += b
		possible[g.White.MemberID] += 3
		possible[g.Black.MemberID] += 3
	}

	byTeam := make(map[string]*TeamStandings)
	for _, m := range members {
		ts, found := byTeam[m.TeamName]
		if !found {
			ts = &TeamStandings{Team: m.TeamName}
			byTeam[m.TeamName] = ts
		}

		row := StandingsRow{
			MemberID:    m.MemberID,
			DisplayName: m.DisplayName,
			Handle:      m.Handle,
			Role:        RoleOf(m.IsPlayer),
			Rating:      m.Rating,
			Points:      points[m.MemberID],
			Possible:    possible[m.MemberID],
		}
		for w := 1; w <= WeeksPerSeason; w++ {
			switch {
			case !m.IsPlayer:
				row.Requests[w-1] = "-"
			case m.Requests == nil:
				row.Requests[w-1] = ""
			default:
				req, ok := m.Requests[w]
				if !ok {
					row.Requests[w-1] = ""
				} else if req {
					row.Requests[w-1] = "Yes"
				} else {
					row.Requests[w-1] = "No"
				}
			}
		}

		ts.Points += row.Points
		ts.Possible += row.Possible
		ts.Rows = append(ts.Rows, row)
	}

	result := &Standings{Season: season, Teams: make([]TeamStandings, 0, len(byTeam))}
	for _, ts := range byTeam {
		sort.SliceStable(ts.Rows, func(i, j int) bool {
			a, b := ts.Rows[i], ts.Rows[j]
			if a.Role != b.Role {
				return a.Role < b.Role
			}
			ar, br := ratingOrZero(a.Rating), ratingOrZero(b.Rating)
			if ar != br {
				return ar < br
			}
			if a.DisplayName != b.DisplayName {
				return a.DisplayName < b.DisplayName
			}
			return a.Handle < b.Handle
		})
		result.Teams = append(result.Teams, *ts)
	}
	sort.Slice(result.Teams, func(i, j int) bool {
		return result.Teams[i].Team < result.Teams[j].Team
	})
	return result
}

func ratingOrZero(r *int) int {
	if r == nil {
		return 0
	}
	return *r
}
