package export

import (
	"fmt"
	"sort"

	"github.com/vietd88/grubberbot/model"
	"github.com/xuri/excelize/v2"
)

const (
	SignupsSheet = "Signups"
	// XLSXContentType is the media type of Workbook output.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func WeekSheet(week int) string {
	return fmt.Sprintf("Week %d", week)
}

// Workbook builds the season spreadsheet: a sign up list, one standings sheet per team
// and the pairings of every week that has games.
func Workbook(standings *model.Standings, members []model.MemberInfo, weeks map[int][]model.SeasonGame) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating header style: %w", err)
	}
	w := &writer{f: f, header: header}

	if err := w.signups(members); err != nil {
		return nil, fmt.Errorf("error writing signups sheet: %w", err)
	}
	for _, team := range standings.Teams {
		if team.Team == model.SignupTeam {
			continue
		}
		if err := w.team(team); err != nil {
			return nil, fmt.Errorf("error writing sheet for %s: %w", team.Team, err)
		}
	}

	nums := make([]int, 0, len(weeks))
	for n := range weeks {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for _, n := range nums {
		if err := w.week(n, weeks[n]); err != nil {
			return nil, fmt.Errorf("error writing week %d: %w", n, err)
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type writer struct {
	f      *excelize.File
	header int
}

func (w *writer) sheet(name string, headers []string, rows [][]any) error {
	if _, err := w.f.NewSheet(name); err != nil {
		return err
	}
	for i, h := range headers {
		if err := w.f.SetCellValue(name, cell(i+1, 1), h); err != nil {
			return err
		}
	}
	if len(headers) > 0 {
		if err := w.f.SetCellStyle(name, cell(1, 1), cell(len(headers), 1), w.header); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil || v == "" {
				continue
			}
			if err := w.f.SetCellValue(name, cell(c+1, r+2), v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) signups(members []model.MemberInfo) error {
	sorted := make([]model.MemberInfo, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TeamName != sorted[j].TeamName {
			return sorted[i].TeamName < sorted[j].TeamName
		}
		return sorted[i].DisplayName < sorted[j].DisplayName
	})

	rows := make([][]any, 0, len(sorted))
	for _, m := range sorted {
		rows = append(rows, []any{m.DisplayName, m.Handle, m.TeamName, string(model.RoleOf(m.IsPlayer)), rating(m.Rating)})
	}
	return w.sheet(SignupsSheet, []string{"Name", "Chess.com", "Team", "Role", "Rapid"}, rows)
}

func (w *writer) team(t model.TeamStandings) error {
	headers := []string{"Name", "Chess.com", "Role", "Rapid", "Score"}
	for n := 1; n <= model.WeeksPerSeason; n++ {
		headers = append(headers, fmt.Sprintf("Week %d Sub", n))
	}

	rows := make([][]any, 0, len(t.Rows)+1)
	for _, r := range t.Rows {
		row := []any{r.DisplayName, r.Handle, string(r.Role), rating(r.Rating), r.Score()}
		for _, req := range r.Requests {
			row = append(row, req)
		}
		rows = append(rows, row)
	}
	rows = append(rows, []any{"Total", nil, nil, nil, t.Score()})
	return w.sheet(t.Team, headers, rows)
}

func (w *writer) week(n int, games []model.SeasonGame) error {
	rows := make([][]any, 0, len(games))
	for _, g := range games {
		var scheduled, result any
		if g.ScheduledAt != nil {
			scheduled = g.ScheduledAt.UTC().Format("2006-01-02 15:04 MST")
		}
		if g.Result != nil {
			result = g.Result.String()
		}
		rows = append(rows, []any{g.ID, g.White.DisplayName, g.White.Handle, g.White.TeamName,
			g.Black.DisplayName, g.Black.Handle, g.Black.TeamName, scheduled, result, g.URL})
	}
	headers := []string{"Game", "White", "White Chess.com", "White Team",
		"Black", "Black Chess.com", "Black Team", "Scheduled", "Result", "URL"}
	return w.sheet(WeekSheet(n), headers, rows)
}

func rating(r *int) any {
	if r == nil {
		return nil
	}
	return *r
}

func cell(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}
