package model

import (
	"fmt"
	"time"
)

const (
	// SeasonNameFormat produces names like "2024March".
	SeasonNameFormat = "2006January"
	SignupTeam       = "signup"
	WeeksPerSeason   = 4
)

type Season struct {
	ID     int32
	Name   string
	Starts time.Time
}

type Team struct {
	ID       int32
	SeasonID int32
	Name     string
}

func (t *Team) IsSignup() bool {
	return t.Name == SignupTeam
}

// SeasonName returns the name of the season offset months from t.
func SeasonName(t time.Time, offset int) string {
	return SeasonStart(t, offset).Format(SeasonNameFormat)
}

// SeasonStart returns midnight UTC on the first day of the month offset months from t.
func SeasonStart(t time.Time, offset int) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, offset, 0)
}

func ParseSeasonName(name string) (time.Time, error) {
	t, err := time.Parse(SeasonNameFormat, name)
	if err != nil {
		return time.Time{}, NewValidationError(fmt.Sprintf("season name must look like `%s`, got `%s`",
			time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).Format(SeasonNameFormat), name))
	}
	return t, nil
}

func ValidWeek(week int) bool {
	return week >= 1 && week <= WeeksPerSeason
}

func WeekError(week int) error {
	return NewValidationError(fmt.Sprintf("Expected one of `[1 2 3 4]`, instead got `%d`", week))
}
