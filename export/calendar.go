package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/vietd88/grubberbot/model"
)

const (
	CalendarContentType = "text/calendar; charset=utf-8"
	GameLength          = time.Hour
)

// Calendar renders the scheduled games of a season as an iCalendar feed. Games without a
// time or event id are skipped. stamp is written as DTSTAMP on every event.
func Calendar(season string, games []model.SeasonGame, stamp time.Time) string {
	cal := ics.NewCalendarFor("grubberbot")
	cal.SetProductId("-//grubberbot//league calendar//EN")
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName(season + " league games")

	for _, g := range games {
		if g.ScheduledAt == nil || g.EventID == "" {
			continue
		}
		start := g.ScheduledAt.UTC()
		event := cal.AddEvent(g.EventID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(GameLength))
		event.SetSummary(fmt.Sprintf("%s vs %s", g.White.DisplayName, g.Black.DisplayName))
		event.SetDescription(description(g))
	}

	// RFC 5545 wants CRLF whatever the platform.
	return cal.Serialize(ics.WithNewLineWindows)
}

func description(g model.SeasonGame) string {
	desc := fmt.Sprintf("%s week %d, game %d. %s (%s) plays white against %s (%s).",
		g.Season, g.Week, g.ID, g.White.Handle, g.White.TeamName, g.Black.Handle, g.Black.TeamName)
	if g.ScheduleTZ != "" {
		desc += " Scheduled in " + g.ScheduleTZ + "."
	}
	return desc
}
