package chesscom

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vietd88/grubberbot/model"
)

var numberRegex = regexp.MustCompile(`\d+`)

type Record struct {
	Win  int `json:"win"`
	Draw int `json:"draw"`
	Loss int `json:"loss"`
}

func (r *Record) total() int {
	if r == nil {
		return 0
	}
	return r.Win + r.Draw + r.Loss
}

type Last struct {
	Rating int   `json:"rating"`
	Date   int64 `json:"date"`
}

type Category struct {
	Last   *Last   `json:"last"`
	Record *Record `json:"record"`
}

func (c *Category) games() int {
	if c == nil {
		return 0
	}
	return c.Record.total()
}

func (c *Category) rating() (*int, *time.Time) {
	if c == nil || c.Last == nil {
		return nil, nil
	}
	r := c.Last.Rating
	d := time.Unix(c.Last.Date, 0).UTC()
	return &r, &d
}

// PlayerStats is the subset of /pub/player/{handle}/stats the league uses.
type PlayerStats struct {
	Rapid    *Category `json:"chess_rapid"`
	Blitz    *Category `json:"chess_blitz"`
	Bullet   *Category `json:"chess_bullet"`
	Daily    *Category `json:"chess_daily"`
	Daily960 *Category `json:"chess960_daily"`
}

func (s *PlayerStats) Rating(checked time.Time) *model.Rating {
	r := &model.Rating{Checked: checked}
	r.Rapid, r.RapidLast = s.Rapid.rating()
	r.Blitz, r.BlitzLast = s.Blitz.rating()
	r.Bullet, r.BulletLast = s.Bullet.rating()
	return r
}

// GameCounts sums win/draw/loss records. Total covers rapid, blitz, bullet, daily and daily 960.
func (s *PlayerStats) GameCounts(checked time.Time) *model.GameCounts {
	c := &model.GameCounts{
		Rapid:   s.Rapid.games(),
		Blitz:   s.Blitz.games(),
		Bullet:  s.Bullet.games(),
		Checked: checked,
	}
	c.Total = c.Rapid + c.Blitz + c.Bullet + s.Daily.games() + s.Daily960.games()
	return c
}

type archivePlayer struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
}

type archivedGame struct {
	URL         string        `json:"url"`
	TimeControl string        `json:"time_control"`
	Rated       bool          `json:"rated"`
	EndTime     int64         `json:"end_time"`
	White       archivePlayer `json:"white"`
	Black       archivePlayer `json:"black"`
}

type monthlyArchive struct {
	Games []archivedGame `json:"games"`
}

func (g *archivedGame) toArchivedGame() model.ArchivedGame {
	return model.ArchivedGame{
		URL:         g.URL,
		WhiteHandle: strings.ToLower(g.White.Username),
		BlackHandle: strings.ToLower(g.Black.Username),
		WhiteResult: g.White.Result,
		BlackResult: g.Black.Result,
		TimeControl: g.TimeControl,
		Rated:       g.Rated,
		EndTime:     time.Unix(g.EndTime, 0).UTC(),
	}
}

// GameIDFromURL returns the largest integer in a game url, which is the provider's game id.
func GameIDFromURL(u string) (int64, bool) {
	var max int64
	found := false
	for _, m := range numberRegex.FindAllString(u, -1) {
		n, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		if !found || n > max {
			max = n
			found = true
		}
	}
	return max, found
}
