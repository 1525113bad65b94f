package model

import (
	"fmt"
	"time"
)

// Result is from white's point of view.
type Result int8

const (
	RESULT_BLACK_WIN Result = -1
	RESULT_DRAW      Result = 0
	RESULT_WHITE_WIN Result = 1
)

func ParseResult(r int) (Result, error) {
	if r < -1 || r > 1 {
		return 0, NewValidationError(fmt.Sprintf("Result must be in `[-1 0 1]`, got `%d`", r))
	}
	return Result(r), nil
}

func (r Result) String() string {
	switch r {
	case RESULT_WHITE_WIN:
		return "1-0"
	case RESULT_BLACK_WIN:
		return "0-1"
	default:
		return "1/2-1/2"
	}
}

// Points awarded to each side: 3 for a win, 1 for a draw, 0 for a loss.
func (r Result) Points() (white, black int) {
	switch r {
	case RESULT_WHITE_WIN:
		return 3, 0
	case RESULT_BLACK_WIN:
		return 0, 3
	default:
		return 1, 1
	}
}

var drawOutcomes = map[string]bool{
	"agreed":             true,
	"repetition":         true,
	"stalemate":          true,
	"insufficient":       true,
	"50move":             true,
	"timevsinsufficient": true,
}

// ResultFromWhiteOutcome converts the provider's outcome string for the white player.
// Anything that is neither a win nor a draw is a loss for white.
func ResultFromWhiteOutcome(outcome string) Result {
	if outcome == "win" {
		return RESULT_WHITE_WIN
	}
	if drawOutcomes[outcome] {
		return RESULT_DRAW
	}
	return RESULT_BLACK_WIN
}

type Game struct {
	ID          int32
	WhiteSeedID int32
	BlackSeedID int32
	ScheduledAt *time.Time
	ScheduleTZ  string
	EventID     string
	Result      *Result
	URL         string
	ThreadID    string
}

// Participant is the member actually playing one side of a game.
type Participant struct {
	SeedID      int32
	MemberID    int32
	UserID      int32
	ExternalID  string
	DisplayName string
	Handle      string
	TeamName    string
	Rating      *int
}

type SeasonGame struct {
	Game
	Season string
	Week   int
	White  Participant
	Black  Participant
}

type SeedPair struct {
	WhiteSeedID int32
	BlackSeedID int32
}

// ArchivedGame is a finished game from the provider's monthly archive.
type ArchivedGame struct {
	URL         string
	WhiteHandle string
	BlackHandle string
	WhiteResult string
	BlackResult string
	TimeControl string
	Rated       bool
	EndTime     time.Time
}
