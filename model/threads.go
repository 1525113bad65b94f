package model

import (
	"fmt"
	"strconv"
	"strings"
)

func PairingThreadName(gameID int32, season string, week int, white, black string) string {
	return fmt.Sprintf("g%d %s Week%d | %s vs %s", gameID, season, week, white, black)
}

func SubstituteThreadName(seedID int32) string {
	return fmt.Sprintf("s%d Substitute Request", seedID)
}

// GameIDFromThreadName extracts the game id from a pairing thread title.
func GameIDFromThreadName(title string) (int32, error) {
	first, _, _ := strings.Cut(title, " ")
	if !strings.HasPrefix(first, "g") {
		return 0, NewValidationError("This command must be used in a game thread")
	}
	id, err := strconv.ParseInt(first[1:], 10, 32)
	if err != nil {
		return 0, NewValidationError("This command must be used in a game thread")
	}
	return int32(id), nil
}
