package quiz

import "github.com/google/uuid"

type Status string

const (
	StatusPlaying Status = "playing"
	StatusWaiting Status = "waiting"
	StatusWin     Status = "win"
	StatusLose    Status = "lose"
	StatusSetWin  Status = "set_win"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlaying, StatusWaiting, StatusWin, StatusLose, StatusSetWin:
		return true
	}
	return false
}

// Decided reports whether the contestant is out of play for good.
func (s Status) Decided() bool {
	return s == StatusWin || s == StatusLose
}

// Score is one contestant's full state as of one operation. Rows are never updated.
type Score struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OperationID uuid.UUID `db:"operation_id" json:"operation_id"`
	MatchingID  uuid.UUID `db:"matching_id" json:"matching_id"`
	Status      Status    `db:"status" json:"status"`
	Points      int       `db:"points" json:"points"`
	Misses      int       `db:"misses" json:"misses"`
	Rank        *int      `db:"rank" json:"rank"`
	Stars       int       `db:"stars" json:"stars"`
}

// ScoreView joins a score row with its seat and player for the read surface.
type ScoreView struct {
	Score
	Seat       int       `db:"seat" json:"seat"`
	PlayerID   uuid.UUID `db:"player_id" json:"player_id"`
	PlayerName string    `db:"player_name" json:"player_name"`
}
