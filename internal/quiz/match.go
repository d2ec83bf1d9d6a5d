package quiz

import (
	"time"

	"github.com/google/uuid"
)

type Player struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Round struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Rule      string    `db:"rule" json:"rule"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Match struct {
	ID          uuid.UUID `db:"id" json:"id"`
	RoundID     uuid.UUID `db:"round_id" json:"round_id"`
	MatchNumber int       `db:"match_number" json:"match_number"`
	Name        string    `db:"name" json:"name"`

	// Head of the operation chain. Nil until the match is opened.
	LastOperationID *uuid.UUID `db:"last_operation_id" json:"last_operation_id"`
	LockVersion     int        `db:"lock_version" json:"lock_version"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (m *Match) Opened() bool {
	return m.LastOperationID != nil
}

// Matching is one contestant's seat in a match. Seat doubles as the ranking tie-break.
type Matching struct {
	ID       uuid.UUID `db:"id" json:"id"`
	MatchID  uuid.UUID `db:"match_id" json:"match_id"`
	PlayerID uuid.UUID `db:"player_id" json:"player_id"`
	Seat     int       `db:"seat" json:"seat"`
}
