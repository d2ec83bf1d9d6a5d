package quiz

import (
	"time"

	"github.com/google/uuid"
)

type EntryStatus string

const (
	EntryPending    EntryStatus = "pending"
	EntryAccepted   EntryStatus = "accepted"
	EntryWaitlisted EntryStatus = "waitlisted"
	EntryCancelled  EntryStatus = "cancelled"
)

type EntryPhase string

const (
	PhasePrimary   EntryPhase = "primary"
	PhaseSecondary EntryPhase = "secondary"
)

type Entry struct {
	ID         uuid.UUID   `db:"id" json:"id"`
	PlayerID   uuid.UUID   `db:"player_id" json:"player_id"`
	EntryPhase EntryPhase  `db:"entry_phase" json:"entry_phase"`
	Status     EntryStatus `db:"status" json:"status"`
	// Nil means unprioritized. Unique across entries.
	Priority  *int      `db:"priority" json:"priority"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PriorityAssignment is one row of a bulk priority sheet.
type PriorityAssignment struct {
	EntryID  uuid.UUID `json:"entry_id"`
	Priority *int      `json:"priority"`
}
