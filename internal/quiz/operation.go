package quiz

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OperationKind string

const (
	KindMatchOpening      OperationKind = "MatchOpening"
	KindQuestionClosing   OperationKind = "QuestionClosing"
	KindMatchClosing      OperationKind = "MatchClosing"
	KindSetTransition     OperationKind = "SetTransition"
	KindDisqualification  OperationKind = "Disqualification"
	KindFreeEdit          OperationKind = "FreeEdit"
	KindQualifierOverride OperationKind = "QualifierOverride"

	// KindUndo is accepted on the request surface only; it is never persisted.
	KindUndo OperationKind = "Undo"
)

func (k OperationKind) Valid() bool {
	switch k {
	case KindMatchOpening, KindQuestionClosing, KindMatchClosing, KindSetTransition,
		KindDisqualification, KindFreeEdit, KindQualifierOverride, KindUndo:
		return true
	}
	return false
}

type Operation struct {
	ID      uuid.UUID     `db:"id" json:"id"`
	MatchID uuid.UUID     `db:"match_id" json:"match_id"`
	Kind    OperationKind `db:"kind" json:"kind"`

	PreviousOperationID *uuid.UUID `db:"previous_operation_id" json:"previous_operation_id"`
	// Depth equals len(Path).
	Depth int `db:"depth" json:"depth"`

	Operator  string    `db:"created_by" json:"operator"`
	Payload   string    `db:"payload" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Every ancestor id, oldest first. Loaded from operation_ancestors.
	Path []uuid.UUID `db:"-" json:"path"`
}

// NextPath is the path a successor of op carries.
func (op *Operation) NextPath() []uuid.UUID {
	if op == nil {
		return []uuid.UUID{}
	}
	path := make([]uuid.UUID, 0, len(op.Path)+1)
	path = append(path, op.Path...)
	return append(path, op.ID)
}

func (op *Operation) SetPayload(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", op.Kind, err)
	}
	op.Payload = string(b)
	return nil
}

func (op *Operation) DecodePayload(v any) error {
	if op.Payload == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(op.Payload), v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", op.Kind, err)
	}
	return nil
}

type QuestionClosingPayload struct {
	QuestionNumber *int `json:"question_number,omitempty"`
}

type DisqualificationPayload struct {
	PlayerID uuid.UUID `json:"player_id"`
	Seat     int       `json:"seat"`
}

type FreeEditPayload struct {
	Edits []FieldEdit `json:"edits"`
}

type QualifierOverridePayload struct {
	Qualifiers []Qualifier `json:"qualifiers"`
}

type Qualifier struct {
	PlayerID uuid.UUID `json:"player_id"`
	Rank     int       `json:"rank"`
}
