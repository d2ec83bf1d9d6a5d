package quiz

import (
	"time"

	"github.com/google/uuid"
)

type Result string

const (
	ResultCorrect Result = "correct"
	ResultWrong   Result = "wrong"
)

func (r Result) Valid() bool {
	return r == ResultCorrect || r == ResultWrong
}

type Situation string

const (
	SituationPushed   Situation = "pushed"
	SituationUnpushed Situation = "unpushed"
)

func (s Situation) Valid() bool {
	return s == SituationPushed || s == SituationUnpushed
}

// QuestionResult is owned by exactly one QuestionClosing operation.
type QuestionResult struct {
	ID             uuid.UUID `db:"id" json:"id"`
	MatchID        uuid.UUID `db:"match_id" json:"match_id"`
	OperationID    uuid.UUID `db:"operation_id" json:"operation_id"`
	QuestionNumber *int      `db:"question_number" json:"question_number"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	Outcomes []PlayerQuestionOutcome `db:"-" json:"outcomes"`
}

type PlayerQuestionOutcome struct {
	QuestionResultID uuid.UUID `db:"question_result_id" json:"-"`
	MatchingID       uuid.UUID `db:"matching_id" json:"matching_id"`
	PlayerID         uuid.UUID `db:"player_id" json:"player_id"`
	Result           Result    `db:"result" json:"result"`
	Situation        Situation `db:"situation" json:"situation"`
}
