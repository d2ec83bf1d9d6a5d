package rule

import (
	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

// semifinal counts correct answers and eliminates only by disqualification.
type semifinal struct{}

func newSemifinal() Rule {
	return semifinal{}
}

func (semifinal) Name() Name             { return Semifinal }
func (semifinal) NumWinners() int        { return 0 }
func (semifinal) EditPolicy() EditPolicy { return pointsEditPolicy }

func (semifinal) InitialState(seat int) PlayerState {
	return PlayerState{Seat: seat, Status: quiz.StatusPlaying}
}

func (semifinal) ApplyQuestionResult(cur Snapshot, outcomes []Outcome) (Snapshot, error) {
	next := cur.Clone()
	idx, err := resolve(next, outcomes)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(next, idx, quiz.StatusPlaying); err != nil {
		return nil, err
	}
	for i, o := range outcomes {
		if o.Result == quiz.ResultCorrect {
			next[idx[i]].Points++
		}
	}
	return next, nil
}

func (semifinal) Disqualify(cur Snapshot, matchingID uuid.UUID) (Snapshot, error) {
	next := cur.Clone()
	j := next.Index(matchingID)
	if j < 0 {
		return nil, quiz.Validationf("matching %s is not part of this match", matchingID)
	}
	if next[j].Status != quiz.StatusPlaying {
		return nil, quiz.StateConflictf("seat %d cannot be disqualified while %s", next[j].Seat, next[j].Status)
	}
	markLosers(next, []int{j})
	return next, nil
}

// JudgeOnCompletion lets every contestant still playing through.
func (semifinal) JudgeOnCompletion(cur Snapshot) (Snapshot, error) {
	next := cur.Clone()
	playing := next.withStatus(quiz.StatusPlaying)
	sortIndices(next, playing, byPoints)
	markWinners(next, playing)
	return next, nil
}
