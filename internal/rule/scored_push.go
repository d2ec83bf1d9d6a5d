package rule

import "github.com/kyanagi/yamabuki-cup-app/internal/quiz"

// Deltas is the point table indexed by situation and result.
type Deltas struct {
	PushedCorrect   int
	PushedWrong     int
	UnpushedCorrect int
	UnpushedWrong   int
}

func (d Deltas) For(situation quiz.Situation, result quiz.Result) int {
	switch {
	case situation == quiz.SituationPushed && result == quiz.ResultCorrect:
		return d.PushedCorrect
	case situation == quiz.SituationPushed && result == quiz.ResultWrong:
		return d.PushedWrong
	case situation == quiz.SituationUnpushed && result == quiz.ResultCorrect:
		return d.UnpushedCorrect
	default:
		return d.UnpushedWrong
	}
}

// ScoredPushParams configures the scored-push (hayabo) template.
type ScoredPushParams struct {
	Deltas Deltas
	// SoleCorrectBonus goes to the only correct responder of a question.
	SoleCorrectBonus int
	PointsToWin      int
	NumWinners       int
	// Seats 1..AdvantageSeats start with AdvantagePoints.
	AdvantageSeats  int
	AdvantagePoints int
}

type scoredPushRule struct {
	name   Name
	params ScoredPushParams
	policy EditPolicy
}

func NewScoredPushRule(name Name, params ScoredPushParams, policy EditPolicy) Rule {
	return &scoredPushRule{name: name, params: params, policy: policy}
}

func (r *scoredPushRule) Name() Name             { return r.name }
func (r *scoredPushRule) NumWinners() int        { return r.params.NumWinners }
func (r *scoredPushRule) EditPolicy() EditPolicy { return r.policy }

func (r *scoredPushRule) InitialState(seat int) PlayerState {
	state := PlayerState{Seat: seat, Status: quiz.StatusPlaying}
	if seat <= r.params.AdvantageSeats {
		state.Points = r.params.AdvantagePoints
	}
	return state
}

func (r *scoredPushRule) ApplyQuestionResult(cur Snapshot, outcomes []Outcome) (Snapshot, error) {
	next := cur.Clone()
	idx, err := resolve(next, outcomes)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(next, idx, quiz.StatusPlaying); err != nil {
		return nil, err
	}

	sole := -1
	corrects := 0
	for i, o := range outcomes {
		next[idx[i]].Points += r.params.Deltas.For(o.Situation, o.Result)
		if o.Result == quiz.ResultCorrect {
			corrects++
			sole = idx[i]
		}
	}
	if corrects == 1 {
		next[sole].Points += r.params.SoleCorrectBonus
	}

	var winners []int
	for _, j := range next.withStatus(quiz.StatusPlaying) {
		if next[j].Points >= r.params.PointsToWin {
			winners = append(winners, j)
		}
	}
	markWinners(next, takeWinners(next, winners, r.params.NumWinners, byPoints))
	settle(next, r.params.NumWinners)
	return next, nil
}

func (r *scoredPushRule) JudgeOnCompletion(cur Snapshot) (Snapshot, error) {
	next := cur.Clone()
	judge(next, r.params.NumWinners, byPoints)
	return next, nil
}
