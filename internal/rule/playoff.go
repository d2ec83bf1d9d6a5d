package rule

import "github.com/kyanagi/yamabuki-cup-app/internal/quiz"

type PlayoffParams struct {
	InitialPoints int
	NumWinners    int
}

// playoff eliminates by attrition: wrong answers and passes drain points.
type playoff struct {
	params PlayoffParams
}

func newPlayoff(params PlayoffParams) Rule {
	return &playoff{params: params}
}

func (r *playoff) Name() Name             { return Playoff }
func (r *playoff) NumWinners() int        { return r.params.NumWinners }
func (r *playoff) EditPolicy() EditPolicy { return pointsEditPolicy }

func (r *playoff) InitialState(seat int) PlayerState {
	return PlayerState{Seat: seat, Status: quiz.StatusPlaying, Points: r.params.InitialPoints}
}

func (r *playoff) ApplyQuestionResult(cur Snapshot, outcomes []Outcome) (Snapshot, error) {
	next := cur.Clone()

	if len(outcomes) == 0 {
		// A pass never takes anyone below one point.
		for _, j := range next.withStatus(quiz.StatusPlaying) {
			if next[j].Points > 1 {
				next[j].Points--
			}
		}
	} else {
		idx, err := resolve(next, outcomes)
		if err != nil {
			return nil, err
		}
		if err := requireStatus(next, idx, quiz.StatusPlaying); err != nil {
			return nil, err
		}
		for i, o := range outcomes {
			if o.Result == quiz.ResultWrong {
				next[idx[i]].Points--
			}
		}
	}

	var losers []int
	for _, j := range next.withStatus(quiz.StatusPlaying) {
		if next[j].Points <= 0 {
			losers = append(losers, j)
		}
	}
	sortIndices(next, losers, byPoints)
	markLosers(next, losers)

	settle(next, r.params.NumWinners)
	return next, nil
}

func (r *playoff) JudgeOnCompletion(cur Snapshot) (Snapshot, error) {
	next := cur.Clone()
	judge(next, r.params.NumWinners, byPoints)
	return next, nil
}
