package rule

import "github.com/kyanagi/yamabuki-cup-app/internal/quiz"

type FinalParams struct {
	PointsToSetWin int
	MissesToWait   int
	StarsToWin     int
	NumWinners     int
}

// final is played in sets. Clearing a set (set_win) lets a contestant collect
// stars, which carry across sets; enough stars win the match.
type final struct {
	params FinalParams
}

func newFinal(params FinalParams) Rule {
	return &final{params: params}
}

func (r *final) Name() Name      { return Final }
func (r *final) NumWinners() int { return r.params.NumWinners }

func (r *final) EditPolicy() EditPolicy {
	return EditPolicy{
		Fields: []quiz.Field{quiz.FieldStatus, quiz.FieldPoints, quiz.FieldMisses, quiz.FieldRank, quiz.FieldStars},
		Statuses: []quiz.Status{
			quiz.StatusPlaying, quiz.StatusWaiting, quiz.StatusSetWin, quiz.StatusWin, quiz.StatusLose,
		},
	}
}

func (r *final) InitialState(seat int) PlayerState {
	return PlayerState{Seat: seat, Status: quiz.StatusPlaying}
}

func (r *final) ApplyQuestionResult(cur Snapshot, outcomes []Outcome) (Snapshot, error) {
	next := cur.Clone()
	idx, err := resolve(next, outcomes)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(next, idx, quiz.StatusPlaying, quiz.StatusSetWin); err != nil {
		return nil, err
	}

	for i, o := range outcomes {
		p := &next[idx[i]]
		switch {
		case p.Status == quiz.StatusSetWin && o.Result == quiz.ResultCorrect:
			p.Stars++
		case p.Status == quiz.StatusSetWin:
			p.Misses++
		case o.Result == quiz.ResultCorrect:
			p.Points++
			if p.Points >= r.params.PointsToSetWin {
				p.Status = quiz.StatusSetWin
			}
		default:
			p.Misses++
			if p.Misses >= r.params.MissesToWait {
				p.Status = quiz.StatusWaiting
			}
		}
	}

	var winners []int
	for _, j := range next.withStatus(quiz.StatusSetWin) {
		if next[j].Stars >= r.params.StarsToWin {
			winners = append(winners, j)
		}
	}
	markWinners(next, takeWinners(next, winners, r.params.NumWinners, byStars))
	return next, nil
}

// TransitionSet starts a new set: points and misses reset, stars stay.
func (r *final) TransitionSet(cur Snapshot) (Snapshot, error) {
	next := cur.Clone()
	for _, j := range next.Undecided() {
		next[j].Status = quiz.StatusPlaying
		next[j].Points = 0
		next[j].Misses = 0
	}
	return next, nil
}

func (r *final) JudgeOnCompletion(cur Snapshot) (Snapshot, error) {
	next := cur.Clone()
	judge(next, r.params.NumWinners, byStars)
	return next, nil
}
