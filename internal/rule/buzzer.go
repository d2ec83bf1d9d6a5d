package rule

import "github.com/kyanagi/yamabuki-cup-app/internal/quiz"

// BuzzerParams configures the buzzer-elimination template.
type BuzzerParams struct {
	PointsToWin  int
	MissesToLose int
	NumWinners   int
	// NumButtons is how many contestants play at once; 0 seats everyone.
	NumButtons int
	// WrongPenalty is deducted from points on every wrong answer.
	WrongPenalty int
}

type buzzerRule struct {
	name   Name
	params BuzzerParams
	policy EditPolicy
}

func NewBuzzerRule(name Name, params BuzzerParams, policy EditPolicy) Rule {
	return &buzzerRule{name: name, params: params, policy: policy}
}

func (r *buzzerRule) Name() Name             { return r.name }
func (r *buzzerRule) NumWinners() int        { return r.params.NumWinners }
func (r *buzzerRule) EditPolicy() EditPolicy { return r.policy }

func (r *buzzerRule) InitialState(seat int) PlayerState {
	status := quiz.StatusPlaying
	if r.params.NumButtons > 0 && seat > r.params.NumButtons {
		status = quiz.StatusWaiting
	}
	return PlayerState{Seat: seat, Status: status}
}

func (r *buzzerRule) ApplyQuestionResult(cur Snapshot, outcomes []Outcome) (Snapshot, error) {
	next := cur.Clone()
	idx, err := resolve(next, outcomes)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(next, idx, quiz.StatusPlaying); err != nil {
		return nil, err
	}

	for i, o := range outcomes {
		p := &next[idx[i]]
		switch o.Result {
		case quiz.ResultCorrect:
			p.Points++
		case quiz.ResultWrong:
			p.Misses++
			p.Points -= r.params.WrongPenalty
		}
	}

	// Thresholds resolve together once the whole question is applied.
	var winners, losers []int
	for _, j := range next.withStatus(quiz.StatusPlaying) {
		switch {
		case next[j].Points >= r.params.PointsToWin:
			winners = append(winners, j)
		case next[j].Misses >= r.params.MissesToLose:
			losers = append(losers, j)
		}
	}
	markWinners(next, takeWinners(next, winners, r.params.NumWinners, byPoints))
	sortIndices(next, losers, byPoints)
	markLosers(next, losers)

	fillButtons(next, r.params.NumButtons)
	settle(next, r.params.NumWinners)
	return next, nil
}

func (r *buzzerRule) JudgeOnCompletion(cur Snapshot) (Snapshot, error) {
	next := cur.Clone()
	judge(next, r.params.NumWinners, byPoints)
	return next, nil
}

// fillButtons seats the lowest-seat waiting contestants until every button is taken.
func fillButtons(s Snapshot, buttons int) {
	if buttons <= 0 {
		return
	}
	for s.Count(quiz.StatusPlaying) < buttons {
		next := -1
		for _, j := range s.withStatus(quiz.StatusWaiting) {
			if next < 0 || s[j].Seat < s[next].Seat {
				next = j
			}
		}
		if next < 0 {
			return
		}
		s[next].Status = quiz.StatusPlaying
	}
}
