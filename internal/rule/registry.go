package rule

import (
	"sort"

	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

// Name is the persisted rule identifier stored on rounds.rule.
type Name string

const (
	Round2Omote    Name = "Round2Omote"
	Round2Ura      Name = "Round2Ura"
	Round3Hayaoshi Name = "Round3Hayaoshi"
	Round3Hayabo1  Name = "Round3Hayabo1"
	Round3Hayabo2  Name = "Round3Hayabo2"
	Quarterfinal   Name = "Quarterfinal"
	Semifinal      Name = "Semifinal"
	Playoff        Name = "Playoff"
	Final          Name = "Final"
)

var buzzerEditPolicy = EditPolicy{
	Fields:   []quiz.Field{quiz.FieldStatus, quiz.FieldPoints, quiz.FieldMisses, quiz.FieldRank},
	Statuses: []quiz.Status{quiz.StatusPlaying, quiz.StatusWaiting, quiz.StatusWin, quiz.StatusLose},
}

var pointsEditPolicy = EditPolicy{
	Fields:   []quiz.Field{quiz.FieldStatus, quiz.FieldPoints, quiz.FieldRank},
	Statuses: []quiz.Status{quiz.StatusPlaying, quiz.StatusWin, quiz.StatusLose},
}

var registry = map[Name]Rule{
	Round2Omote: NewBuzzerRule(Round2Omote, BuzzerParams{
		PointsToWin:  2,
		MissesToLose: 2,
		NumWinners:   4,
	}, buzzerEditPolicy),
	Round2Ura: newRound2Ura(),
	Round3Hayaoshi: NewBuzzerRule(Round3Hayaoshi, BuzzerParams{
		PointsToWin:  3,
		MissesToLose: 2,
		NumWinners:   2,
	}, buzzerEditPolicy),
	Round3Hayabo1: NewScoredPushRule(Round3Hayabo1, ScoredPushParams{
		Deltas:           Deltas{PushedCorrect: 3, PushedWrong: -2, UnpushedCorrect: 1, UnpushedWrong: 0},
		SoleCorrectBonus: 1,
		PointsToWin:      10,
		NumWinners:       3,
	}, pointsEditPolicy),
	Round3Hayabo2: NewScoredPushRule(Round3Hayabo2, ScoredPushParams{
		Deltas:           Deltas{PushedCorrect: 2, PushedWrong: -1, UnpushedCorrect: 1, UnpushedWrong: 0},
		SoleCorrectBonus: 1,
		PointsToWin:      8,
		NumWinners:       3,
		AdvantageSeats:   2,
		AdvantagePoints:  1,
	}, pointsEditPolicy),
	Quarterfinal: NewBuzzerRule(Quarterfinal, BuzzerParams{
		PointsToWin:  4,
		MissesToLose: 2,
		NumWinners:   4,
		NumButtons:   6,
		WrongPenalty: 1,
	}, EditPolicy{
		Fields:   []quiz.Field{quiz.FieldStatus, quiz.FieldPoints, quiz.FieldMisses},
		Statuses: []quiz.Status{quiz.StatusPlaying, quiz.StatusWaiting, quiz.StatusWin},
	}),
	Semifinal: newSemifinal(),
	Playoff: newPlayoff(PlayoffParams{
		InitialPoints: 10,
		NumWinners:    7,
	}),
	Final: newFinal(FinalParams{
		PointsToSetWin: 3,
		MissesToWait:   2,
		StarsToWin:     3,
		NumWinners:     1,
	}),
}

// Lookup resolves a persisted rule identifier.
func Lookup(name string) (Rule, error) {
	r, ok := registry[Name(name)]
	if !ok {
		return nil, quiz.Validationf("unknown rule %q", name)
	}
	return r, nil
}

func Names() []Name {
	names := make([]Name, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
