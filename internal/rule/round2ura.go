package rule

import (
	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

const uraQualifiers = 4

// round2Ura has no automatic scoring; organizers stamp the qualifiers.
type round2Ura struct{}

func newRound2Ura() Rule {
	return round2Ura{}
}

func (round2Ura) Name() Name      { return Round2Ura }
func (round2Ura) NumWinners() int { return uraQualifiers }

func (round2Ura) EditPolicy() EditPolicy {
	return EditPolicy{
		Fields:         []quiz.Field{quiz.FieldStatus, quiz.FieldRank},
		Statuses:       []quiz.Status{quiz.StatusPlaying, quiz.StatusWin, quiz.StatusLose},
		UnrankedLosers: true,
	}
}

func (round2Ura) InitialState(seat int) PlayerState {
	return PlayerState{Seat: seat, Status: quiz.StatusPlaying}
}

func (round2Ura) ApplyQuestionResult(Snapshot, []Outcome) (Snapshot, error) {
	return nil, quiz.StateConflictf("%s qualifiers are set by qualifier override only", Round2Ura)
}

func (round2Ura) JudgeOnCompletion(Snapshot) (Snapshot, error) {
	return nil, quiz.StateConflictf("%s qualifiers are set by qualifier override only", Round2Ura)
}

func (round2Ura) OverrideQualifiers(cur Snapshot, ranks map[uuid.UUID]int) (Snapshot, error) {
	if len(ranks) != uraQualifiers {
		return nil, quiz.StateConflictf("exactly %d qualifiers are required, got %d", uraQualifiers, len(ranks))
	}
	taken := make(map[int]bool, uraQualifiers)
	for id, rank := range ranks {
		if cur.Index(id) < 0 {
			return nil, quiz.Validationf("matching %s is not part of this match", id)
		}
		if rank < 1 || rank > uraQualifiers || taken[rank] {
			return nil, quiz.StateConflictf("qualifier ranks must be 1 to %d, each once", uraQualifiers)
		}
		taken[rank] = true
	}

	next := cur.Clone()
	for i := range next {
		if rank, ok := ranks[next[i].MatchingID]; ok {
			r := rank
			next[i].Status = quiz.StatusWin
			next[i].Rank = &r
			continue
		}
		next[i].Status = quiz.StatusLose
		next[i].Rank = nil
	}
	return next, nil
}
