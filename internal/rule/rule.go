// Package rule holds the per-round scoring rules. Each rule is a pure function
// from one snapshot of contestant state to the next; persistence lives elsewhere.
package rule

import (
	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/kyanagi/yamabuki-cup-app/internal/utils"
)

// PlayerState is one contestant's state inside a snapshot.
type PlayerState struct {
	MatchingID uuid.UUID
	Seat       int
	Status     quiz.Status
	Points     int
	Misses     int
	Stars      int
	Rank       *int
}

// Snapshot holds every contestant of a match exactly once.
type Snapshot []PlayerState

type Outcome struct {
	MatchingID uuid.UUID
	Result     quiz.Result
	Situation  quiz.Situation
}

type Rule interface {
	Name() Name
	// NumWinners is the number of win slots, or 0 when the rule has no fixed number.
	NumWinners() int
	InitialState(seat int) PlayerState
	ApplyQuestionResult(cur Snapshot, outcomes []Outcome) (Snapshot, error)
	JudgeOnCompletion(cur Snapshot) (Snapshot, error)
	EditPolicy() EditPolicy
}

type SetTransitioner interface {
	TransitionSet(cur Snapshot) (Snapshot, error)
}

type Disqualifier interface {
	Disqualify(cur Snapshot, matchingID uuid.UUID) (Snapshot, error)
}

type QualifierOverrider interface {
	// OverrideQualifiers takes matching id -> rank.
	OverrideQualifiers(cur Snapshot, ranks map[uuid.UUID]int) (Snapshot, error)
}

func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)
	for i := range out {
		out[i].Rank = utils.Clone(out[i].Rank)
	}
	return out
}

func (s Snapshot) Index(matchingID uuid.UUID) int {
	for i := range s {
		if s[i].MatchingID == matchingID {
			return i
		}
	}
	return -1
}

func (s Snapshot) Count(status quiz.Status) int {
	n := 0
	for i := range s {
		if s[i].Status == status {
			n++
		}
	}
	return n
}

// Undecided returns the indices of contestants that are neither win nor lose.
func (s Snapshot) Undecided() []int {
	var idx []int
	for i := range s {
		if !s[i].Status.Decided() {
			idx = append(idx, i)
		}
	}
	return idx
}

func (s Snapshot) withStatus(status quiz.Status) []int {
	var idx []int
	for i := range s {
		if s[i].Status == status {
			idx = append(idx, i)
		}
	}
	return idx
}

// resolve maps outcomes onto snapshot indices, rejecting unknown contestants,
// duplicate answers and values outside the result/situation enums.
func resolve(s Snapshot, outcomes []Outcome) ([]int, error) {
	idx := make([]int, len(outcomes))
	seen := make(map[uuid.UUID]bool, len(outcomes))
	for i, o := range outcomes {
		if !o.Result.Valid() {
			return nil, quiz.Validationf("invalid result %q", o.Result)
		}
		if !o.Situation.Valid() {
			return nil, quiz.Validationf("invalid situation %q", o.Situation)
		}
		j := s.Index(o.MatchingID)
		if j < 0 {
			return nil, quiz.Validationf("matching %s is not part of this match", o.MatchingID)
		}
		if seen[o.MatchingID] {
			return nil, quiz.Validationf("seat %d answered twice", s[j].Seat)
		}
		seen[o.MatchingID] = true
		idx[i] = j
	}
	return idx, nil
}

func requireStatus(s Snapshot, idx []int, allowed ...quiz.Status) error {
	for _, j := range idx {
		ok := false
		for _, st := range allowed {
			if s[j].Status == st {
				ok = true
				break
			}
		}
		if !ok {
			return quiz.StateConflictf("seat %d cannot answer while %s", s[j].Seat, s[j].Status)
		}
	}
	return nil
}
