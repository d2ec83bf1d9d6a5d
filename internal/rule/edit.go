package rule

import (
	"slices"

	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

// EditPolicy is the allow-list a rule applies to manual edits.
type EditPolicy struct {
	Fields   []quiz.Field
	Statuses []quiz.Status

	// UnrankedLosers leaves contestants edited to lose without a rank.
	UnrankedLosers bool
}

func (p EditPolicy) Check(e quiz.FieldEdit) error {
	for _, f := range e.Fields() {
		if !slices.Contains(p.Fields, f) {
			return quiz.StateConflictf("field %q cannot be edited in this round", f)
		}
	}
	if e.Status != nil && !slices.Contains(p.Statuses, *e.Status) {
		return quiz.StateConflictf("status %q is not allowed in this round", *e.Status)
	}
	return nil
}

// Edit is a FieldEdit resolved to a seat of the match.
type Edit struct {
	MatchingID uuid.UUID
	quiz.FieldEdit
}

// ApplyEdits overwrites the edited fields and copies everyone else unchanged.
// A status edit without a rank clears the rank of a contestant back in play
// and stamps a free one on a new winner or loser.
func ApplyEdits(r Rule, cur Snapshot, edits []Edit) (Snapshot, error) {
	if len(edits) == 0 {
		return nil, quiz.Validationf("free edit needs at least one change")
	}
	policy := r.EditPolicy()
	next := cur.Clone()
	seen := make(map[uuid.UUID]bool, len(edits))
	var won, lost []int

	for _, e := range edits {
		j := next.Index(e.MatchingID)
		if j < 0 {
			return nil, quiz.Validationf("matching %s is not part of this match", e.MatchingID)
		}
		if seen[e.MatchingID] {
			return nil, quiz.Validationf("seat %d edited twice", next[j].Seat)
		}
		seen[e.MatchingID] = true
		if len(e.Fields()) == 0 {
			return nil, quiz.Validationf("edit for seat %d changes nothing", next[j].Seat)
		}
		if e.Status != nil && !e.Status.Valid() {
			return nil, quiz.Validationf("invalid status %q", *e.Status)
		}
		if err := policy.Check(e.FieldEdit); err != nil {
			return nil, err
		}
		if err := checkEditValues(e.FieldEdit, len(next)); err != nil {
			return nil, err
		}

		p := &next[j]
		if e.Status != nil {
			changed := p.Status != *e.Status
			p.Status = *e.Status
			if e.Rank == nil {
				switch {
				case !p.Status.Decided():
					p.Rank = nil
				case p.Status == quiz.StatusLose && policy.UnrankedLosers:
					p.Rank = nil
				case changed || p.Rank == nil:
					p.Rank = nil
					if p.Status == quiz.StatusWin {
						won = append(won, j)
					} else {
						lost = append(lost, j)
					}
				}
			}
		}
		if e.Points != nil {
			p.Points = *e.Points
		}
		if e.Misses != nil {
			p.Misses = *e.Misses
		}
		if e.Stars != nil {
			p.Stars = *e.Stars
		}
		if e.Rank != nil {
			rank := *e.Rank
			p.Rank = &rank
		}
	}
	stampRanks(next, won, lost)
	return next, nil
}

// stampRanks gives contestants edited to win the best free ranks and those
// edited to lose the worst, once every explicit rank of the edit is in place.
func stampRanks(s Snapshot, won, lost []int) {
	taken := takenRanks(s)
	for _, j := range won {
		r := bestFreeRank(s, taken)
		taken[r] = true
		s[j].Rank = &r
	}
	for _, j := range lost {
		r := worstFreeRank(s, taken)
		taken[r] = true
		s[j].Rank = &r
	}
}

func checkEditValues(e quiz.FieldEdit, seats int) error {
	if e.Misses != nil && *e.Misses < 0 {
		return quiz.Validationf("misses cannot be negative")
	}
	if e.Stars != nil && *e.Stars < 0 {
		return quiz.Validationf("stars cannot be negative")
	}
	if e.Rank != nil && (*e.Rank < 1 || *e.Rank > seats) {
		return quiz.Validationf("rank must be between 1 and %d", seats)
	}
	return nil
}
