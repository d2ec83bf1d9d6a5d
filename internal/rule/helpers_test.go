package rule

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/stretchr/testify/require"
)

func mustLookup(t *testing.T, name Name) Rule {
	t.Helper()
	r, err := Lookup(string(name))
	require.NoError(t, err)
	return r
}

// seatMatch builds the opening snapshot of a match with the given number of seats.
func seatMatch(r Rule, seats int) Snapshot {
	s := make(Snapshot, seats)
	for i := range s {
		s[i] = r.InitialState(i + 1)
		s[i].MatchingID = uuid.New()
	}
	return s
}

func correct(s Snapshot, seat int) Outcome {
	return Outcome{MatchingID: s[seat-1].MatchingID, Result: quiz.ResultCorrect, Situation: quiz.SituationPushed}
}

func wrong(s Snapshot, seat int) Outcome {
	return Outcome{MatchingID: s[seat-1].MatchingID, Result: quiz.ResultWrong, Situation: quiz.SituationPushed}
}

func apply(t *testing.T, r Rule, s Snapshot, outcomes ...Outcome) Snapshot {
	t.Helper()
	next, err := r.ApplyQuestionResult(s, outcomes)
	require.NoError(t, err)
	require.Len(t, next, len(s))
	return next
}

func statuses(s Snapshot) []quiz.Status {
	out := make([]quiz.Status, len(s))
	for i := range s {
		out[i] = s[i].Status
	}
	return out
}

func ranks(s Snapshot) []int {
	out := make([]int, len(s))
	for i := range s {
		if s[i].Rank != nil {
			out[i] = *s[i].Rank
		}
	}
	return out
}
