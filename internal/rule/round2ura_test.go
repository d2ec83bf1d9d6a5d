package rule

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2UraOverride(t *testing.T) {
	r := mustLookup(t, Round2Ura)
	cur := seatMatch(r, 6)
	ov := r.(QualifierOverrider)

	next, err := ov.OverrideQualifiers(cur, map[uuid.UUID]int{
		cur[4].MatchingID: 1,
		cur[0].MatchingID: 2,
		cur[2].MatchingID: 3,
		cur[5].MatchingID: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, []quiz.Status{
		quiz.StatusWin, quiz.StatusLose, quiz.StatusWin, quiz.StatusLose, quiz.StatusWin, quiz.StatusWin,
	}, statuses(next))
	assert.Equal(t, []int{2, 0, 3, 0, 1, 4}, ranks(next))
	assert.Nil(t, next[1].Rank)
	assert.Equal(t, "試合終了", Progress(r, next))
}

func TestRound2UraRejects(t *testing.T) {
	r := mustLookup(t, Round2Ura)
	cur := seatMatch(r, 6)
	ov := r.(QualifierOverrider)

	testCases := []struct {
		name    string
		ranks   map[uuid.UUID]int
		wantErr error
	}{
		{
			name:    "three qualifiers",
			ranks:   map[uuid.UUID]int{cur[0].MatchingID: 1, cur[1].MatchingID: 2, cur[2].MatchingID: 3},
			wantErr: quiz.ErrStateConflict,
		},
		{
			name: "repeated rank",
			ranks: map[uuid.UUID]int{
				cur[0].MatchingID: 1, cur[1].MatchingID: 1, cur[2].MatchingID: 2, cur[3].MatchingID: 3,
			},
			wantErr: quiz.ErrStateConflict,
		},
		{
			name: "rank out of range",
			ranks: map[uuid.UUID]int{
				cur[0].MatchingID: 1, cur[1].MatchingID: 2, cur[2].MatchingID: 3, cur[3].MatchingID: 5,
			},
			wantErr: quiz.ErrStateConflict,
		},
		{
			name: "stranger",
			ranks: map[uuid.UUID]int{
				cur[0].MatchingID: 1, cur[1].MatchingID: 2, cur[2].MatchingID: 3, uuid.New(): 4,
			},
			wantErr: quiz.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ov.OverrideQualifiers(cur, tc.ranks)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	_, err := r.ApplyQuestionResult(cur, []Outcome{correct(cur, 1)})
	assert.ErrorIs(t, err, quiz.ErrStateConflict)
	_, err = r.JudgeOnCompletion(cur)
	assert.ErrorIs(t, err, quiz.ErrStateConflict)
}
