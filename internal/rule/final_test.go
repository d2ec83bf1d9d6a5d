package rule

import (
	"testing"

	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalSet(t *testing.T) {
	r := mustLookup(t, Final)
	cur := seatMatch(r, 4)

	for i := 0; i < 3; i++ {
		cur = apply(t, r, cur, correct(cur, 1))
	}
	assert.Equal(t, quiz.StatusSetWin, cur[0].Status)

	cur = apply(t, r, cur, correct(cur, 1))
	assert.Equal(t, 1, cur[0].Stars)

	cur = apply(t, r, cur, wrong(cur, 1))
	assert.Equal(t, quiz.StatusSetWin, cur[0].Status)
	assert.Equal(t, 1, cur[0].Misses)

	cur = apply(t, r, cur, wrong(cur, 2))
	cur = apply(t, r, cur, wrong(cur, 2))
	assert.Equal(t, quiz.StatusWaiting, cur[1].Status)

	_, err := r.ApplyQuestionResult(cur, []Outcome{correct(cur, 2)})
	assert.ErrorIs(t, err, quiz.ErrStateConflict)

	transitioner, ok := r.(SetTransitioner)
	require.True(t, ok)
	cur, err = transitioner.TransitionSet(cur)
	require.NoError(t, err)

	for i := range cur {
		assert.Equal(t, quiz.StatusPlaying, cur[i].Status, "seat %d", i+1)
		assert.Zero(t, cur[i].Points)
		assert.Zero(t, cur[i].Misses)
	}
	assert.Equal(t, 1, cur[0].Stars)

	done, err := r.JudgeOnCompletion(cur)
	require.NoError(t, err)
	assert.Equal(t, []quiz.Status{quiz.StatusWin, quiz.StatusLose, quiz.StatusLose, quiz.StatusLose}, statuses(done))
	assert.Equal(t, []int{1, 2, 3, 4}, ranks(done))
}

func TestFinalStarsWin(t *testing.T) {
	r := mustLookup(t, Final)
	cur := seatMatch(r, 4)
	cur[2].Status = quiz.StatusSetWin
	cur[2].Stars = 2

	cur = apply(t, r, cur, correct(cur, 3))

	assert.Equal(t, quiz.StatusWin, cur[2].Status)
	assert.Equal(t, 3, cur[2].Stars)
	assert.Equal(t, 1, *cur[2].Rank)
}

func TestFinalJudgeRanksByStarsThenSeat(t *testing.T) {
	r := mustLookup(t, Final)
	cur := seatMatch(r, 4)
	cur[0].Stars = 1
	cur[1].Stars = 2
	cur[2].Stars = 2
	cur[3].Points = 2

	done, err := r.JudgeOnCompletion(cur)
	require.NoError(t, err)

	assert.Equal(t, []quiz.Status{quiz.StatusLose, quiz.StatusWin, quiz.StatusLose, quiz.StatusLose}, statuses(done))
	assert.Equal(t, []int{3, 1, 2, 4}, ranks(done))
}
