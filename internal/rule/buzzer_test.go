package rule

import (
	"testing"

	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHayaoshiThreeCorrectWins(t *testing.T) {
	r := mustLookup(t, Round3Hayaoshi)
	cur := seatMatch(r, 6)

	cur = apply(t, r, cur, correct(cur, 2))
	cur = apply(t, r, cur, correct(cur, 2))
	assert.Equal(t, quiz.StatusPlaying, cur[1].Status)

	cur = apply(t, r, cur, correct(cur, 2))
	assert.Equal(t, quiz.StatusWin, cur[1].Status)
	require.NotNil(t, cur[1].Rank)
	assert.Equal(t, 1, *cur[1].Rank)
	assert.Equal(t, 3, cur[1].Points)
	assert.Equal(t, "勝ち抜け 1/2人・残り 5人", Progress(r, cur))
}

func TestBuzzerTobiNokori(t *testing.T) {
	r := mustLookup(t, Round2Omote)
	cur := seatMatch(r, 8)

	cur = apply(t, r, cur, wrong(cur, 1), wrong(cur, 2), wrong(cur, 3))
	cur = apply(t, r, cur, wrong(cur, 1), wrong(cur, 2), wrong(cur, 3))
	assert.Equal(t, []quiz.Status{
		quiz.StatusLose, quiz.StatusLose, quiz.StatusLose, quiz.StatusPlaying,
		quiz.StatusPlaying, quiz.StatusPlaying, quiz.StatusPlaying, quiz.StatusPlaying,
	}, statuses(cur))

	cur = apply(t, r, cur, wrong(cur, 4))
	cur = apply(t, r, cur, wrong(cur, 4))

	// the fourth elimination leaves exactly four contestants for four slots
	assert.Equal(t, []quiz.Status{
		quiz.StatusLose, quiz.StatusLose, quiz.StatusLose, quiz.StatusLose,
		quiz.StatusWin, quiz.StatusWin, quiz.StatusWin, quiz.StatusWin,
	}, statuses(cur))
	assert.Equal(t, []int{6, 7, 8, 5, 1, 2, 3, 4}, ranks(cur))
	assert.Equal(t, "試合終了", Progress(r, cur))
}

func TestBuzzerSimultaneousWinnersOrderedByPointsThenSeat(t *testing.T) {
	r := mustLookup(t, Round2Omote)
	cur := seatMatch(r, 8)
	cur = apply(t, r, cur, correct(cur, 6), correct(cur, 3))

	cur = apply(t, r, cur, correct(cur, 6), correct(cur, 3))

	assert.Equal(t, quiz.StatusWin, cur[2].Status)
	assert.Equal(t, quiz.StatusWin, cur[5].Status)
	assert.Equal(t, 1, *cur[2].Rank)
	assert.Equal(t, 2, *cur[5].Rank)
}

func TestBuzzerClosesWhenSlotsAreFull(t *testing.T) {
	r := mustLookup(t, Round3Hayaoshi)
	cur := seatMatch(r, 5)
	cur[0].Points = 2
	cur[1].Points = 2
	cur[2].Points = 1

	cur = apply(t, r, cur, correct(cur, 1), correct(cur, 2))

	assert.Equal(t, []quiz.Status{
		quiz.StatusWin, quiz.StatusWin, quiz.StatusLose, quiz.StatusLose, quiz.StatusLose,
	}, statuses(cur))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ranks(cur))
}

func TestQuarterfinalButtons(t *testing.T) {
	r := mustLookup(t, Quarterfinal)
	cur := seatMatch(r, 8)
	assert.Equal(t, quiz.StatusWaiting, cur[6].Status)
	assert.Equal(t, quiz.StatusWaiting, cur[7].Status)

	t.Run("waiting contestant cannot answer", func(t *testing.T) {
		_, err := r.ApplyQuestionResult(cur, []Outcome{correct(cur, 7)})
		assert.ErrorIs(t, err, quiz.ErrStateConflict)
	})

	t.Run("elimination seats the lowest waiting seat", func(t *testing.T) {
		next := apply(t, r, cur, wrong(cur, 2))
		next = apply(t, r, next, wrong(next, 2))

		assert.Equal(t, quiz.StatusLose, next[1].Status)
		assert.Equal(t, 8, *next[1].Rank)
		assert.Equal(t, -2, next[1].Points)
		assert.Equal(t, quiz.StatusPlaying, next[6].Status)
		assert.Equal(t, quiz.StatusWaiting, next[7].Status)
	})
}

func TestBuzzerJudgeOnCompletion(t *testing.T) {
	r := mustLookup(t, Round2Omote)
	cur := seatMatch(r, 6)
	cur = apply(t, r, cur, correct(cur, 5))
	cur = apply(t, r, cur, correct(cur, 5))
	cur = apply(t, r, cur, correct(cur, 2))
	cur = apply(t, r, cur, correct(cur, 4))

	done, err := r.JudgeOnCompletion(cur)
	require.NoError(t, err)

	// seat 5 already won; seats 2 and 4 lead on points, seat 1 takes the last slot on seat order
	assert.Equal(t, []quiz.Status{
		quiz.StatusWin, quiz.StatusWin, quiz.StatusLose, quiz.StatusWin, quiz.StatusWin, quiz.StatusLose,
	}, statuses(done))
	assert.Equal(t, []int{4, 2, 5, 3, 1, 6}, ranks(done))
}
