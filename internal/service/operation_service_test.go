package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/kyanagi/yamabuki-cup-app/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchOpening(t *testing.T) {
	env := newTestEnv(t)
	match, _ := env.newMatch(t, "Quarterfinal", 8)

	op := env.do(t, match.ID, opening())
	assert.Equal(t, quiz.KindMatchOpening, op.Kind)
	assert.Empty(t, op.Path)
	assert.Nil(t, op.PreviousOperationID)
	assert.Equal(t, "tester", op.Operator)

	scores := env.scores(t, match.ID)
	require.Len(t, scores, 8)
	for _, sc := range scores[:6] {
		assert.Equal(t, quiz.StatusPlaying, sc.Status)
	}
	assert.Equal(t, quiz.StatusWaiting, scores[6].Status)
	assert.Equal(t, quiz.StatusWaiting, scores[7].Status)

	_, err := env.operations.CreateOperation(env.ctx, match.ID, opening())
	assert.ErrorIs(t, err, quiz.ErrStateConflict)
	assert.Equal(t, []uuid.UUID{match.ID}, env.notifier.matches)
}

func TestOperationsNeedAnOpenMatch(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Round2Omote", 4)

	for _, req := range []OperationRequest{
		question(right(players[0])),
		{Kind: quiz.KindMatchClosing},
		{Kind: quiz.KindFreeEdit, Edits: []quiz.FieldEdit{{PlayerID: players[0].ID, Points: utils.Ptr(1)}}},
	} {
		_, err := env.operations.CreateOperation(env.ctx, match.ID, req)
		assert.ErrorIs(t, err, quiz.ErrStateConflict, req.Kind)
	}

	_, err := env.operations.CreateOperation(env.ctx, uuid.New(), opening())
	assert.ErrorIs(t, err, quiz.ErrNotFound)

	_, err = env.operations.CreateOperation(env.ctx, match.ID, OperationRequest{Kind: "Teleport"})
	assert.ErrorIs(t, err, quiz.ErrValidation)

	assert.Zero(t, env.count(t, "score_operations"))
}

func TestQuestionClosingRejectsBadPayload(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Round2Omote", 4)
	env.do(t, match.ID, opening())

	stranger := env.players(t, 1)[0]
	testCases := []struct {
		name     string
		outcomes []OutcomeInput
	}{
		{"player outside the match", []OutcomeInput{right(stranger)}},
		{"result outside enum", []OutcomeInput{{PlayerID: players[0].ID, Result: "half", Situation: quiz.SituationPushed}}},
		{"situation outside enum", []OutcomeInput{{PlayerID: players[0].ID, Result: quiz.ResultCorrect, Situation: "sideways"}}},
		{"player twice", []OutcomeInput{right(players[0]), miss(players[0])}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.operations.CreateOperation(env.ctx, match.ID, question(tc.outcomes...))
			assert.ErrorIs(t, err, quiz.ErrValidation)
		})
	}

	assert.Equal(t, 1, env.count(t, "score_operations"))
	assert.Equal(t, 4, env.count(t, "scores"))
	assert.Zero(t, env.count(t, "question_results"))
}

func TestOperationPathGrows(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Round3Hayaoshi", 6)

	first := env.do(t, match.ID, opening())
	second := env.do(t, match.ID, question(right(players[0])))
	third := env.do(t, match.ID, question(miss(players[1])))

	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, third.Path)
	require.NotNil(t, third.PreviousOperationID)
	assert.Equal(t, second.ID, *third.PreviousOperationID)

	history, err := env.operations.OperationHistory(env.ctx, third.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []uuid.UUID{third.ID, second.ID, first.ID}, []uuid.UUID{history[0].ID, history[1].ID, history[2].ID})
}

func TestUndo(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Round3Hayaoshi", 6)

	first := env.do(t, match.ID, opening())
	second := env.do(t, match.ID, question(right(players[0])))
	third := env.do(t, match.ID, question(right(players[0]), miss(players[1])))

	before, err := env.operations.MatchHistory(env.ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, before, 3)

	head, err := env.operations.Undo(env.ctx, match.ID)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, *third.PreviousOperationID, head.ID)
	assert.Equal(t, second.ID, head.ID)

	after, err := env.operations.MatchHistory(env.ctx, match.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before)-1)
	assert.Equal(t, second.ID, after[0].ID)

	_, err = env.operations.operations.GetOperation(env.ctx, third.ID)
	assert.ErrorIs(t, err, quiz.ErrNotFound)
	assert.Equal(t, 1, env.count(t, "question_results"))
	assert.Equal(t, 12, env.count(t, "scores"))

	scores := env.scores(t, match.ID)
	assert.Equal(t, 1, scores[0].Points)
	assert.Zero(t, scores[1].Misses)

	// undo through the request surface too
	head, err = env.operations.CreateOperation(env.ctx, match.ID, OperationRequest{Kind: quiz.KindUndo})
	require.NoError(t, err)
	assert.Equal(t, first.ID, head.ID)

	head, err = env.operations.Undo(env.ctx, match.ID)
	require.NoError(t, err)
	assert.Nil(t, head)
	assert.Empty(t, env.scores(t, match.ID))

	// an empty chain is a no-op
	head, err = env.operations.Undo(env.ctx, match.ID)
	require.NoError(t, err)
	assert.Nil(t, head)
	assert.Zero(t, env.count(t, "score_operations"))
	assert.Zero(t, env.count(t, "operation_ancestors"))

	// the match can be reopened after undoing everything
	env.do(t, match.ID, opening())
}

func TestScoreRowsAreImmutable(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Round3Hayabo1", 5)

	env.do(t, match.ID, opening())
	first := env.do(t, match.ID, question(right(players[2])))
	written, err := env.operations.operations.GetScores(env.ctx, first.ID)
	require.NoError(t, err)

	env.do(t, match.ID, question(right(players[2]), miss(players[3])))
	env.do(t, match.ID, OperationRequest{Kind: quiz.KindFreeEdit, Edits: []quiz.FieldEdit{
		{PlayerID: players[2].ID, Points: utils.Ptr(0)},
	}})
	env.do(t, match.ID, OperationRequest{Kind: quiz.KindMatchClosing})

	reread, err := env.operations.operations.GetScores(env.ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(written, reread))
}

func TestHayaoshiScenario(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Round3Hayaoshi", 6)
	env.do(t, match.ID, opening())

	for i := 0; i < 3; i++ {
		env.do(t, match.ID, question(right(players[3])))
	}

	scores := env.scores(t, match.ID)
	assert.Equal(t, quiz.StatusWin, scores[3].Status)
	require.NotNil(t, scores[3].Rank)
	assert.Equal(t, 1, *scores[3].Rank)
}

func TestTobiNokoriScenario(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Round2Omote", 8)
	env.do(t, match.ID, opening())

	for i := 0; i < 4; i++ {
		env.do(t, match.ID, question(miss(players[i])))
		env.do(t, match.ID, question(miss(players[i])))
	}

	for i, sc := range env.scores(t, match.ID) {
		want := quiz.StatusWin
		if i < 4 {
			want = quiz.StatusLose
		}
		assert.Equal(t, want, sc.Status, "seat %d", sc.Seat)
	}
}

func TestPlayoffPassScenario(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Playoff", 10)
	env.do(t, match.ID, opening())

	env.do(t, match.ID, question())
	for _, sc := range env.scores(t, match.ID) {
		assert.Equal(t, 9, sc.Points)
	}

	edits := make([]quiz.FieldEdit, len(players))
	for i, p := range players {
		edits[i] = quiz.FieldEdit{PlayerID: p.ID, Points: utils.Ptr(1)}
	}
	env.do(t, match.ID, OperationRequest{Kind: quiz.KindFreeEdit, Edits: edits})

	pass := env.do(t, match.ID, question())
	for _, sc := range env.scores(t, match.ID) {
		assert.Equal(t, 1, sc.Points)
		assert.Equal(t, quiz.StatusPlaying, sc.Status)
	}

	summary, err := env.operations.SummarizeOperation(env.ctx, pass)
	require.NoError(t, err)
	assert.Equal(t, "スルー", summary)
}

func TestFreeEditPolicy(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Quarterfinal", 8)
	env.do(t, match.ID, opening())

	lose := quiz.StatusLose
	_, err := env.operations.CreateOperation(env.ctx, match.ID, OperationRequest{
		Kind:  quiz.KindFreeEdit,
		Edits: []quiz.FieldEdit{{PlayerID: players[0].ID, Status: &lose}},
	})
	assert.ErrorIs(t, err, quiz.ErrStateConflict)

	win := quiz.StatusWin
	op := env.do(t, match.ID, OperationRequest{
		Kind:  quiz.KindFreeEdit,
		Edits: []quiz.FieldEdit{{PlayerID: players[0].ID, Status: &win, Points: utils.Ptr(4)}},
	})

	var payload quiz.FreeEditPayload
	require.NoError(t, op.DecodePayload(&payload))
	require.Len(t, payload.Edits, 1)
	assert.Equal(t, players[0].ID, payload.Edits[0].PlayerID)
	assert.Equal(t, 2, env.count(t, "score_operations"))
}

func TestCapabilitiesByRule(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Round2Omote", 4)
	env.do(t, match.ID, opening())

	for _, req := range []OperationRequest{
		{Kind: quiz.KindSetTransition},
		{Kind: quiz.KindDisqualification, PlayerID: &players[0].ID},
		{Kind: quiz.KindQualifierOverride, Qualifiers: []quiz.Qualifier{{PlayerID: players[0].ID, Rank: 1}}},
	} {
		_, err := env.operations.CreateOperation(env.ctx, match.ID, req)
		assert.ErrorIs(t, err, quiz.ErrStateConflict, req.Kind)
	}
}

func TestQualifierOverride(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Round2Ura", 6)
	env.do(t, match.ID, opening())

	_, err := env.operations.CreateOperation(env.ctx, match.ID, question(right(players[0])))
	assert.ErrorIs(t, err, quiz.ErrStateConflict)

	_, err = env.operations.CreateOperation(env.ctx, match.ID, OperationRequest{
		Kind: quiz.KindQualifierOverride,
		Qualifiers: []quiz.Qualifier{
			{PlayerID: players[0].ID, Rank: 1}, {PlayerID: players[1].ID, Rank: 2}, {PlayerID: players[2].ID, Rank: 3},
		},
	})
	assert.ErrorIs(t, err, quiz.ErrStateConflict)

	op := env.do(t, match.ID, OperationRequest{
		Kind: quiz.KindQualifierOverride,
		Qualifiers: []quiz.Qualifier{
			{PlayerID: players[5].ID, Rank: 1}, {PlayerID: players[1].ID, Rank: 2},
			{PlayerID: players[2].ID, Rank: 3}, {PlayerID: players[0].ID, Rank: 4},
		},
	})

	scores := env.scores(t, match.ID)
	wantRanks := []*int{utils.Ptr(4), utils.Ptr(2), utils.Ptr(3), nil, nil, utils.Ptr(1)}
	for i, sc := range scores {
		assert.Equal(t, wantRanks[i], sc.Rank, "seat %d", sc.Seat)
	}
	assert.Equal(t, quiz.StatusLose, scores[3].Status)

	summary, err := env.operations.SummarizeOperation(env.ctx, op)
	require.NoError(t, err)
	assert.Equal(t, "勝抜者指定", summary)
}

func TestHistorySummaries(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Semifinal", 4)

	env.do(t, match.ID, opening())
	env.do(t, match.ID, OperationRequest{
		Kind:           quiz.KindQuestionClosing,
		QuestionNumber: utils.Ptr(3),
		Outcomes:       []OutcomeInput{miss(players[3]), right(players[0])},
	})
	env.do(t, match.ID, OperationRequest{Kind: quiz.KindDisqualification, PlayerID: &players[1].ID})
	env.do(t, match.ID, OperationRequest{Kind: quiz.KindFreeEdit, Edits: []quiz.FieldEdit{
		{PlayerID: players[2].ID, Points: utils.Ptr(5)},
	}})
	env.do(t, match.ID, OperationRequest{Kind: quiz.KindMatchClosing})

	items, err := env.operations.MatchHistoryWithSummaries(env.ctx, match.ID)
	require.NoError(t, err)

	summaries := make([]string, len(items))
	for i, it := range items {
		summaries[i] = it.Summary
	}
	assert.Equal(t, []string{"試合終了", "手動編集 3番", "2番 失格", "第3問 1番○ 4番×", "試合開始"}, summaries)

	scores := env.scores(t, match.ID)
	assert.Equal(t, quiz.StatusLose, scores[1].Status)
	assert.Equal(t, 1, *scores[2].Rank)
}

func TestFinalSetTransition(t *testing.T) {
	env := newTestEnv(t)
	match, players := env.newMatch(t, "Final", 4)
	env.do(t, match.ID, opening())

	for i := 0; i < 3; i++ {
		env.do(t, match.ID, question(right(players[1])))
	}
	env.do(t, match.ID, question(right(players[1])))
	op := env.do(t, match.ID, OperationRequest{Kind: quiz.KindSetTransition})

	scores := env.scores(t, match.ID)
	assert.Equal(t, quiz.StatusPlaying, scores[1].Status)
	assert.Equal(t, 1, scores[1].Stars)
	assert.Zero(t, scores[1].Points)

	summary, err := env.operations.SummarizeOperation(env.ctx, op)
	require.NoError(t, err)
	assert.Equal(t, "セット移行", summary)
}
