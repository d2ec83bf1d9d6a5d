package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kyanagi/yamabuki-cup-app/internal/db"
	"github.com/kyanagi/yamabuki-cup-app/internal/middleware"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/kyanagi/yamabuki-cup-app/internal/store"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Open(context.Background(), db.DriverSQLite, "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	err = db.RunMigrations(database.DB, db.DriverSQLite)
	require.NoError(t, err, "Failed to apply migrations")

	t.Cleanup(func() { database.Close() })
	return database
}

type recordingNotifier struct {
	mu      sync.Mutex
	matches []uuid.UUID
}

func (n *recordingNotifier) MatchChanged(_ context.Context, matchID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.matches = append(n.matches, matchID)
}

type testEnv struct {
	db         *sqlx.DB
	matches    *MatchService
	operations *OperationService
	entries    *EntryService
	notifier   *recordingNotifier
	ctx        context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := setupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	matchStore := store.NewMatchStore(database)
	operationStore := store.NewOperationStore(database)
	entryStore := store.NewEntryStore(database)
	notifier := &recordingNotifier{}

	return &testEnv{
		db:         database,
		matches:    NewMatchService(database, matchStore, operationStore),
		operations: NewOperationService(database, matchStore, operationStore, logger, nil, notifier),
		entries:    NewEntryService(database, entryStore, matchStore, logger, nil),
		notifier:   notifier,
		ctx:        middleware.WithOperator(context.Background(), "tester"),
	}
}

func (e *testEnv) players(t *testing.T, n int) []quiz.Player {
	t.Helper()
	players := make([]quiz.Player, n)
	for i := range players {
		p, err := e.matches.CreatePlayer(e.ctx, gofakeit.Name())
		require.NoError(t, err)
		players[i] = *p
	}
	return players
}

// newMatch seats n fresh players in a match played under ruleName.
func (e *testEnv) newMatch(t *testing.T, ruleName string, n int) (*quiz.Match, []quiz.Player) {
	t.Helper()
	round, err := e.matches.CreateRound(e.ctx, "", ruleName)
	require.NoError(t, err)

	players := e.players(t, n)
	ids := make([]uuid.UUID, n)
	for i, p := range players {
		ids[i] = p.ID
	}
	match, err := e.matches.CreateMatch(e.ctx, round.ID, 1, ruleName, ids)
	require.NoError(t, err)
	return match, players
}

func (e *testEnv) do(t *testing.T, matchID uuid.UUID, req OperationRequest) *quiz.Operation {
	t.Helper()
	op, err := e.operations.CreateOperation(e.ctx, matchID, req)
	require.NoError(t, err)
	return op
}

func (e *testEnv) scores(t *testing.T, matchID uuid.UUID) []quiz.ScoreView {
	t.Helper()
	scores, err := e.matches.CurrentScores(e.ctx, matchID)
	require.NoError(t, err)
	return scores
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func opening() OperationRequest {
	return OperationRequest{Kind: quiz.KindMatchOpening}
}

func question(outcomes ...OutcomeInput) OperationRequest {
	return OperationRequest{Kind: quiz.KindQuestionClosing, Outcomes: outcomes}
}

func right(p quiz.Player) OutcomeInput {
	return OutcomeInput{PlayerID: p.ID, Result: quiz.ResultCorrect, Situation: quiz.SituationPushed}
}

func miss(p quiz.Player) OutcomeInput {
	return OutcomeInput{PlayerID: p.ID, Result: quiz.ResultWrong, Situation: quiz.SituationPushed}
}
