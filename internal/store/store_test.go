package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kyanagi/yamabuki-cup-app/internal/db"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
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

type fixture struct {
	round     *quiz.Round
	match     *quiz.Match
	players   []quiz.Player
	matchings []quiz.Matching
}

// seedMatch creates a round with one match seating n new players.
func seedMatch(t *testing.T, database *sqlx.DB, rule string, n int) fixture {
	t.Helper()
	ctx := context.Background()
	ms := NewMatchStore(database)

	f := fixture{round: &quiz.Round{ID: uuid.New(), Name: "Round", Rule: rule, CreatedAt: time.Now().UTC()}}
	require.NoError(t, ms.CreateRound(ctx, f.round))

	f.match = &quiz.Match{ID: uuid.New(), RoundID: f.round.ID, MatchNumber: 1, Name: "Match 1", CreatedAt: time.Now().UTC()}
	for i := 0; i < n; i++ {
		p := quiz.Player{ID: uuid.New(), Name: "Player", CreatedAt: time.Now().UTC()}
		require.NoError(t, ms.CreatePlayer(ctx, &p))
		f.players = append(f.players, p)
		f.matchings = append(f.matchings, quiz.Matching{ID: uuid.New(), MatchID: f.match.ID, PlayerID: p.ID, Seat: i + 1})
	}

	tx, err := database.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, ms.CreateMatch(ctx, tx, f.match))
	require.NoError(t, ms.CreateMatchings(ctx, tx, f.matchings))
	require.NoError(t, tx.Commit())
	return f
}
