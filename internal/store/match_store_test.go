package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMatch(t *testing.T) {
	db := setupTestDB(t)
	store := NewMatchStore(db)
	f := seedMatch(t, db, "Round2Omote", 3)

	match, err := store.GetMatch(context.Background(), f.match.ID)
	require.NoError(t, err)
	assert.Equal(t, f.round.ID, match.RoundID)
	assert.Nil(t, match.LastOperationID)
	assert.False(t, match.Opened())
	assert.Equal(t, 0, match.LockVersion)

	matchings, err := store.GetMatchings(context.Background(), f.match.ID)
	require.NoError(t, err)
	assert.Equal(t, f.matchings, matchings)
}

func TestGetMatchNotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewMatchStore(db)

	_, err := store.GetMatch(context.Background(), uuid.New())
	assert.ErrorIs(t, err, quiz.ErrNotFound)

	_, err = store.GetPlayer(context.Background(), uuid.New())
	assert.ErrorIs(t, err, quiz.ErrNotFound)
}

func TestDuplicateSeatRejected(t *testing.T) {
	db := setupTestDB(t)
	store := NewMatchStore(db)
	f := seedMatch(t, db, "Semifinal", 2)

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	err = store.CreateMatchings(context.Background(), tx, []quiz.Matching{
		{ID: uuid.New(), MatchID: f.match.ID, PlayerID: f.players[0].ID, Seat: 2},
	})
	assert.Error(t, err)
}

func TestAdvanceMatchPointer(t *testing.T) {
	db := setupTestDB(t)
	store := NewMatchStore(db)
	f := seedMatch(t, db, "Semifinal", 2)
	ctx := context.Background()
	head := uuid.New()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	match, err := store.GetMatchForUpdate(ctx, tx, f.match.ID)
	require.NoError(t, err)
	require.NoError(t, store.AdvanceMatchPointer(ctx, tx, match.ID, &head, match.LockVersion))

	// a writer holding the old version loses
	err = store.AdvanceMatchPointer(ctx, tx, match.ID, nil, match.LockVersion)
	assert.ErrorIs(t, err, quiz.ErrStateConflict)
	require.NoError(t, tx.Commit())

	match, err = store.GetMatch(ctx, f.match.ID)
	require.NoError(t, err)
	require.NotNil(t, match.LastOperationID)
	assert.Equal(t, head, *match.LastOperationID)
	assert.Equal(t, 1, match.LockVersion)
}
