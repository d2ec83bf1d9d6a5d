package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kyanagi/yamabuki-cup-app/internal/db"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

type MatchStore struct {
	db *sqlx.DB
}

const (
	createPlayerQuery = `INSERT INTO players (id, name, created_at) VALUES (:id, :name, :created_at)`
	createRoundQuery  = `INSERT INTO rounds (id, name, rule, created_at) VALUES (:id, :name, :rule, :created_at)`
	createMatchQuery  = `
		INSERT INTO matches (id, round_id, match_number, name, last_operation_id, lock_version, created_at)
		VALUES (:id, :round_id, :match_number, :name, :last_operation_id, :lock_version, :created_at)
	`
	createMatchingsQuery = `
		INSERT INTO matchings (id, match_id, player_id, seat)
		VALUES (:id, :match_id, :player_id, :seat)
	`
	getMatchQuery            = "SELECT * FROM matches WHERE id = ?"
	getMatchingsQuery        = "SELECT * FROM matchings WHERE match_id = ? ORDER BY seat ASC"
	advanceMatchPointerQuery = `
		UPDATE matches SET last_operation_id = ?, lock_version = lock_version + 1
		WHERE id = ? AND lock_version = ?
	`
)

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) CreatePlayer(ctx context.Context, player *quiz.Player) error {
	_, err := s.db.NamedExecContext(ctx, createPlayerQuery, player)
	return err
}

func (s *MatchStore) GetPlayer(ctx context.Context, id uuid.UUID) (*quiz.Player, error) {
	var player quiz.Player
	if err := s.db.GetContext(ctx, &player, s.db.Rebind("SELECT * FROM players WHERE id = ?"), id); err != nil {
		return nil, notFound(err, "player", id)
	}
	return &player, nil
}

func (s *MatchStore) GetPlayerTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*quiz.Player, error) {
	var player quiz.Player
	if err := tx.GetContext(ctx, &player, tx.Rebind("SELECT * FROM players WHERE id = ?"), id); err != nil {
		return nil, notFound(err, "player", id)
	}
	return &player, nil
}

func (s *MatchStore) GetPlayersTx(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID) ([]quiz.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM players WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var players []quiz.Player
	err = tx.SelectContext(ctx, &players, tx.Rebind(query), args...)
	return players, err
}

func (s *MatchStore) ListPlayers(ctx context.Context) ([]quiz.Player, error) {
	var players []quiz.Player
	err := s.db.SelectContext(ctx, &players, "SELECT * FROM players ORDER BY created_at ASC, id ASC")
	return players, err
}

func (s *MatchStore) CreateRound(ctx context.Context, round *quiz.Round) error {
	_, err := s.db.NamedExecContext(ctx, createRoundQuery, round)
	return err
}

func (s *MatchStore) GetRound(ctx context.Context, id uuid.UUID) (*quiz.Round, error) {
	var round quiz.Round
	if err := s.db.GetContext(ctx, &round, s.db.Rebind("SELECT * FROM rounds WHERE id = ?"), id); err != nil {
		return nil, notFound(err, "round", id)
	}
	return &round, nil
}

func (s *MatchStore) GetRoundTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*quiz.Round, error) {
	var round quiz.Round
	if err := tx.GetContext(ctx, &round, tx.Rebind("SELECT * FROM rounds WHERE id = ?"), id); err != nil {
		return nil, notFound(err, "round", id)
	}
	return &round, nil
}

func (s *MatchStore) CreateMatch(ctx context.Context, tx *sqlx.Tx, match *quiz.Match) error {
	_, err := tx.NamedExecContext(ctx, createMatchQuery, match)
	return err
}

func (s *MatchStore) CreateMatchings(ctx context.Context, tx *sqlx.Tx, matchings []quiz.Matching) error {
	if len(matchings) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createMatchingsQuery, matchings)
	return err
}

func (s *MatchStore) GetMatch(ctx context.Context, id uuid.UUID) (*quiz.Match, error) {
	var match quiz.Match
	if err := s.db.GetContext(ctx, &match, s.db.Rebind(getMatchQuery), id); err != nil {
		return nil, notFound(err, "match", id)
	}
	return &match, nil
}

// GetMatchForUpdate reads the match and holds its row until tx ends.
func (s *MatchStore) GetMatchForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*quiz.Match, error) {
	var match quiz.Match
	if err := tx.GetContext(ctx, &match, tx.Rebind(getMatchQuery+db.ForUpdate(tx)), id); err != nil {
		return nil, notFound(err, "match", id)
	}
	return &match, nil
}

func (s *MatchStore) ListMatches(ctx context.Context, roundID uuid.UUID) ([]quiz.Match, error) {
	var matches []quiz.Match
	err := s.db.SelectContext(ctx, &matches, s.db.Rebind("SELECT * FROM matches WHERE round_id = ? ORDER BY match_number ASC"), roundID)
	return matches, err
}

func (s *MatchStore) GetMatchings(ctx context.Context, matchID uuid.UUID) ([]quiz.Matching, error) {
	var matchings []quiz.Matching
	err := s.db.SelectContext(ctx, &matchings, s.db.Rebind(getMatchingsQuery), matchID)
	return matchings, err
}

func (s *MatchStore) GetMatchingsTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) ([]quiz.Matching, error) {
	var matchings []quiz.Matching
	err := tx.SelectContext(ctx, &matchings, tx.Rebind(getMatchingsQuery), matchID)
	return matchings, err
}

// AdvanceMatchPointer moves the head of the operation chain. version is the
// lock_version read under the same transaction; a mismatch means somebody else
// moved the head first.
func (s *MatchStore) AdvanceMatchPointer(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, head *uuid.UUID, version int) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(advanceMatchPointerQuery), head, matchID, version)
	if err != nil {
		return fmt.Errorf("failed to update match pointer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return quiz.StateConflictf("match %s was modified concurrently", matchID)
	}
	return nil
}
