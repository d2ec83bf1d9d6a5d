package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kyanagi/yamabuki-cup-app/internal/db"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

type EntryStore struct {
	db *sqlx.DB
}

const (
	createEntryQuery = `
		INSERT INTO entries (id, player_id, entry_phase, status, priority, created_at, updated_at)
		VALUES (:id, :player_id, :entry_phase, :status, :priority, :created_at, :updated_at)
	`
	getEntryQuery               = "SELECT * FROM entries WHERE id = ?"
	nextPromotionCandidateQuery = `
		SELECT * FROM entries
		WHERE status = 'waitlisted' AND priority IS NOT NULL
		ORDER BY priority ASC, id ASC
		LIMIT 1
	`
	promotionCandidatesQuery = `
		SELECT * FROM entries
		WHERE status = 'waitlisted' AND priority IS NOT NULL
		ORDER BY priority ASC, id ASC
	`
	entryListQuery = `
		SELECT * FROM entries
		WHERE status <> 'cancelled'
		ORDER BY priority ASC NULLS LAST, id ASC
	`
)

func NewEntryStore(db *sqlx.DB) *EntryStore {
	return &EntryStore{db: db}
}

func (s *EntryStore) CreateEntry(ctx context.Context, tx *sqlx.Tx, entry *quiz.Entry) error {
	_, err := tx.NamedExecContext(ctx, createEntryQuery, entry)
	return err
}

func (s *EntryStore) GetEntry(ctx context.Context, id uuid.UUID) (*quiz.Entry, error) {
	var entry quiz.Entry
	if err := s.db.GetContext(ctx, &entry, s.db.Rebind(getEntryQuery), id); err != nil {
		return nil, notFound(err, "entry", id)
	}
	return &entry, nil
}

func (s *EntryStore) GetEntryForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*quiz.Entry, error) {
	var entry quiz.Entry
	if err := tx.GetContext(ctx, &entry, tx.Rebind(getEntryQuery+db.ForUpdate(tx)), id); err != nil {
		return nil, notFound(err, "entry", id)
	}
	return &entry, nil
}

// NextPromotionCandidateForUpdate locks and returns the waitlisted entry that is
// next in line, or nil when the waitlist is empty.
func (s *EntryStore) NextPromotionCandidateForUpdate(ctx context.Context, tx *sqlx.Tx) (*quiz.Entry, error) {
	var entries []quiz.Entry
	if err := tx.SelectContext(ctx, &entries, nextPromotionCandidateQuery+db.ForUpdate(tx)); err != nil {
		return nil, fmt.Errorf("failed to get promotion candidate: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (s *EntryStore) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status quiz.EntryStatus) error {
	_, err := tx.ExecContext(ctx, tx.Rebind("UPDATE entries SET status = ?, updated_at = ? WHERE id = ?"),
		status, time.Now().UTC(), id)
	return err
}

func (s *EntryStore) UpdatePriority(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, priority *int) error {
	_, err := tx.ExecContext(ctx, tx.Rebind("UPDATE entries SET priority = ?, updated_at = ? WHERE id = ?"),
		priority, time.Now().UTC(), id)
	return err
}

func (s *EntryStore) ClearPriorities(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("UPDATE entries SET priority = NULL WHERE id IN (?)", ids)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(query), args...)
	return err
}

func (s *EntryStore) MaxPriorityTx(ctx context.Context, tx *sqlx.Tx) (int, error) {
	var maxPriority int
	err := tx.GetContext(ctx, &maxPriority, "SELECT COALESCE(MAX(priority), 0) FROM entries")
	return maxPriority, err
}

func (s *EntryStore) CountByStatusTx(ctx context.Context, tx *sqlx.Tx, status quiz.EntryStatus) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, tx.Rebind("SELECT COUNT(*) FROM entries WHERE status = ?"), status)
	return count, err
}

// HasActiveEntryTx reports whether the player holds an entry that is not cancelled.
func (s *EntryStore) HasActiveEntryTx(ctx context.Context, tx *sqlx.Tx, playerID uuid.UUID) (bool, error) {
	var count int
	err := tx.GetContext(ctx, &count,
		tx.Rebind("SELECT COUNT(*) FROM entries WHERE player_id = ? AND status <> 'cancelled'"), playerID)
	return count > 0, err
}

// ListEntriesTx returns every entry, cancelled ones included.
func (s *EntryStore) ListEntriesTx(ctx context.Context, tx *sqlx.Tx) ([]quiz.Entry, error) {
	var entries []quiz.Entry
	err := tx.SelectContext(ctx, &entries, "SELECT * FROM entries ORDER BY id ASC")
	return entries, err
}

func (s *EntryStore) ListEntries(ctx context.Context) ([]quiz.Entry, error) {
	var entries []quiz.Entry
	err := s.db.SelectContext(ctx, &entries, "SELECT * FROM entries ORDER BY id ASC")
	return entries, err
}

func (s *EntryStore) PromotionCandidates(ctx context.Context) ([]quiz.Entry, error) {
	var entries []quiz.Entry
	err := s.db.SelectContext(ctx, &entries, promotionCandidatesQuery)
	return entries, err
}

func (s *EntryStore) ForEntryList(ctx context.Context) ([]quiz.Entry, error) {
	var entries []quiz.Entry
	err := s.db.SelectContext(ctx, &entries, entryListQuery)
	return entries, err
}
