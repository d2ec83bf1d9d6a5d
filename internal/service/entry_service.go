package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kyanagi/yamabuki-cup-app/internal/db"
	"github.com/kyanagi/yamabuki-cup-app/internal/metrics"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/kyanagi/yamabuki-cup-app/internal/store"
	"github.com/kyanagi/yamabuki-cup-app/internal/utils"
)

// EntryService keeps the registration list. Every write keeps the number of
// accepted entries within capacity and priorities unique.
type EntryService struct {
	db      *sqlx.DB
	store   *store.EntryStore
	players *store.MatchStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewEntryService(db *sqlx.DB, store *store.EntryStore, players *store.MatchStore, logger *slog.Logger, m *metrics.Metrics) *EntryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntryService{db: db, store: store, players: players, logger: logger, metrics: m}
}

// ReassignResult counts entry statuses after a bulk reassignment.
type ReassignResult struct {
	Accepted   int `json:"accepted"`
	Waitlisted int `json:"waitlisted"`
	Pending    int `json:"pending"`
}

// Register creates a primary entry awaiting a priority.
func (s *EntryService) Register(ctx context.Context, playerID uuid.UUID) (*quiz.Entry, error) {
	return s.create(ctx, playerID, func(ctx context.Context, tx *sqlx.Tx, entry *quiz.Entry) error {
		entry.EntryPhase = quiz.PhasePrimary
		entry.Status = quiz.EntryPending
		return nil
	})
}

// CreateSecondaryEntry appends an entry behind every existing priority. It is
// accepted while there is room and waitlisted otherwise.
func (s *EntryService) CreateSecondaryEntry(ctx context.Context, playerID uuid.UUID, capacity int) (*quiz.Entry, error) {
	if capacity < 0 {
		return nil, quiz.Validationf("capacity cannot be negative")
	}
	return s.create(ctx, playerID, func(ctx context.Context, tx *sqlx.Tx, entry *quiz.Entry) error {
		maxPriority, err := s.store.MaxPriorityTx(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed to get max priority: %w", err)
		}
		accepted, err := s.store.CountByStatusTx(ctx, tx, quiz.EntryAccepted)
		if err != nil {
			return fmt.Errorf("failed to count accepted entries: %w", err)
		}

		entry.EntryPhase = quiz.PhaseSecondary
		entry.Priority = utils.Ptr(maxPriority + 1)
		entry.Status = quiz.EntryWaitlisted
		if accepted < capacity {
			entry.Status = quiz.EntryAccepted
		}
		return nil
	})
}

func (s *EntryService) create(ctx context.Context, playerID uuid.UUID, fill func(context.Context, *sqlx.Tx, *quiz.Entry) error) (*quiz.Entry, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := db.LockTable(ctx, tx, "entries"); err != nil {
		return nil, err
	}
	if _, err := s.players.GetPlayerTx(ctx, tx, playerID); err != nil {
		return nil, err
	}
	active, err := s.store.HasActiveEntryTx(ctx, tx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing entries: %w", err)
	}
	if active {
		return nil, quiz.StateConflictf("player %s already has an entry", playerID)
	}

	now := time.Now().UTC()
	entry := &quiz.Entry{ID: uuid.New(), PlayerID: playerID, CreatedAt: now, UpdatedAt: now}
	if err := fill(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := s.store.CreateEntry(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("entry created", "entry_id", entry.ID, "player_id", playerID,
		"entry_phase", entry.EntryPhase, "status", entry.Status)
	return entry, nil
}

// Cancel cancels the entry. When it held an accepted slot, the next waitlisted
// entry by (priority, id) takes it; that entry is returned, or nil.
func (s *EntryService) Cancel(ctx context.Context, entryID uuid.UUID) (*quiz.Entry, error) {
	promoted, err := s.cancel(ctx, entryID)
	if err != nil {
		s.metrics.Rejected(err)
		return nil, err
	}

	s.logger.Info("entry cancelled", "entry_id", entryID)
	if promoted != nil {
		s.metrics.Promotions(1)
		s.logger.Info("entry promoted", "entry_id", promoted.ID, "priority", utils.OrZero(promoted.Priority))
	}
	return promoted, nil
}

func (s *EntryService) cancel(ctx context.Context, entryID uuid.UUID) (*quiz.Entry, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := s.store.GetEntryForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status == quiz.EntryCancelled {
		return nil, quiz.StateConflictf("entry %s is already cancelled", entryID)
	}
	if err := s.store.UpdateStatus(ctx, tx, entryID, quiz.EntryCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel entry: %w", err)
	}

	var promoted *quiz.Entry
	if entry.Status == quiz.EntryAccepted {
		promoted, err = s.store.NextPromotionCandidateForUpdate(ctx, tx)
		if err != nil {
			return nil, err
		}
		if promoted != nil {
			if err := s.store.UpdateStatus(ctx, tx, promoted.ID, quiz.EntryAccepted); err != nil {
				return nil, fmt.Errorf("failed to promote entry: %w", err)
			}
			promoted.Status = quiz.EntryAccepted
		}
	}
	return promoted, tx.Commit()
}

// BulkReassignPriorities applies a priority sheet and recomputes every status:
// no priority is pending, the first capacity prioritized entries are accepted
// and the rest waitlisted. Cancelled entries take new priorities but stay cancelled.
// The sheet is applied in full or not at all.
func (s *EntryService) BulkReassignPriorities(ctx context.Context, rows []quiz.PriorityAssignment, capacity int) (*ReassignResult, error) {
	result, promotions, err := s.bulkReassign(ctx, rows, capacity)
	if err != nil {
		s.metrics.Rejected(err)
		s.logger.Warn("priority sheet rejected", "rows", len(rows), "error", err)
		return nil, err
	}

	s.metrics.Promotions(promotions)
	s.logger.Info("priorities reassigned", "rows", len(rows), "capacity", capacity,
		"accepted", result.Accepted, "waitlisted", result.Waitlisted, "pending", result.Pending)
	return result, nil
}

func (s *EntryService) bulkReassign(ctx context.Context, rows []quiz.PriorityAssignment, capacity int) (*ReassignResult, int, error) {
	if err := validateSheet(rows, capacity); err != nil {
		return nil, 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	if err := db.LockTable(ctx, tx, "entries"); err != nil {
		return nil, 0, err
	}
	entries, err := s.store.ListEntriesTx(ctx, tx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list entries: %w", err)
	}

	byID := make(map[uuid.UUID]*quiz.Entry, len(entries))
	for i := range entries {
		byID[entries[i].ID] = &entries[i]
	}
	targets := make([]uuid.UUID, len(rows))
	inBatch := make(map[uuid.UUID]bool, len(rows))
	for i, row := range rows {
		if _, ok := byID[row.EntryID]; !ok {
			return nil, 0, quiz.InvariantViolationf("entry %s does not exist", row.EntryID)
		}
		targets[i] = row.EntryID
		inBatch[row.EntryID] = true
	}
	held := make(map[int]uuid.UUID)
	for _, e := range entries {
		if e.Priority != nil && !inBatch[e.ID] {
			held[*e.Priority] = e.ID
		}
	}
	for _, row := range rows {
		if row.Priority == nil {
			continue
		}
		if owner, ok := held[*row.Priority]; ok {
			return nil, 0, quiz.InvariantViolationf("priority %d is already held by entry %s", *row.Priority, owner)
		}
	}

	if err := s.store.ClearPriorities(ctx, tx, targets); err != nil {
		return nil, 0, fmt.Errorf("failed to clear priorities: %w", err)
	}
	for _, row := range rows {
		byID[row.EntryID].Priority = row.Priority
		if row.Priority == nil {
			continue
		}
		if err := s.store.UpdatePriority(ctx, tx, row.EntryID, row.Priority); err != nil {
			return nil, 0, fmt.Errorf("failed to set priority of entry %s: %w", row.EntryID, err)
		}
	}

	result, promotions, err := s.recomputeStatuses(ctx, tx, entries, capacity)
	if err != nil {
		return nil, 0, err
	}
	return result, promotions, tx.Commit()
}

// recomputeStatuses writes the status every non-cancelled entry should have
// under its current priority.
func (s *EntryService) recomputeStatuses(ctx context.Context, tx *sqlx.Tx, entries []quiz.Entry, capacity int) (*ReassignResult, int, error) {
	var ranked []*quiz.Entry
	want := make(map[uuid.UUID]quiz.EntryStatus, len(entries))
	for i := range entries {
		e := &entries[i]
		switch {
		case e.Status == quiz.EntryCancelled:
		case e.Priority == nil:
			want[e.ID] = quiz.EntryPending
		default:
			ranked = append(ranked, e)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if *ranked[i].Priority != *ranked[j].Priority {
			return *ranked[i].Priority < *ranked[j].Priority
		}
		return ranked[i].ID.String() < ranked[j].ID.String()
	})
	for i, e := range ranked {
		if i < capacity {
			want[e.ID] = quiz.EntryAccepted
		} else {
			want[e.ID] = quiz.EntryWaitlisted
		}
	}

	result := &ReassignResult{}
	promotions := 0
	for i := range entries {
		e := &entries[i]
		status, ok := want[e.ID]
		if !ok {
			continue
		}
		switch status {
		case quiz.EntryAccepted:
			result.Accepted++
			if e.Status == quiz.EntryWaitlisted {
				promotions++
			}
		case quiz.EntryWaitlisted:
			result.Waitlisted++
		case quiz.EntryPending:
			result.Pending++
		}
		if status == e.Status {
			continue
		}
		if err := s.store.UpdateStatus(ctx, tx, e.ID, status); err != nil {
			return nil, 0, fmt.Errorf("failed to update status of entry %s: %w", e.ID, err)
		}
		e.Status = status
	}
	return result, promotions, nil
}

func validateSheet(rows []quiz.PriorityAssignment, capacity int) error {
	if capacity < 0 {
		return quiz.Validationf("capacity cannot be negative")
	}
	ids := make(map[uuid.UUID]bool, len(rows))
	priorities := make(map[int]bool, len(rows))
	for _, row := range rows {
		if ids[row.EntryID] {
			return quiz.InvariantViolationf("entry %s appears twice", row.EntryID)
		}
		ids[row.EntryID] = true
		if row.Priority == nil {
			continue
		}
		if *row.Priority < 1 {
			return quiz.Validationf("priority of entry %s must be positive", row.EntryID)
		}
		if priorities[*row.Priority] {
			return quiz.InvariantViolationf("priority %d appears twice", *row.Priority)
		}
		priorities[*row.Priority] = true
	}
	return nil
}

func (s *EntryService) GetEntry(ctx context.Context, id uuid.UUID) (*quiz.Entry, error) {
	return s.store.GetEntry(ctx, id)
}

// PromotionCandidates lists the waitlist in promotion order.
func (s *EntryService) PromotionCandidates(ctx context.Context) ([]quiz.Entry, error) {
	return s.store.PromotionCandidates(ctx)
}

// ForEntryList lists non-cancelled entries by priority, unprioritized last.
func (s *EntryService) ForEntryList(ctx context.Context) ([]quiz.Entry, error) {
	return s.store.ForEntryList(ctx)
}
