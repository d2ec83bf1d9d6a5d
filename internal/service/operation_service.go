package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kyanagi/yamabuki-cup-app/internal/metrics"
	"github.com/kyanagi/yamabuki-cup-app/internal/middleware"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/kyanagi/yamabuki-cup-app/internal/rule"
	"github.com/kyanagi/yamabuki-cup-app/internal/store"
)

// Notifier is told about every committed change to a match.
type Notifier interface {
	MatchChanged(ctx context.Context, matchID uuid.UUID)
}

type OperationService struct {
	db         *sqlx.DB
	matches    *store.MatchStore
	operations *store.OperationStore
	logger     *slog.Logger
	metrics    *metrics.Metrics
	notifier   Notifier
}

func NewOperationService(db *sqlx.DB, matches *store.MatchStore, operations *store.OperationStore,
	logger *slog.Logger, m *metrics.Metrics, notifier Notifier) *OperationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationService{
		db:         db,
		matches:    matches,
		operations: operations,
		logger:     logger,
		metrics:    m,
		notifier:   notifier,
	}
}

// OutcomeInput is one contestant's answer to a question, keyed by player.
type OutcomeInput struct {
	PlayerID  uuid.UUID      `json:"player_id"`
	Result    quiz.Result    `json:"result"`
	Situation quiz.Situation `json:"situation"`
}

// OperationRequest carries the kind-specific payload of a new operation. Only
// the fields of the requested kind are read.
type OperationRequest struct {
	Kind quiz.OperationKind `json:"kind"`

	// QuestionClosing. No outcomes means nobody answered (a pass).
	QuestionNumber *int           `json:"question_number,omitempty"`
	Outcomes       []OutcomeInput `json:"outcomes,omitempty"`

	// Disqualification
	PlayerID *uuid.UUID `json:"player_id,omitempty"`

	Edits      []quiz.FieldEdit `json:"edits,omitempty"`
	Qualifiers []quiz.Qualifier `json:"qualifiers,omitempty"`
}

// matchState is everything an operation is computed from, read under the match lock.
type matchState struct {
	match     *quiz.Match
	rule      rule.Rule
	matchings []quiz.Matching
	head      *quiz.Operation
	current   rule.Snapshot
}

func (s *OperationService) loadState(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) (*matchState, error) {
	match, err := s.matches.GetMatchForUpdate(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	round, err := s.matches.GetRoundTx(ctx, tx, match.RoundID)
	if err != nil {
		return nil, err
	}
	r, err := rule.Lookup(round.Rule)
	if err != nil {
		return nil, err
	}
	matchings, err := s.matches.GetMatchingsTx(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matchings: %w", err)
	}

	st := &matchState{match: match, rule: r, matchings: matchings}
	if !match.Opened() {
		return st, nil
	}

	st.head, err = s.operations.GetOperationTx(ctx, tx, *match.LastOperationID)
	if err != nil {
		return nil, err
	}
	scores, err := s.operations.GetScoresTx(ctx, tx, st.head.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}
	st.current, err = snapshotFrom(matchings, scores)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// CreateOperation appends an operation of req.Kind to the match's chain. An Undo
// request truncates the chain instead and returns the new head, or nil when the
// chain is empty.
func (s *OperationService) CreateOperation(ctx context.Context, matchID uuid.UUID, req OperationRequest) (*quiz.Operation, error) {
	if !req.Kind.Valid() {
		err := quiz.Validationf("unknown operation kind %q", req.Kind)
		s.metrics.Rejected(err)
		return nil, err
	}
	if req.Kind == quiz.KindUndo {
		return s.Undo(ctx, matchID)
	}

	op, err := s.createOperation(ctx, matchID, req)
	if err != nil {
		s.metrics.Rejected(err)
		s.logger.Warn("operation rejected", "match_id", matchID, "kind", req.Kind, "error", err)
		return nil, err
	}

	s.metrics.Operation(op.Kind)
	s.logger.Info("operation created",
		"match_id", matchID, "kind", op.Kind, "operation_id", op.ID, "depth", op.Depth, "operator", op.Operator)
	s.notify(ctx, matchID)
	return op, nil
}

func (s *OperationService) createOperation(ctx context.Context, matchID uuid.UUID, req OperationRequest) (*quiz.Operation, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	st, err := s.loadState(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	if len(st.matchings) == 0 {
		return nil, quiz.StateConflictf("match %s has no contestants", matchID)
	}
	switch {
	case req.Kind == quiz.KindMatchOpening && st.match.Opened():
		return nil, quiz.StateConflictf("match %s is already open", matchID)
	case req.Kind != quiz.KindMatchOpening && !st.match.Opened():
		return nil, quiz.StateConflictf("match %s has not been opened", matchID)
	}

	op := &quiz.Operation{
		ID:        uuid.New(),
		MatchID:   matchID,
		Kind:      req.Kind,
		Path:      st.head.NextPath(),
		CreatedAt: time.Now().UTC(),
	}
	op.Depth = len(op.Path)
	if st.head != nil {
		op.PreviousOperationID = &st.head.ID
	}
	if operator, ok := middleware.OperatorFromContext(ctx); ok {
		op.Operator = operator
	}

	next, question, err := s.transition(st, op, req)
	if err != nil {
		return nil, err
	}
	if err := checkCoverage(next, st.matchings); err != nil {
		return nil, err
	}

	if err := s.operations.CreateOperation(ctx, tx, op); err != nil {
		return nil, err
	}
	if err := s.operations.CreateScores(ctx, tx, scoresFrom(op.ID, next)); err != nil {
		return nil, fmt.Errorf("failed to insert scores: %w", err)
	}
	if question != nil {
		if err := s.operations.CreateQuestionResult(ctx, tx, question); err != nil {
			return nil, err
		}
	}
	if err := s.matches.AdvanceMatchPointer(ctx, tx, matchID, &op.ID, st.match.LockVersion); err != nil {
		return nil, err
	}

	return op, tx.Commit()
}

// transition runs the rule for op and fills in its payload. QuestionClosing also
// returns the question result the operation owns.
func (s *OperationService) transition(st *matchState, op *quiz.Operation, req OperationRequest) (rule.Snapshot, *quiz.QuestionResult, error) {
	seats := seatsByPlayer(st.matchings)

	switch req.Kind {
	case quiz.KindMatchOpening:
		return initialSnapshot(st.rule, st.matchings), nil, nil

	case quiz.KindQuestionClosing:
		question := &quiz.QuestionResult{
			ID:             uuid.New(),
			MatchID:        op.MatchID,
			OperationID:    op.ID,
			QuestionNumber: req.QuestionNumber,
			CreatedAt:      op.CreatedAt,
			Outcomes:       make([]quiz.PlayerQuestionOutcome, 0, len(req.Outcomes)),
		}
		outcomes := make([]rule.Outcome, len(req.Outcomes))
		for i, in := range req.Outcomes {
			m, ok := seats[in.PlayerID]
			if !ok {
				return nil, nil, quiz.Validationf("player %s is not in this match", in.PlayerID)
			}
			outcomes[i] = rule.Outcome{MatchingID: m.ID, Result: in.Result, Situation: in.Situation}
			question.Outcomes = append(question.Outcomes, quiz.PlayerQuestionOutcome{
				MatchingID: m.ID,
				PlayerID:   in.PlayerID,
				Result:     in.Result,
				Situation:  in.Situation,
			})
		}
		next, err := st.rule.ApplyQuestionResult(st.current, outcomes)
		if err != nil {
			return nil, nil, err
		}
		if err := op.SetPayload(quiz.QuestionClosingPayload{QuestionNumber: req.QuestionNumber}); err != nil {
			return nil, nil, err
		}
		return next, question, nil

	case quiz.KindMatchClosing:
		next, err := st.rule.JudgeOnCompletion(st.current)
		return next, nil, err

	case quiz.KindSetTransition:
		t, ok := st.rule.(rule.SetTransitioner)
		if !ok {
			return nil, nil, quiz.StateConflictf("%s has no sets", st.rule.Name())
		}
		next, err := t.TransitionSet(st.current)
		return next, nil, err

	case quiz.KindDisqualification:
		d, ok := st.rule.(rule.Disqualifier)
		if !ok {
			return nil, nil, quiz.StateConflictf("%s does not allow disqualification", st.rule.Name())
		}
		if req.PlayerID == nil {
			return nil, nil, quiz.Validationf("disqualification needs a player")
		}
		m, ok := seats[*req.PlayerID]
		if !ok {
			return nil, nil, quiz.Validationf("player %s is not in this match", *req.PlayerID)
		}
		next, err := d.Disqualify(st.current, m.ID)
		if err != nil {
			return nil, nil, err
		}
		if err := op.SetPayload(quiz.DisqualificationPayload{PlayerID: m.PlayerID, Seat: m.Seat}); err != nil {
			return nil, nil, err
		}
		return next, nil, nil

	case quiz.KindFreeEdit:
		edits := make([]rule.Edit, len(req.Edits))
		for i, e := range req.Edits {
			m, ok := seats[e.PlayerID]
			if !ok {
				return nil, nil, quiz.Validationf("player %s is not in this match", e.PlayerID)
			}
			edits[i] = rule.Edit{MatchingID: m.ID, FieldEdit: e}
		}
		next, err := rule.ApplyEdits(st.rule, st.current, edits)
		if err != nil {
			return nil, nil, err
		}
		if err := op.SetPayload(quiz.FreeEditPayload{Edits: req.Edits}); err != nil {
			return nil, nil, err
		}
		return next, nil, nil

	case quiz.KindQualifierOverride:
		o, ok := st.rule.(rule.QualifierOverrider)
		if !ok {
			return nil, nil, quiz.StateConflictf("%s does not take qualifier overrides", st.rule.Name())
		}
		ranks := make(map[uuid.UUID]int, len(req.Qualifiers))
		for _, q := range req.Qualifiers {
			m, ok := seats[q.PlayerID]
			if !ok {
				return nil, nil, quiz.Validationf("player %s is not in this match", q.PlayerID)
			}
			if _, dup := ranks[m.ID]; dup {
				return nil, nil, quiz.Validationf("player %s is listed twice", q.PlayerID)
			}
			ranks[m.ID] = q.Rank
		}
		next, err := o.OverrideQualifiers(st.current, ranks)
		if err != nil {
			return nil, nil, err
		}
		if err := op.SetPayload(quiz.QualifierOverridePayload{Qualifiers: req.Qualifiers}); err != nil {
			return nil, nil, err
		}
		return next, nil, nil
	}
	return nil, nil, quiz.Validationf("operation kind %q cannot be created", req.Kind)
}

// Undo deletes the head operation and points the match at its predecessor.
// It returns the new head, or nil when the chain is (now) empty.
func (s *OperationService) Undo(ctx context.Context, matchID uuid.UUID) (*quiz.Operation, error) {
	undone, err := s.undo(ctx, matchID)
	if err != nil {
		s.metrics.Rejected(err)
		s.logger.Warn("undo rejected", "match_id", matchID, "error", err)
		return nil, err
	}
	if undone == nil {
		return nil, nil
	}

	s.metrics.Undo()
	s.logger.Info("operation undone", "match_id", matchID, "kind", undone.Kind, "operation_id", undone.ID)
	s.notify(ctx, matchID)

	if undone.PreviousOperationID == nil {
		return nil, nil
	}
	return s.operations.GetOperation(ctx, *undone.PreviousOperationID)
}

func (s *OperationService) undo(ctx context.Context, matchID uuid.UUID) (*quiz.Operation, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.matches.GetMatchForUpdate(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.Opened() {
		return nil, nil
	}

	head, err := s.operations.GetOperationTx(ctx, tx, *match.LastOperationID)
	if err != nil {
		return nil, err
	}
	if err := s.matches.AdvanceMatchPointer(ctx, tx, matchID, head.PreviousOperationID, match.LockVersion); err != nil {
		return nil, err
	}
	if err := s.operations.DeleteOperation(ctx, tx, head.ID); err != nil {
		return nil, err
	}
	return head, tx.Commit()
}

// OperationHistory returns the operation followed by its ancestors, newest first.
func (s *OperationService) OperationHistory(ctx context.Context, operationID uuid.UUID) ([]quiz.Operation, error) {
	return s.operations.History(ctx, operationID)
}

// MatchHistory is the history of the match's current operation; empty before opening.
func (s *OperationService) MatchHistory(ctx context.Context, matchID uuid.UUID) ([]quiz.Operation, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.Opened() {
		return []quiz.Operation{}, nil
	}
	return s.operations.History(ctx, *match.LastOperationID)
}

func (s *OperationService) notify(ctx context.Context, matchID uuid.UUID) {
	if s.notifier != nil {
		s.notifier.MatchChanged(ctx, matchID)
	}
}
