package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

// OperationStore persists the operation chain and everything an operation writes:
// its ancestry rows, its score snapshot and, for question closings, the question result.
type OperationStore struct {
	db *sqlx.DB
}

const (
	createOperationQuery = `
		INSERT INTO score_operations (id, match_id, kind, previous_operation_id, depth, created_by, payload, created_at)
		VALUES (:id, :match_id, :kind, :previous_operation_id, :depth, :created_by, :payload, :created_at)
	`
	createScoresQuery = `
		INSERT INTO scores (id, operation_id, matching_id, status, points, misses, rank, stars)
		VALUES (:id, :operation_id, :matching_id, :status, :points, :misses, :rank, :stars)
	`
	createQuestionResultQuery = `
		INSERT INTO question_results (id, match_id, operation_id, question_number, created_at)
		VALUES (:id, :match_id, :operation_id, :question_number, :created_at)
	`
	createOutcomesQuery = `
		INSERT INTO player_question_outcomes (question_result_id, matching_id, player_id, result, situation)
		VALUES (:question_result_id, :matching_id, :player_id, :result, :situation)
	`
	getOperationQuery  = "SELECT * FROM score_operations WHERE id = ?"
	getAncestorsQuery  = "SELECT ancestor_id FROM operation_ancestors WHERE operation_id = ? ORDER BY seq ASC"
	getScoresQuery     = "SELECT * FROM scores WHERE operation_id = ?"
	getScoreViewsQuery = `
		SELECT s.*, m.seat, m.player_id, p.name AS player_name
		FROM scores s
		JOIN matchings m ON m.id = s.matching_id
		JOIN players p ON p.id = m.player_id
		WHERE s.operation_id = ?
		ORDER BY m.seat ASC
	`
)

type ancestorRow struct {
	OperationID uuid.UUID `db:"operation_id"`
	Seq         int       `db:"seq"`
	AncestorID  uuid.UUID `db:"ancestor_id"`
}

func NewOperationStore(db *sqlx.DB) *OperationStore {
	return &OperationStore{db: db}
}

// CreateOperation inserts op and one ancestry row per entry of op.Path.
func (s *OperationStore) CreateOperation(ctx context.Context, tx *sqlx.Tx, op *quiz.Operation) error {
	if _, err := tx.NamedExecContext(ctx, createOperationQuery, op); err != nil {
		return fmt.Errorf("failed to insert operation: %w", err)
	}
	if len(op.Path) == 0 {
		return nil
	}
	rows := make([]ancestorRow, len(op.Path))
	for i, id := range op.Path {
		rows[i] = ancestorRow{OperationID: op.ID, Seq: i, AncestorID: id}
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO operation_ancestors (operation_id, seq, ancestor_id)
		VALUES (:operation_id, :seq, :ancestor_id)`, rows)
	if err != nil {
		return fmt.Errorf("failed to insert operation ancestry: %w", err)
	}
	return nil
}

func (s *OperationStore) CreateScores(ctx context.Context, tx *sqlx.Tx, scores []quiz.Score) error {
	if len(scores) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createScoresQuery, scores)
	return err
}

func (s *OperationStore) CreateQuestionResult(ctx context.Context, tx *sqlx.Tx, qr *quiz.QuestionResult) error {
	if _, err := tx.NamedExecContext(ctx, createQuestionResultQuery, qr); err != nil {
		return fmt.Errorf("failed to insert question result: %w", err)
	}
	if len(qr.Outcomes) == 0 {
		return nil
	}
	for i := range qr.Outcomes {
		qr.Outcomes[i].QuestionResultID = qr.ID
	}
	if _, err := tx.NamedExecContext(ctx, createOutcomesQuery, qr.Outcomes); err != nil {
		return fmt.Errorf("failed to insert question outcomes: %w", err)
	}
	return nil
}

func (s *OperationStore) GetOperation(ctx context.Context, id uuid.UUID) (*quiz.Operation, error) {
	return getOperation(ctx, s.db, id)
}

func (s *OperationStore) GetOperationTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*quiz.Operation, error) {
	return getOperation(ctx, tx, id)
}

func getOperation(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*quiz.Operation, error) {
	var op quiz.Operation
	if err := sqlx.GetContext(ctx, q, &op, q.Rebind(getOperationQuery), id); err != nil {
		return nil, notFound(err, "operation", id)
	}
	path := []uuid.UUID{}
	if err := sqlx.SelectContext(ctx, q, &path, q.Rebind(getAncestorsQuery), id); err != nil {
		return nil, fmt.Errorf("failed to get operation ancestry: %w", err)
	}
	op.Path = path
	return &op, nil
}

// History returns the operation and all of its ancestors, newest first.
func (s *OperationStore) History(ctx context.Context, id uuid.UUID) ([]quiz.Operation, error) {
	head, err := s.GetOperation(ctx, id)
	if err != nil {
		return nil, err
	}
	history := []quiz.Operation{*head}
	if len(head.Path) == 0 {
		return history, nil
	}

	query, args, err := sqlx.In("SELECT * FROM score_operations WHERE id IN (?)", head.Path)
	if err != nil {
		return nil, err
	}
	var ancestors []quiz.Operation
	if err := s.db.SelectContext(ctx, &ancestors, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get operation history: %w", err)
	}
	byID := make(map[uuid.UUID]quiz.Operation, len(ancestors))
	for _, op := range ancestors {
		byID[op.ID] = op
	}

	for i := len(head.Path) - 1; i >= 0; i-- {
		op, ok := byID[head.Path[i]]
		if !ok {
			return nil, fmt.Errorf("operation %s is missing ancestor %s", head.ID, head.Path[i])
		}
		op.Path = head.Path[:i:i]
		history = append(history, op)
	}
	return history, nil
}

func (s *OperationStore) GetScores(ctx context.Context, operationID uuid.UUID) ([]quiz.Score, error) {
	var scores []quiz.Score
	err := s.db.SelectContext(ctx, &scores, s.db.Rebind(getScoresQuery), operationID)
	return scores, err
}

func (s *OperationStore) GetScoresTx(ctx context.Context, tx *sqlx.Tx, operationID uuid.UUID) ([]quiz.Score, error) {
	var scores []quiz.Score
	err := tx.SelectContext(ctx, &scores, tx.Rebind(getScoresQuery), operationID)
	return scores, err
}

// GetScoreViews returns the snapshot of an operation joined with seats and names.
func (s *OperationStore) GetScoreViews(ctx context.Context, operationID uuid.UUID) ([]quiz.ScoreView, error) {
	var views []quiz.ScoreView
	err := s.db.SelectContext(ctx, &views, s.db.Rebind(getScoreViewsQuery), operationID)
	return views, err
}

// GetQuestionResult returns nil when the operation owns no question result.
func (s *OperationStore) GetQuestionResult(ctx context.Context, operationID uuid.UUID) (*quiz.QuestionResult, error) {
	var results []quiz.QuestionResult
	err := s.db.SelectContext(ctx, &results, s.db.Rebind("SELECT * FROM question_results WHERE operation_id = ?"), operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question result: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	qr := results[0]

	qr.Outcomes = []quiz.PlayerQuestionOutcome{}
	err = s.db.SelectContext(ctx, &qr.Outcomes, s.db.Rebind(`
		SELECT o.* FROM player_question_outcomes o
		JOIN matchings m ON m.id = o.matching_id
		WHERE o.question_result_id = ?
		ORDER BY m.seat ASC`), qr.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question outcomes: %w", err)
	}
	return &qr, nil
}

// DeleteOperation removes an operation and every row it wrote. Only the head
// of a chain can be deleted; anything else is still referenced by its successors.
func (s *OperationStore) DeleteOperation(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	steps := []struct {
		what  string
		query string
	}{
		{"question outcomes", `DELETE FROM player_question_outcomes
			WHERE question_result_id IN (SELECT id FROM question_results WHERE operation_id = ?)`},
		{"question results", "DELETE FROM question_results WHERE operation_id = ?"},
		{"scores", "DELETE FROM scores WHERE operation_id = ?"},
		{"ancestry", "DELETE FROM operation_ancestors WHERE operation_id = ?"},
		{"operation", "DELETE FROM score_operations WHERE id = ?"},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, tx.Rebind(step.query), id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", step.what, err)
		}
	}
	return nil
}
