package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/kyanagi/yamabuki-cup-app/internal/rule"
	"github.com/kyanagi/yamabuki-cup-app/internal/store"
)

type MatchService struct {
	db         *sqlx.DB
	store      *store.MatchStore
	operations *store.OperationStore
}

func NewMatchService(db *sqlx.DB, store *store.MatchStore, operations *store.OperationStore) *MatchService {
	return &MatchService{db: db, store: store, operations: operations}
}

// Board is what the scoreboard shows for a match.
type Board struct {
	Match    *quiz.Match      `json:"match"`
	Rule     rule.Name        `json:"rule"`
	Scores   []quiz.ScoreView `json:"scores"`
	Progress string           `json:"progress"`
}

func (s *MatchService) CreatePlayer(ctx context.Context, name string) (*quiz.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, quiz.Validationf("player name is required")
	}
	player := &quiz.Player{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (s *MatchService) CreateRound(ctx context.Context, name string, ruleName string) (*quiz.Round, error) {
	if _, err := rule.Lookup(ruleName); err != nil {
		return nil, err
	}
	round := &quiz.Round{ID: uuid.New(), Name: strings.TrimSpace(name), Rule: ruleName, CreatedAt: time.Now().UTC()}
	if round.Name == "" {
		round.Name = ruleName
	}
	if err := s.store.CreateRound(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}
	return round, nil
}

// CreateMatch seats playerIDs in order, starting at seat 1.
func (s *MatchService) CreateMatch(ctx context.Context, roundID uuid.UUID, number int, name string, playerIDs []uuid.UUID) (*quiz.Match, error) {
	if number < 1 {
		return nil, quiz.Validationf("match number must be positive")
	}
	if len(playerIDs) == 0 {
		return nil, quiz.Validationf("a match needs at least one player")
	}
	seen := make(map[uuid.UUID]bool, len(playerIDs))
	for _, id := range playerIDs {
		if seen[id] {
			return nil, quiz.Validationf("player %s is seated twice", id)
		}
		seen[id] = true
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := s.store.GetRoundTx(ctx, tx, roundID); err != nil {
		return nil, err
	}
	players, err := s.store.GetPlayersTx(ctx, tx, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	if len(players) != len(playerIDs) {
		return nil, quiz.Validationf("%d of %d players do not exist", len(playerIDs)-len(players), len(playerIDs))
	}

	match := &quiz.Match{
		ID:          uuid.New(),
		RoundID:     roundID,
		MatchNumber: number,
		Name:        name,
		CreatedAt:   time.Now().UTC(),
	}
	matchings := make([]quiz.Matching, len(playerIDs))
	for i, id := range playerIDs {
		matchings[i] = quiz.Matching{ID: uuid.New(), MatchID: match.ID, PlayerID: id, Seat: i + 1}
	}

	if err := s.store.CreateMatch(ctx, tx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	if err := s.store.CreateMatchings(ctx, tx, matchings); err != nil {
		return nil, fmt.Errorf("failed to create matchings: %w", err)
	}
	return match, tx.Commit()
}

func (s *MatchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*quiz.Match, error) {
	return s.store.GetMatch(ctx, matchID)
}

// CurrentScores is the snapshot of the match's current operation, in seat order.
// It is empty before the match opens.
func (s *MatchService) CurrentScores(ctx context.Context, matchID uuid.UUID) ([]quiz.ScoreView, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return s.currentScores(ctx, match)
}

func (s *MatchService) currentScores(ctx context.Context, match *quiz.Match) ([]quiz.ScoreView, error) {
	if !match.Opened() {
		return []quiz.ScoreView{}, nil
	}
	views, err := s.operations.GetScoreViews(ctx, *match.LastOperationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}
	return views, nil
}

// ProgressSummary is the remaining-contestants line, e.g. "勝ち抜け 2/4人・残り 3人".
func (s *MatchService) ProgressSummary(ctx context.Context, matchID uuid.UUID) (string, error) {
	board, err := s.Board(ctx, matchID)
	if err != nil {
		return "", err
	}
	return board.Progress, nil
}

func (s *MatchService) Board(ctx context.Context, matchID uuid.UUID) (*Board, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	round, err := s.store.GetRound(ctx, match.RoundID)
	if err != nil {
		return nil, err
	}
	r, err := rule.Lookup(round.Rule)
	if err != nil {
		return nil, err
	}
	views, err := s.currentScores(ctx, match)
	if err != nil {
		return nil, err
	}

	board := &Board{Match: match, Rule: r.Name(), Scores: views, Progress: "試合前"}
	if match.Opened() {
		board.Progress = rule.Progress(r, snapshotOf(views))
	}
	return board, nil
}

func snapshotOf(views []quiz.ScoreView) rule.Snapshot {
	s := make(rule.Snapshot, len(views))
	for i, v := range views {
		s[i] = rule.PlayerState{
			MatchingID: v.MatchingID,
			Seat:       v.Seat,
			Status:     v.Status,
			Points:     v.Points,
			Misses:     v.Misses,
			Stars:      v.Stars,
			Rank:       v.Rank,
		}
	}
	return s
}
