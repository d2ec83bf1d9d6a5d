package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

// HistoryItem is an operation with its display line.
type HistoryItem struct {
	quiz.Operation
	Summary string `json:"summary"`
}

// SummarizeOperation renders the one-line description shown in history lists.
func (s *OperationService) SummarizeOperation(ctx context.Context, op *quiz.Operation) (string, error) {
	switch op.Kind {
	case quiz.KindMatchOpening:
		return "試合開始", nil
	case quiz.KindMatchClosing:
		return "試合終了", nil
	case quiz.KindSetTransition:
		return "セット移行", nil
	case quiz.KindQualifierOverride:
		return "勝抜者指定", nil

	case quiz.KindDisqualification:
		var p quiz.DisqualificationPayload
		if err := op.DecodePayload(&p); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d番 失格", p.Seat), nil

	case quiz.KindFreeEdit:
		var p quiz.FreeEditPayload
		if err := op.DecodePayload(&p); err != nil {
			return "", err
		}
		seats, err := s.seatOf(ctx, op.MatchID)
		if err != nil {
			return "", err
		}
		parts := make([]string, 0, len(p.Edits))
		for _, e := range p.Edits {
			parts = append(parts, fmt.Sprintf("%d番", seats[e.PlayerID]))
		}
		return "手動編集 " + strings.Join(parts, " "), nil

	case quiz.KindQuestionClosing:
		qr, err := s.operations.GetQuestionResult(ctx, op.ID)
		if err != nil {
			return "", err
		}
		prefix := ""
		if qr != nil && qr.QuestionNumber != nil {
			prefix = fmt.Sprintf("第%d問 ", *qr.QuestionNumber)
		}
		if qr == nil || len(qr.Outcomes) == 0 {
			return prefix + "スルー", nil
		}
		seats, err := s.seatOf(ctx, op.MatchID)
		if err != nil {
			return "", err
		}
		parts := make([]string, 0, len(qr.Outcomes))
		for _, o := range qr.Outcomes {
			mark := "○"
			if o.Result == quiz.ResultWrong {
				mark = "×"
			}
			parts = append(parts, fmt.Sprintf("%d番%s", seats[o.PlayerID], mark))
		}
		return prefix + strings.Join(parts, " "), nil
	}
	return string(op.Kind), nil
}

func (s *OperationService) seatOf(ctx context.Context, matchID uuid.UUID) (map[uuid.UUID]int, error) {
	matchings, err := s.matches.GetMatchings(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matchings: %w", err)
	}
	seats := make(map[uuid.UUID]int, len(matchings))
	for _, m := range matchings {
		seats[m.PlayerID] = m.Seat
	}
	return seats, nil
}

// MatchHistoryWithSummaries is MatchHistory with a display line per operation.
func (s *OperationService) MatchHistoryWithSummaries(ctx context.Context, matchID uuid.UUID) ([]HistoryItem, error) {
	history, err := s.MatchHistory(ctx, matchID)
	if err != nil {
		return nil, err
	}
	items := make([]HistoryItem, len(history))
	for i := range history {
		summary, err := s.SummarizeOperation(ctx, &history[i])
		if err != nil {
			return nil, err
		}
		items[i] = HistoryItem{Operation: history[i], Summary: summary}
	}
	return items, nil
}
