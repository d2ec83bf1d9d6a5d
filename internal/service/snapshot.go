package service

import (
	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/kyanagi/yamabuki-cup-app/internal/rule"
)

func initialSnapshot(r rule.Rule, matchings []quiz.Matching) rule.Snapshot {
	s := make(rule.Snapshot, len(matchings))
	for i, m := range matchings {
		s[i] = r.InitialState(m.Seat)
		s[i].MatchingID = m.ID
		s[i].Seat = m.Seat
	}
	return s
}

// snapshotFrom rebuilds the rule view of a stored snapshot, in seat order.
func snapshotFrom(matchings []quiz.Matching, scores []quiz.Score) (rule.Snapshot, error) {
	byMatching := make(map[uuid.UUID]quiz.Score, len(scores))
	for _, sc := range scores {
		byMatching[sc.MatchingID] = sc
	}
	if len(byMatching) != len(matchings) || len(scores) != len(matchings) {
		return nil, quiz.InvariantViolationf("snapshot has %d rows for %d contestants", len(scores), len(matchings))
	}

	s := make(rule.Snapshot, len(matchings))
	for i, m := range matchings {
		sc, ok := byMatching[m.ID]
		if !ok {
			return nil, quiz.InvariantViolationf("snapshot is missing seat %d", m.Seat)
		}
		s[i] = rule.PlayerState{
			MatchingID: m.ID,
			Seat:       m.Seat,
			Status:     sc.Status,
			Points:     sc.Points,
			Misses:     sc.Misses,
			Stars:      sc.Stars,
			Rank:       sc.Rank,
		}
	}
	return s, nil
}

// checkCoverage enforces one state per contestant of the match.
func checkCoverage(s rule.Snapshot, matchings []quiz.Matching) error {
	if len(s) != len(matchings) {
		return quiz.InvariantViolationf("snapshot has %d rows for %d contestants", len(s), len(matchings))
	}
	seen := make(map[uuid.UUID]bool, len(s))
	for _, p := range s {
		seen[p.MatchingID] = true
	}
	for _, m := range matchings {
		if !seen[m.ID] {
			return quiz.InvariantViolationf("snapshot is missing seat %d", m.Seat)
		}
	}
	return nil
}

func scoresFrom(operationID uuid.UUID, s rule.Snapshot) []quiz.Score {
	scores := make([]quiz.Score, len(s))
	for i, p := range s {
		scores[i] = quiz.Score{
			ID:          uuid.New(),
			OperationID: operationID,
			MatchingID:  p.MatchingID,
			Status:      p.Status,
			Points:      p.Points,
			Misses:      p.Misses,
			Rank:        p.Rank,
			Stars:       p.Stars,
		}
	}
	return scores
}

// seatsByPlayer indexes matchings by player for resolving request payloads.
func seatsByPlayer(matchings []quiz.Matching) map[uuid.UUID]quiz.Matching {
	out := make(map[uuid.UUID]quiz.Matching, len(matchings))
	for _, m := range matchings {
		out[m.PlayerID] = m
	}
	return out
}
