package rule

import (
	"slices"
	"sort"

	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/kyanagi/yamabuki-cup-app/internal/utils"
)

// byPoints orders more points first, then the lower seat.
func byPoints(a, b PlayerState) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	return a.Seat < b.Seat
}

// byStars orders more stars first, then the lower seat.
func byStars(a, b PlayerState) bool {
	if a.Stars != b.Stars {
		return a.Stars > b.Stars
	}
	return a.Seat < b.Seat
}

func sortIndices(s Snapshot, idx []int, better func(a, b PlayerState) bool) {
	sort.SliceStable(idx, func(i, j int) bool {
		return better(s[idx[i]], s[idx[j]])
	})
}

// takenRanks reports the ranks already held, skipping the contestants in except.
func takenRanks(s Snapshot, except ...int) map[int]bool {
	taken := make(map[int]bool, len(s))
	for i := range s {
		if s[i].Rank != nil && !slices.Contains(except, i) {
			taken[*s[i].Rank] = true
		}
	}
	return taken
}

// bestFreeRank is the lowest rank nobody holds.
func bestFreeRank(s Snapshot, taken map[int]bool) int {
	r := 1
	for taken[r] && r < len(s) {
		r++
	}
	return r
}

// worstFreeRank is the highest rank nobody holds.
func worstFreeRank(s Snapshot, taken map[int]bool) int {
	r := len(s)
	for taken[r] && r > 1 {
		r--
	}
	return r
}

// markWinners hands out the best free ranks, top down, to idx (best first).
func markWinners(s Snapshot, idx []int) {
	taken := takenRanks(s, idx...)
	for _, j := range idx {
		r := bestFreeRank(s, taken)
		taken[r] = true
		s[j].Status = quiz.StatusWin
		s[j].Rank = utils.Ptr(r)
	}
}

// markLosers fills ranks from the bottom. idx is best first, so the last one
// takes the worst free rank.
func markLosers(s Snapshot, idx []int) {
	taken := takenRanks(s, idx...)
	for i := len(idx) - 1; i >= 0; i-- {
		j := idx[i]
		r := worstFreeRank(s, taken)
		taken[r] = true
		s[j].Status = quiz.StatusLose
		s[j].Rank = utils.Ptr(r)
	}
}

// openSlots is the number of win slots still free.
func openSlots(s Snapshot, numWinners int) int {
	open := numWinners - s.Count(quiz.StatusWin)
	if open < 0 {
		return 0
	}
	return open
}

// takeWinners keeps at most the open slots worth of candidates, best first.
func takeWinners(s Snapshot, candidates []int, numWinners int, better func(a, b PlayerState) bool) []int {
	sortIndices(s, candidates, better)
	if open := openSlots(s, numWinners); len(candidates) > open {
		candidates = candidates[:open]
	}
	return candidates
}

// settle closes a match once its outcome is forced: with every slot taken the
// remaining contestants lose, and when the remaining contestants fit in the
// open slots they all win (tobi-nokori).
func settle(s Snapshot, numWinners int) {
	if numWinners <= 0 {
		return
	}
	undecided := s.Undecided()
	if len(undecided) == 0 {
		return
	}
	sortIndices(s, undecided, byPoints)
	open := openSlots(s, numWinners)
	switch {
	case open == 0:
		markLosers(s, undecided)
	case len(undecided) <= open:
		markWinners(s, undecided)
	}
}

// judge resolves every undecided contestant: open slots go to the best, the rest lose.
func judge(s Snapshot, numWinners int, better func(a, b PlayerState) bool) {
	undecided := s.Undecided()
	sortIndices(s, undecided, better)
	open := len(undecided)
	if numWinners > 0 {
		open = min(openSlots(s, numWinners), len(undecided))
	}
	markWinners(s, undecided[:open])
	markLosers(s, undecided[open:])
}
