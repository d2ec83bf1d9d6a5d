package rule

import (
	"fmt"

	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

// Progress renders the remaining-contestants line shown on the broadcast.
func Progress(r Rule, s Snapshot) string {
	if len(s) == 0 {
		return "出場者なし"
	}
	remaining := len(s.Undecided())
	if remaining == 0 {
		return "試合終了"
	}
	if n := r.NumWinners(); n > 0 {
		return fmt.Sprintf("勝ち抜け %d/%d人・残り %d人", s.Count(quiz.StatusWin), n, remaining)
	}
	return fmt.Sprintf("残り %d人", remaining)
}
