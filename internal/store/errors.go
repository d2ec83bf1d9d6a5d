package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

// notFound maps sql.ErrNoRows to a NotFound error naming what was looked up.
func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.NotFoundf("%s %v not found", what, id)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
