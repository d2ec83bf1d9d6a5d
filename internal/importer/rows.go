package importer

import (
	"strings"

	"github.com/google/uuid"
	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/kyanagi/yamabuki-cup-app/internal/utils"
)

// parseRows turns sheet rows into assignments. Line numbers in errors are 1-based.
func parseRows(records [][]string) ([]quiz.PriorityAssignment, error) {
	var rows []quiz.PriorityAssignment
	for i, record := range records {
		if isBlank(record) {
			continue
		}
		idCell := strings.TrimSpace(record[0])
		id, err := uuid.Parse(idCell)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, quiz.Validationf("line %d: invalid entry id %q", i+1, idCell)
		}

		row := quiz.PriorityAssignment{EntryID: id}
		if len(record) > 1 {
			priority, err := utils.IntOrNil(record[1])
			if err != nil {
				return nil, quiz.Validationf("line %d: priority %q is not a number", i+1, strings.TrimSpace(record[1]))
			}
			row.Priority = priority
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, quiz.Validationf("sheet has no entry rows")
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
