// Package importer reads bulk priority sheets exported from the entry spreadsheet.
// Every sheet has an entry id column followed by a priority column; a blank
// priority clears the entry's priority. A leading header row is skipped.
package importer

import (
	"path/filepath"
	"strings"

	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

type Parser interface {
	Parse(data []byte) ([]quiz.PriorityAssignment, error)
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// GetParser picks a parser by the file extension of filename.
func (f *Factory) GetParser(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return NewCSVParser(), nil
	case ".xlsx":
		return NewXLSXParser(), nil
	default:
		return nil, quiz.Validationf("unsupported file type: %q", ext)
	}
}

// Parse reads a priority sheet with the parser matching filename.
func Parse(filename string, data []byte) ([]quiz.PriorityAssignment, error) {
	p, err := NewFactory().GetParser(filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(data)
}
