package importer

import (
	"bytes"
	"encoding/csv"

	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
)

type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Parse(data []byte) ([]quiz.PriorityAssignment, error) {
	// Spreadsheet exports often start with a UTF-8 BOM.
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, quiz.Validationf("failed to read CSV: %v", err)
	}
	if len(records) == 0 {
		return nil, quiz.Validationf("CSV file is empty")
	}
	return parseRows(records)
}
