package importer

import (
	"bytes"

	"github.com/kyanagi/yamabuki-cup-app/internal/quiz"
	"github.com/xuri/excelize/v2"
)

type XLSXParser struct{}

func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

// Parse reads the first sheet of the workbook.
func (p *XLSXParser) Parse(data []byte) ([]quiz.PriorityAssignment, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, quiz.Validationf("failed to open XLSX file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, quiz.Validationf("XLSX file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, quiz.Validationf("failed to read sheet %q: %v", sheets[0], err)
	}
	return parseRows(rows)
}
