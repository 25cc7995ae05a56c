package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/manualgen/internal/plan"
)

// CSVParser handles CSV files. The header row becomes an introductory
// paragraph and each data row a bullet of "header: value" pairs.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*plan.Plan, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	a := newAssembler(filename)
	if len(records) == 0 {
		return a.finish(), nil
	}

	headers := records[0]
	a.add(plan.Paragraph(
		plan.Run{Text: "Columns: ", Bold: true},
		plan.Run{Text: strings.Join(headers, ", ")},
	))

	for _, row := range records[1:] {
		var text strings.Builder
		for j, cell := range row {
			if j > 0 {
				text.WriteString(", ")
			}
			if j < len(headers) {
				text.WriteString(headers[j] + ": " + cell)
			} else {
				text.WriteString(cell)
			}
		}
		a.add(plan.Item(plan.ListBullet, 0, text.String()))
	}

	return a.finish(), nil
}
