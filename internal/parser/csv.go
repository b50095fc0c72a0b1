package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
)

// csvBatchSize is the number of data rows per section.
const csvBatchSize = 20

// CSVParser handles CSV files. Rows are grouped into sections, each holding
// one table block led by the header row.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".csv"),
		Stats: map[string]any{"rows": 0, "columns": 0},
	}

	if len(records) == 0 {
		return tree, nil
	}

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]
	tree.Stats = map[string]any{"rows": len(dataRows), "columns": len(headers)}

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		rows := []string{pipeRow(headers)}
		for _, row := range dataRows[i:end] {
			rows = append(rows, pipeRow(row))
		}

		node := &doctree.DocNode{
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, skip header
			Page:  i + 2,
		}
		node.AppendBlock(doctree.BlockTable, strings.Join(rows, "\n"))
		tree.Children = append(tree.Children, node)
	}

	return tree, nil
}

func pipeRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
