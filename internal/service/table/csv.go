package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV splits r into rows. Quoting errors are attached to the offending
// row instead of aborting the read.
func readCSV(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows := make([]Row, 0, 32)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				rows = append(rows, Row{Line: parseErr.StartLine, Err: parseErr.Err.Error()})
				continue
			}
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		cells := make([]string, len(record))
		copy(cells, record)
		rows = append(rows, Row{Line: line, Cells: cells})
	}
	return rows, nil
}

// numberRows assigns 1-based line numbers to rows produced by non-text
// sources.
func numberRows(cells [][]string) []Row {
	rows := make([]Row, len(cells))
	for i, c := range cells {
		rows[i] = Row{Line: i + 1, Cells: c}
	}
	return rows
}
