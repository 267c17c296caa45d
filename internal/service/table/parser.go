package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kapu/student-insights-go/internal/domain"
	"github.com/kapu/student-insights-go/pkg/errors"
)

// ParseOptions configure how raw rows become a domain.Table.
type ParseOptions struct {
	Source string
	Header HeaderMode
	// KeepHeaderNames uses the header row verbatim as column names instead of
	// the synthesized ones.
	KeepHeaderNames bool
}

var headerIdentifiers = map[string]struct{}{
	"user_id":    {},
	"userid":     {},
	"id":         {},
	"student_id": {},
	"student":    {},
}

// Parse infers the column layout from the first row and converts every data
// row into a typed record. Rows that do not fit are reported as issues and
// left out; only a layout that cannot hold the fixed columns is fatal.
func Parse(rows []Row, opts ParseOptions) (*domain.Table, error) {
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, errors.NewSchemaError("source contains no rows", opts.Source, 0, nil)
	}

	var header []string
	first := rows[0]
	if first.Err == "" && isHeader(first.Cells, opts.Header) {
		header = trimCells(first.Cells)
		rows = rows[1:]
	}

	width := len(header)
	if width == 0 {
		for _, row := range rows {
			if row.Err == "" {
				width = len(row.Cells)
				break
			}
		}
	}

	fixed := domain.LeadingColumns + domain.TrailingColumns
	if width < fixed {
		return nil, errors.NewSchemaError(
			fmt.Sprintf("expected at least %d columns, found %d", fixed, width),
			opts.Source, width, nil)
	}
	subjectColumns := width - fixed
	if subjectColumns%2 != 0 {
		return nil, errors.NewSchemaError(
			fmt.Sprintf("subject block has %d columns, expected name/score pairs", subjectColumns),
			opts.Source, width, nil)
	}
	pairs := subjectColumns / 2

	columns := domain.SyntheticColumns(pairs)
	if opts.KeepHeaderNames && header != nil {
		columns = header
	}

	table := &domain.Table{
		Source:   opts.Source,
		Columns:  columns,
		Pairs:    pairs,
		Records:  make([]domain.StudentRecord, 0, len(rows)),
		Issues:   []domain.RowIssue{},
		LoadedAt: time.Now(),
	}

	for _, row := range rows {
		if row.Err != "" {
			table.Issues = append(table.Issues, domain.RowIssue{Line: row.Line, Reason: row.Err})
			continue
		}
		record, issue := parseRecord(row, width, pairs)
		if issue != nil {
			table.Issues = append(table.Issues, *issue)
			continue
		}
		table.Records = append(table.Records, record)
	}

	return table, nil
}

func parseRecord(row Row, width, pairs int) (domain.StudentRecord, *domain.RowIssue) {
	cells := trimCells(row.Cells)
	id := ""
	if len(cells) > 0 {
		id = cells[0]
	}

	fail := func(format string, args ...any) (domain.StudentRecord, *domain.RowIssue) {
		return domain.StudentRecord{}, &domain.RowIssue{Line: row.Line, ID: id, Reason: fmt.Sprintf(format, args...)}
	}

	if len(cells) != width {
		return fail("expected %d columns, found %d", width, len(cells))
	}
	if id == "" {
		return fail("empty identifier")
	}

	record := domain.StudentRecord{
		ID:       id,
		Subjects: make([]domain.SubjectScore, pairs),
		Line:     row.Line,
	}

	for k := 0; k < pairs; k++ {
		nameCell := cells[domain.LeadingColumns+2*k]
		scoreCell := cells[domain.LeadingColumns+2*k+1]

		if nameCell != "" {
			name := nameCell
			record.Subjects[k].Name = &name
		}
		if scoreCell != "" {
			score, err := parseNumber(scoreCell)
			if err != nil {
				return fail("score_%d: %q is not a number", k+1, scoreCell)
			}
			record.Subjects[k].Score = &score
		}
	}

	tail := cells[width-domain.TrailingColumns:]

	productive, ok := domain.ParseProductivity(tail[0])
	if !ok {
		return fail("%s: unrecognized flag %q", domain.ColumnProductivityFlag, tail[0])
	}
	record.IsProductive = productive

	if tail[1] != "" {
		rate, err := parseNumber(tail[1])
		if err != nil {
			return fail("%s: %q is not a number", domain.ColumnProductivityRate, tail[1])
		}
		record.ProductivityRate = &rate
	}

	record.EmotionalFactors = tail[2]

	return record, nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return v, nil
}

func isHeader(cells []string, mode HeaderMode) bool {
	switch mode {
	case HeaderPresent:
		return true
	case HeaderAbsent:
		return false
	}
	if len(cells) == 0 {
		return false
	}
	_, ok := headerIdentifiers[strings.ToLower(strings.TrimSpace(cells[0]))]
	return ok
}

// dropBlankRows skips lines that hold at most one blank cell. A delimited
// row of empty cells is kept so it surfaces as an issue.
func dropBlankRows(rows []Row) []Row {
	out := rows[:0:0]
	for _, row := range rows {
		if row.Err == "" && len(row.Cells) <= 1 && isBlank(row.Cells) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
