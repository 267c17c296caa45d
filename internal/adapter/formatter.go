package adapter

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kapu/student-insights-go/internal/domain"
)

const (
	columnSeparator = " | "
	absentCell      = "-"
)

// FormatRecords renders records as an aligned plain-text table: one header
// line with the column names, then one line per record in the given order.
// Absent values print as "-". The output is the context handed to the
// text-generation service, so it must stay stable for equal input.
func FormatRecords(columns []string, records []domain.StudentRecord) string {
	lines := make([][]string, 0, len(records)+1)
	lines = append(lines, columns)

	for _, rec := range records {
		fields := rec.Fields()
		for i, f := range fields {
			if f == "" {
				fields[i] = absentCell
			}
		}
		lines = append(lines, fields)
	}

	width := 0
	for _, line := range lines {
		if len(line) > width {
			width = len(line)
		}
	}

	colWidths := make([]int, width)
	for _, line := range lines {
		for i, cell := range line {
			if n := utf8.RuneCountInString(cell); n > colWidths[i] {
				colWidths[i] = n
			}
		}
	}

	var sb strings.Builder
	for li, line := range lines {
		if li > 0 {
			sb.WriteString("\n")
		}
		var row strings.Builder
		for i := 0; i < width; i++ {
			cell := absentCell
			if i < len(line) {
				cell = line[i]
			}
			if i > 0 {
				row.WriteString(columnSeparator)
			}
			row.WriteString(cell)
			if pad := colWidths[i] - utf8.RuneCountInString(cell); pad > 0 && i < width-1 {
				row.WriteString(strings.Repeat(" ", pad))
			}
		}
		sb.WriteString(strings.TrimRight(row.String(), " "))
	}

	return sb.String()
}

// FormatStudentList renders identifiers one per line, numbered from 1.
func FormatStudentList(ids []string) string {
	if len(ids) == 0 {
		return "No students loaded."
	}
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(padNumber(i+1, len(ids)))
		sb.WriteString(". ")
		sb.WriteString(id)
	}
	return sb.String()
}

func padNumber(n, max int) string {
	s := strconv.Itoa(n)
	if width := len(strconv.Itoa(max)); len(s) < width {
		return strings.Repeat(" ", width-len(s)) + s
	}
	return s
}
