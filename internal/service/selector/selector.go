// Package selector picks student records out of a loaded table. Every function
// is pure: the table carries its own cache and selection stores nothing.
package selector

import (
	"strings"

	"github.com/kapu/student-insights-go/internal/domain"
)

const (
	MsgNoSelection    = "Please select at least one student."
	MsgNoStudents     = "No data found for the given students."
	msgNoStudentFound = "No data found for student: "
)

// NotFoundMessage is the single-identifier miss message.
func NotFoundMessage(id string) string {
	return msgNoStudentFound + id
}

// SelectOne returns every row whose identifier equals id. Identifiers are
// compared exactly after trimming surrounding whitespace.
func SelectOne(id string, table *domain.Table) domain.Selection {
	id = strings.TrimSpace(id)
	sel := domain.Selection{
		Requested: []string{id},
		Records:   []domain.StudentRecord{},
	}

	matches := table.Lookup(id)
	if len(matches) == 0 {
		sel.Missing = []string{id}
		sel.Message = NotFoundMessage(id)
		return sel
	}

	sel.Records = append(sel.Records, matches...)
	sel.Found = true
	return sel
}

// SelectMany looks each identifier up independently and concatenates the hits
// in request order. Unmatched identifiers are skipped; when nothing matches
// the selection is an explicit miss.
func SelectMany(ids []string, table *domain.Table) domain.Selection {
	sel := domain.Selection{
		Requested: make([]string, 0, len(ids)),
		Records:   []domain.StudentRecord{},
		Multi:     true,
	}

	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		sel.Requested = append(sel.Requested, id)

		matches := table.Lookup(id)
		if len(matches) == 0 {
			sel.Missing = append(sel.Missing, id)
			continue
		}
		sel.Records = append(sel.Records, matches...)
	}

	if len(sel.Records) == 0 {
		sel.Message = MsgNoStudents
		return sel
	}

	sel.Found = true
	return sel
}

// Select dispatches on the number of identifiers: one goes through SelectOne,
// several through SelectMany. Blank identifiers are ignored.
func Select(ids []string, table *domain.Table) domain.Selection {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	switch len(cleaned) {
	case 0:
		return domain.Selection{
			Requested: []string{},
			Records:   []domain.StudentRecord{},
			Message:   MsgNoSelection,
		}
	case 1:
		return SelectOne(cleaned[0], table)
	default:
		return SelectMany(cleaned, table)
	}
}
