package domain

import (
	"strconv"
	"strings"
	"time"
)

// Fixed column names around the variable subject block.
const (
	ColumnUserID           = "user_id"
	ColumnProductivityFlag = "productivity_yes_no"
	ColumnProductivityRate = "productivity_rate"
	ColumnEmotionalFactors = "emotional_factors"

	// LeadingColumns and TrailingColumns bracket the subject/score pairs.
	LeadingColumns  = 1
	TrailingColumns = 3
)

// SubjectScore is one attempted subject or chapter. Either side may be absent
// when the student attempted fewer subjects than the table is wide.
type SubjectScore struct {
	Name  *string  `json:"name,omitempty"`
	Score *float64 `json:"score,omitempty"`
}

// Attempted reports whether both the name and the score are present.
func (s SubjectScore) Attempted() bool {
	return s.Name != nil && s.Score != nil
}

// Empty reports whether neither side is present.
func (s SubjectScore) Empty() bool {
	return s.Name == nil && s.Score == nil
}

type StudentRecord struct {
	ID               string         `json:"user_id"`
	Subjects         []SubjectScore `json:"subjects"`
	IsProductive     *bool          `json:"productivity_yes_no,omitempty"`
	ProductivityRate *float64       `json:"productivity_rate,omitempty"`
	EmotionalFactors string         `json:"emotional_factors"`
	Line             int            `json:"line"`
}

// AttemptedSubjects returns the pairs with both a name and a score.
func (r StudentRecord) AttemptedSubjects() []SubjectScore {
	out := make([]SubjectScore, 0, len(r.Subjects))
	for _, s := range r.Subjects {
		if s.Attempted() {
			out = append(out, s)
		}
	}
	return out
}

// Fields serializes the record back into positional row cells using the same
// layout the loader parses.
func (r StudentRecord) Fields() []string {
	fields := make([]string, 0, LeadingColumns+2*len(r.Subjects)+TrailingColumns)
	fields = append(fields, r.ID)
	for _, s := range r.Subjects {
		fields = append(fields, FormatOptionalString(s.Name), FormatOptionalNumber(s.Score))
	}
	fields = append(fields,
		FormatProductivity(r.IsProductive),
		FormatOptionalNumber(r.ProductivityRate),
		r.EmotionalFactors,
	)
	return fields
}

// RowIssue describes a source row excluded from the record set.
type RowIssue struct {
	Line   int    `json:"line"`
	ID     string `json:"user_id,omitempty"`
	Reason string `json:"reason"`
}

// Table is the immutable result of one load.
type Table struct {
	Source   string          `json:"source"`
	Columns  []string        `json:"columns"`
	Pairs    int             `json:"pairs"`
	Records  []StudentRecord `json:"records"`
	Issues   []RowIssue      `json:"issues,omitempty"`
	LoadedAt time.Time       `json:"loaded_at"`
}

// IDs returns distinct identifiers in table order.
func (t *Table) IDs() []string {
	if t == nil {
		return []string{}
	}
	seen := make(map[string]struct{}, len(t.Records))
	ids := make([]string, 0, len(t.Records))
	for _, rec := range t.Records {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		seen[rec.ID] = struct{}{}
		ids = append(ids, rec.ID)
	}
	return ids
}

// Lookup returns every record whose identifier equals id, in table order.
func (t *Table) Lookup(id string) []StudentRecord {
	if t == nil {
		return nil
	}
	var out []StudentRecord
	for _, rec := range t.Records {
		if rec.ID == id {
			out = append(out, rec)
		}
	}
	return out
}

// SyntheticColumns builds user_id, subject_k/score_k for k = 1..pairs, then
// the three trailing names.
func SyntheticColumns(pairs int) []string {
	cols := make([]string, 0, LeadingColumns+2*pairs+TrailingColumns)
	cols = append(cols, ColumnUserID)
	for k := 1; k <= pairs; k++ {
		cols = append(cols, "subject_"+strconv.Itoa(k), "score_"+strconv.Itoa(k))
	}
	return append(cols, ColumnProductivityFlag, ColumnProductivityRate, ColumnEmotionalFactors)
}

func FormatOptionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func FormatOptionalNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func FormatProductivity(v *bool) string {
	switch {
	case v == nil:
		return ""
	case *v:
		return "Yes"
	default:
		return "No"
	}
}

// ParseProductivity maps the Yes/blank flag. ok is false for text that is
// neither blank nor a recognized yes/no spelling.
func ParseProductivity(raw string) (value *bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return nil, true
	case "yes", "y", "true":
		v := true
		return &v, true
	case "no", "n", "false":
		v := false
		return &v, true
	default:
		return nil, false
	}
}
