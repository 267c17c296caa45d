package adapter

import (
	"strings"
	"testing"

	"github.com/kapu/student-insights-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRecords(t *testing.T) {
	name := "Math"
	score := 5.0
	yes := true
	rate := 7.0

	records := []domain.StudentRecord{
		{
			ID:               "s1",
			Subjects:         []domain.SubjectScore{{Name: &name, Score: &score}},
			IsProductive:     &yes,
			ProductivityRate: &rate,
			EmotionalFactors: "BACKLOGS",
		},
		{
			ID:       "student-2",
			Subjects: []domain.SubjectScore{{}},
		},
	}

	out := FormatRecords(domain.SyntheticColumns(1), records)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "user_id   | subject_1 | score_1 | productivity_yes_no | productivity_rate | emotional_factors", lines[0])
	assert.Equal(t, "s1        | Math      | 5       | Yes                 | 7                 | BACKLOGS", lines[1])
	assert.Equal(t, "student-2 | -         | -       | -                   | -                 | -", lines[2])
}

func TestFormatRecordsIsStable(t *testing.T) {
	records := []domain.StudentRecord{{ID: "a"}, {ID: "b"}}
	cols := domain.SyntheticColumns(0)
	assert.Equal(t, FormatRecords(cols, records), FormatRecords(cols, records))
}

func TestFormatRecordsHeaderOnly(t *testing.T) {
	out := FormatRecords([]string{"user_id", "x"}, nil)
	assert.Equal(t, "user_id | x", out)
}

func TestFormatStudentList(t *testing.T) {
	assert.Equal(t, "No students loaded.", FormatStudentList(nil))

	ids := make([]string, 10)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	out := strings.Split(FormatStudentList(ids), "\n")
	require.Len(t, out, 10)
	assert.Equal(t, " 1. a", out[0])
	assert.Equal(t, "10. j", out[9])
}
