package selector

import (
	"context"
	"testing"

	"github.com/kapu/student-insights-go/internal/domain"
	"github.com/kapu/student-insights-go/internal/service/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleTable(t *testing.T) *domain.Table {
	t.Helper()
	loader, err := table.NewLoader(context.Background(), table.LoaderConfig{Source: table.Literal("")}, zap.NewNop())
	require.NoError(t, err)
	tbl, err := loader.Load(context.Background())
	require.NoError(t, err)
	return tbl
}

func subject(name string, score float64) domain.SubjectScore {
	return domain.SubjectScore{Name: &name, Score: &score}
}

func TestSelectOneSampleStudentIsExactRow(t *testing.T) {
	tbl := sampleTable(t)

	sel := SelectOne("k80sL0U5EoTBkehsoelmECj96R73", tbl)
	require.True(t, sel.Found)
	require.Len(t, sel.Records, 1)

	productive := true
	rate := 6.0
	want := domain.StudentRecord{
		ID: "k80sL0U5EoTBkehsoelmECj96R73",
		Subjects: []domain.SubjectScore{
			subject("Sets, Relation and Functions", 5),
			subject("ATOMIC STRUCTURE", 30),
			subject("Diffrential Equations", 17),
			subject("Permutations and Combinations", 26),
			subject("Permutations and Combinations", 27),
			subject("ORGANIC COMPOUNDS CONTAINING OXYGEN", 23),
		},
		IsProductive:     &productive,
		ProductivityRate: &rate,
		EmotionalFactors: "",
		Line:             9,
	}
	assert.Equal(t, want, sel.Records[0])
}

func TestSelectKeepsNegativeScoreAndReportsMiss(t *testing.T) {
	tbl := sampleTable(t)

	sel := Select([]string{"uhaHKci85DahTQptVzalLMPLb7v2", "nope"}, tbl)
	require.True(t, sel.Found)
	assert.True(t, sel.Multi)
	assert.Equal(t, []string{"nope"}, sel.Missing)
	assert.Empty(t, sel.Message)

	require.Len(t, sel.Records, 1)
	rec := sel.Records[0]
	assert.Equal(t, 12, rec.Line)
	require.NotEmpty(t, rec.Subjects)
	assert.Equal(t, subject("SOME BASIC CONCEPTS IN CHEMISTRY", -5), rec.Subjects[0])
	assert.Nil(t, rec.IsProductive)
}

func TestSelectUnknownStudentOnSample(t *testing.T) {
	sel := Select([]string{"nope"}, sampleTable(t))

	assert.False(t, sel.Found)
	assert.Empty(t, sel.Records)
	assert.Equal(t, "No data found for student: nope", sel.Message)
}
