package table

import (
	"strings"
	"testing"

	"github.com/kapu/student-insights-go/internal/domain"
	"github.com/kapu/student-insights-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseText(t *testing.T, text string, opts ParseOptions) (*domain.Table, error) {
	t.Helper()
	rows, err := readCSV(strings.NewReader(text))
	require.NoError(t, err)
	if opts.Source == "" {
		opts.Source = "test"
	}
	return Parse(rows, opts)
}

func TestParseSampleTable(t *testing.T) {
	table, err := parseText(t, SampleTable(), ParseOptions{Header: HeaderAuto})
	require.NoError(t, err)

	assert.Equal(t, 6, table.Pairs)
	assert.Equal(t, domain.SyntheticColumns(6), table.Columns)
	assert.Len(t, table.Records, 16)
	assert.Empty(t, table.Issues)

	for _, rec := range table.Records {
		assert.Len(t, rec.Subjects, 6, "record %s", rec.ID)
	}
}

func TestParseQuotedFieldWithComma(t *testing.T) {
	table, err := parseText(t, SampleTable(), ParseOptions{})
	require.NoError(t, err)

	rec := table.Lookup("6o0p8Zwg3AbvEf14PW34q7ByhHX2")
	require.Len(t, rec, 1)
	require.NotNil(t, rec[0].Subjects[2].Name)
	assert.Equal(t, "Sets, Relation and Functions", *rec[0].Subjects[2].Name)
	require.NotNil(t, rec[0].Subjects[2].Score)
	assert.Equal(t, 12.0, *rec[0].Subjects[2].Score)
}

func TestParseBlankProductivityIsUnknown(t *testing.T) {
	table, err := parseText(t, SampleTable(), ParseOptions{})
	require.NoError(t, err)

	blank := table.Lookup("71aeV1qFeLb76liBxvsZlQZQUDv2")
	require.Len(t, blank, 1)
	assert.Nil(t, blank[0].IsProductive)
	assert.Nil(t, blank[0].ProductivityRate)

	yes := table.Lookup("HPbnaEfnNBWDApP3aDyXfQel8y53")
	require.Len(t, yes, 1)
	require.NotNil(t, yes[0].IsProductive)
	assert.True(t, *yes[0].IsProductive)
	require.NotNil(t, yes[0].ProductivityRate)
	assert.Equal(t, 10.0, *yes[0].ProductivityRate)
	assert.Equal(t, "EMOTIONAL FACTORS", yes[0].EmotionalFactors)
}

func TestParseKeepsOutOfRangeValues(t *testing.T) {
	table, err := parseText(t, "s1,CHEMICAL THERMODYNAMICS,-5,Yes,14,\n", ParseOptions{})
	require.NoError(t, err)

	require.Len(t, table.Records, 1)
	assert.Equal(t, -5.0, *table.Records[0].Subjects[0].Score)
	assert.Equal(t, 14.0, *table.Records[0].ProductivityRate)
}

func TestParseRoundTrip(t *testing.T) {
	table, err := parseText(t, SampleTable(), ParseOptions{})
	require.NoError(t, err)

	var sb strings.Builder
	for _, rec := range table.Records {
		sb.WriteString(csvLine(rec.Fields()))
		sb.WriteString("\n")
	}

	again, err := parseText(t, sb.String(), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, again.Records, len(table.Records))

	for i := range table.Records {
		want := table.Records[i]
		got := again.Records[i]
		want.Line, got.Line = 0, 0
		assert.Equal(t, want, got)
	}
}

func csvLine(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		if strings.ContainsAny(f, ",\"") {
			f = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}
		quoted[i] = f
	}
	return strings.Join(quoted, ",")
}

func TestParseRowWidthMismatchIsReported(t *testing.T) {
	text := "s1,Math,5,Yes,7,\n" +
		"s2,Math,5,Yes\n" +
		"s3,Physics,8,No,3,BACKLOGS\n"

	table, err := parseText(t, text, ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"s1", "s3"}, table.IDs())
	require.Len(t, table.Issues, 1)
	assert.Equal(t, 2, table.Issues[0].Line)
	assert.Equal(t, "s2", table.Issues[0].ID)
	assert.Contains(t, table.Issues[0].Reason, "expected 6 columns")
}

func TestParseMalformedCells(t *testing.T) {
	text := "s1,Math,five,Yes,7,\n" +
		"s2,Math,5,Perhaps,7,\n" +
		"s3,Math,5,Yes,high,\n" +
		",Math,5,Yes,7,\n" +
		"s5,Math,NaN,Yes,7,\n" +
		"s6,Math,5,Yes,7,\n"

	table, err := parseText(t, text, ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"s6"}, table.IDs())
	require.Len(t, table.Issues, 5)
	assert.Contains(t, table.Issues[0].Reason, "score_1")
	assert.Contains(t, table.Issues[1].Reason, domain.ColumnProductivityFlag)
	assert.Contains(t, table.Issues[2].Reason, domain.ColumnProductivityRate)
	assert.Equal(t, "empty identifier", table.Issues[3].Reason)
	assert.Contains(t, table.Issues[4].Reason, "score_1")
}

func TestParseHeaderDetection(t *testing.T) {
	text := "user_id,a,b,flag,rate,factors\n" +
		"s1,Math,5,Yes,7,\n"

	table, err := parseText(t, text, ParseOptions{Header: HeaderAuto})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, table.IDs())
	assert.Equal(t, domain.SyntheticColumns(1), table.Columns)

	kept, err := parseText(t, text, ParseOptions{Header: HeaderAuto, KeepHeaderNames: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"user_id", "a", "b", "flag", "rate", "factors"}, kept.Columns)

	absent, err := parseText(t, text, ParseOptions{Header: HeaderAbsent})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, absent.IDs())
	require.Len(t, absent.Issues, 1)
	assert.Equal(t, "user_id", absent.Issues[0].ID)
}

func TestParseHeaderPresentForcesFirstRow(t *testing.T) {
	text := "learner,a,b,flag,rate,factors\n" +
		"s1,Math,5,Yes,7,\n"

	table, err := parseText(t, text, ParseOptions{Header: HeaderPresent})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, table.IDs())
}

func TestParseSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"blank lines only", "\n \n"},
		{"too narrow", "s1,Yes,7\n"},
		{"odd subject block", "s1,Math,5,Physics,Yes,7,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseText(t, tt.text, ParseOptions{})
			require.Error(t, err)
			assert.True(t, errors.IsSchemaError(err), "got %T", err)
		})
	}
}

func TestParseDelimitedBlankRowIsReported(t *testing.T) {
	text := "s1,Math,5,Yes,7,\n" +
		",,,,,\n" +
		",Math,5,Yes,7,\n"

	table, err := parseText(t, text, ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"s1"}, table.IDs())
	require.Len(t, table.Issues, 2)
	assert.Equal(t, 2, table.Issues[0].Line)
	assert.Equal(t, "empty identifier", table.Issues[0].Reason)
	assert.Equal(t, 3, table.Issues[1].Line)
	assert.Equal(t, "empty identifier", table.Issues[1].Reason)
}

func TestParseZeroPairs(t *testing.T) {
	table, err := parseText(t, "s1,Yes,7,BACKLOGS\n", ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Pairs)
	require.Len(t, table.Records, 1)
	assert.Empty(t, table.Records[0].Subjects)
}

func TestParseQuotingErrorIsRowIssue(t *testing.T) {
	text := "s1,Math,5,Yes,7,\n" +
		"s2,\"Ma\"th,5,Yes,7,\n" +
		"s3,Math,6,No,2,\n"

	table, err := parseText(t, text, ParseOptions{})
	require.NoError(t, err)

	assert.Contains(t, table.IDs(), "s1")
	assert.NotContains(t, table.IDs(), "s2")
	assert.NotEmpty(t, table.Issues)
}

func TestReadCSVStripsBOMAndTrimsLeadingSpace(t *testing.T) {
	rows, err := readCSV(strings.NewReader("\xEF\xBB\xBFs1, Math, 5\ns2,Physics,6\n"))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"s1", "Math", "5"}, rows[0].Cells)
	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, 2, rows[1].Line)
}
