package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContext = "user_id | subject_1 | score_1\ns1      | Math      | 8"

func TestRenderNarrativeSingle(t *testing.T) {
	pb := NewPromptBuilder()

	out, err := pb.Render(TemplateNarrativeSingle, NewNarrativePromptData(sampleContext, 6))
	require.NoError(t, err)

	assert.Contains(t, out, "Here is the data for the student:")
	assert.Contains(t, out, "Columns 2 to 13: subject_scores")
	assert.Contains(t, out, "up to 6 subjects")
	assert.Contains(t, out, "3. Column 14: productivity_yes_no")
	assert.Contains(t, out, "Column 15: productivity_rate")
	assert.Contains(t, out, "5. Column 16: emotional_factors")
	assert.Contains(t, out, sampleContext)
	assert.Contains(t, out, "student's strengths, opportunities, and challenges")
	assert.NotContains(t, out, "compare their strengths")
}

func TestRenderNarrativeMultiple(t *testing.T) {
	pb := NewPromptBuilder()

	out, err := pb.Render(TemplateNarrativeMultiple, NewNarrativePromptData(sampleContext, 1))
	require.NoError(t, err)

	assert.Contains(t, out, "Here is the data for the students:")
	assert.Contains(t, out, "Columns 2 to 3: subject_scores")
	assert.Contains(t, out, "Column 4: productivity_yes_no")
	assert.Contains(t, out, "compare their strengths")
}

func TestRenderListsPanicButtons(t *testing.T) {
	out, err := NewPromptBuilder().Render(TemplateNarrativeSingle, NewNarrativePromptData("", 2))
	require.NoError(t, err)

	assert.Contains(t, out, `academic_panic_buttons = ("MISSED CLASSES", "BACKLOGS", "LACK OF MOTIVATION", "NOT UNDERSTANDING", "BAD MARKS")`)
	assert.Contains(t, out, `non_academic_panic_buttons = ("EMOTIONAL FACTORS", "PROCRASTINATE", "LOST INTEREST", "LACK OF FOCUS", "GOALS NOT ACHIEVED", "LACK OF DISCIPLINE")`)
}

func TestRenderWithoutSubjectPairs(t *testing.T) {
	out, err := NewPromptBuilder().Render(TemplateNarrativeSingle, NewNarrativePromptData(sampleContext, 0))
	require.NoError(t, err)

	assert.NotContains(t, out, "subject_scores")
	assert.Contains(t, out, "2. Column 2: productivity_yes_no")
	assert.Contains(t, out, "3. Column 3: productivity_rate")
	assert.Contains(t, out, "4. Column 4: emotional_factors")
	assert.NotContains(t, out, "5. Column")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := NewPromptBuilder().Render(TemplateName("missing"), nil)
	assert.Error(t, err)
}

func TestRenderCachesTemplate(t *testing.T) {
	pb := NewPromptBuilder()
	data := NewNarrativePromptData(sampleContext, 3)

	first, err := pb.Render(TemplateNarrativeMultiple, data)
	require.NoError(t, err)
	second, err := pb.Render(TemplateNarrativeMultiple, data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, pb.templates, 1)
}

func TestNewNarrativePromptData(t *testing.T) {
	data := NewNarrativePromptData("ctx", -1)
	assert.Equal(t, 0, data.Pairs)
	assert.Equal(t, 1, data.LastSubjectColumn)
	assert.Equal(t, 2, data.FlagColumn)
	assert.Equal(t, 2, data.FlagItem)
	assert.Equal(t, 3, NewNarrativePromptData("ctx", 1).FlagItem)

	assert.Equal(t, TemplateNarrativeSingle, NarrativeTemplate(false))
	assert.Equal(t, TemplateNarrativeMultiple, NarrativeTemplate(true))
}
