package ai

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kapu/student-insights-go/internal/domain"
	"github.com/kapu/student-insights-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	output string
	meta   *GenerateMetadata
	err    error

	prompt string
	preset ModelPreset
	opts   *GenerateOptions
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, preset ModelPreset, opts *GenerateOptions) (string, *GenerateMetadata, error) {
	f.prompt = prompt
	f.preset = preset
	f.opts = opts
	return f.output, f.meta, f.err
}

func sampleTable() *domain.Table {
	math := "Math"
	score := 8.0
	yes := true
	return &domain.Table{
		Columns: domain.SyntheticColumns(1),
		Pairs:   1,
		Records: []domain.StudentRecord{
			{ID: "s1", Subjects: []domain.SubjectScore{{Name: &math, Score: &score}}, IsProductive: &yes, EmotionalFactors: "BACKLOGS"},
			{ID: "s2", Subjects: []domain.SubjectScore{{}}},
		},
	}
}

func TestSummarizeSingle(t *testing.T) {
	table := sampleTable()
	gen := &fakeGenerator{
		output: "```markdown\n## Strengths\n- steady\n```",
		meta:   &GenerateMetadata{Provider: "Groq", Model: "llama"},
	}
	svc := NewNarrativeService(gen, 0, zap.NewNop())

	sel := domain.Selection{Requested: []string{"s1"}, Records: table.Lookup("s1"), Found: true}
	n, err := svc.Summarize(context.Background(), table, sel)
	require.NoError(t, err)

	assert.Equal(t, "## Strengths\n- steady", n.Text)
	assert.Contains(t, n.HTML, "<h2>Strengths</h2>")
	assert.Equal(t, "Groq", n.Metadata.Provider)
	assert.Contains(t, n.Context, "s1")
	assert.NotContains(t, n.Context, "s2")

	assert.Equal(t, PresetNarrative, gen.preset)
	assert.Contains(t, gen.prompt, "Here is the data for the student:")
	assert.Contains(t, gen.prompt, n.Context)
	require.NotNil(t, gen.opts)
	require.NotNil(t, gen.opts.Overrides.Temperature)
	assert.Equal(t, float32(0), *gen.opts.Overrides.Temperature)
}

func TestSummarizeMultiple(t *testing.T) {
	table := sampleTable()
	gen := &fakeGenerator{output: "comparison"}
	svc := NewNarrativeService(gen, 0.4, zap.NewNop())

	sel := domain.Selection{
		Requested: []string{"s2", "s1"},
		Records:   append(table.Lookup("s2"), table.Lookup("s1")...),
		Multi:     true,
		Found:     true,
	}
	n, err := svc.Summarize(context.Background(), table, sel)
	require.NoError(t, err)

	assert.Equal(t, "comparison", n.Text)
	assert.Contains(t, gen.prompt, "Here is the data for the students:")
	assert.Contains(t, gen.prompt, "compare their strengths")
	assert.Less(t, strings.Index(gen.prompt, "s2 "), strings.Index(gen.prompt, "s1 "))
	assert.Equal(t, float32(0.4), *gen.opts.Overrides.Temperature)
	assert.Equal(t, GenerateMetadata{}, n.Metadata)
}

func TestSummarizeRejectsEmptySelection(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewNarrativeService(gen, 0, zap.NewNop())

	_, err := svc.Summarize(context.Background(), sampleTable(), domain.Selection{Requested: []string{"zz"}})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Empty(t, gen.prompt)
}

func TestSummarizeWrapsGeneratorErrors(t *testing.T) {
	table := sampleTable()
	sel := domain.Selection{Records: table.Lookup("s1"), Found: true}

	gen := &fakeGenerator{err: stderrors.New("connection reset")}
	_, err := NewNarrativeService(gen, 0, zap.NewNop()).Summarize(context.Background(), table, sel)
	require.Error(t, err)
	assert.True(t, errors.IsUpstreamError(err))

	upstream := errors.NewUpstreamServiceError("text generation failed", "Gemini", nil)
	gen = &fakeGenerator{err: upstream}
	_, err = NewNarrativeService(gen, 0, zap.NewNop()).Summarize(context.Background(), table, sel)
	assert.Same(t, upstream, err)
}

